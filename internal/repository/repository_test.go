package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestRepo(t *testing.T, h http.HandlerFunc, opts ...Option) *Repository[item] {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	r, err := New[item](srv.URL+"/api", opts...)
	require.NoError(t, err)
	return r
}

func TestQueryPostsFilterAndDecodesEnvelope(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	var gotBody map[string]any
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, http.MethodPost, req.Method)
		gotPath = req.URL.Path
		gotQuery = req.URL.RawQuery
		gotAuth = req.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"data":[{"id":"1","name":"a"},{"id":"2","name":"b"}],"totalElements":2,"totalPages":1}`)
	}, WithTokenSource(staticToken("XYZ")))

	env, err := r.Query(context.Background(), "article-service/open-api/articles", map[string][]string{"page": {"0"}}, map[string]any{"stacks": []string{"React"}})
	require.NoError(t, err)
	require.Equal(t, "/api/article-service/open-api/articles", gotPath)
	require.Equal(t, "page=0", gotQuery)
	require.Equal(t, "Bearer XYZ", gotAuth)
	require.Equal(t, []any{"React"}, gotBody["stacks"])
	require.Len(t, env.Data, 2)
	require.Equal(t, 2, env.TotalElements)
	require.Equal(t, 1, env.TotalPages)
}

func TestEmptyTokenSendsNoAuthorization(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		require.Empty(t, req.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"id":"1","name":"a"}}`)
	}, WithTokenSource(staticToken("")))
	got, err := r.Get(context.Background(), "thing/1")
	require.NoError(t, err)
	require.Equal(t, item{ID: "1", Name: "a"}, got)
}

func TestGetNotFound(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"No article"}`)
	})
	_, err := r.Get(context.Background(), "article-service/open-api/article/x")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusNotFound, te.StatusCode)
	require.Equal(t, ErrorNotFound, Classify(err))
}

func TestMalformedResponses(t *testing.T) {
	cases := map[string]string{
		"not json":       `<html>`,
		"missing data":   `{"totalElements":1,"totalPages":1}`,
		"null data":      `{"data":null}`,
		"negative total": `{"data":[],"totalElements":-1,"totalPages":0}`,
		"wrong type":     `{"data":"nope"}`,
		"object data":    `{"data":{"items":[{"id":"a1"}]},"totalElements":1,"totalPages":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := r.Query(context.Background(), "list", nil, struct{}{})
			var mr *MalformedResponse
			require.True(t, errors.As(err, &mr), "got %v", err)
			require.Equal(t, ErrorMalformed, Classify(err))
		})
	}
}

func TestServerErrorIsTransport(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := r.Create(context.Background(), "things", item{Name: "x"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusInternalServerError, te.StatusCode)
	require.Contains(t, te.Error(), "boom")
	require.Equal(t, ErrorTransport, Classify(err))
}

func TestCanceledContext(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Query(ctx, "list", nil, struct{}{})
	require.Error(t, err)
	require.Equal(t, ErrorCanceled, Classify(err))
}

func TestCreateAcceptsSingleEntity(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":"9","name":"new"}}`)
	})
	env, err := r.Create(context.Background(), "things", item{Name: "new"})
	require.NoError(t, err)
	require.Equal(t, []item{{ID: "9", Name: "new"}}, env.Data)
}

func TestUpdateAndDeleteAppendID(t *testing.T) {
	var seen []string
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		seen = append(seen, req.Method+" "+req.URL.Path)
		if req.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"7","name":"upd"}}`)
	})
	got, err := r.Update(context.Background(), "things", "7", item{Name: "upd"})
	require.NoError(t, err)
	require.Equal(t, "upd", got.Name)
	require.NoError(t, r.Delete(context.Background(), "things/", "7"))
	require.Equal(t, []string{"PUT /api/things/7", "DELETE /api/things/7"}, seen)
}

func TestCreateMultiPart(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		require.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, req.ParseMultipartForm(1<<20))
		require.JSONEq(t, `{"name":"kim"}`, req.FormValue("request"))
		f, hdr, err := req.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		require.Equal(t, "avatar.png", hdr.Filename)
		require.Equal(t, "PNGDATA", string(b))
		_, _ = io.WriteString(w, `{"data":[{"id":"m1","name":"kim"}]}`)
	})
	env, err := r.CreateMultiPart(context.Background(), "member-service/open-api/register", MultipartForm{
		JSON:  map[string]any{"request": map[string]string{"name": "kim"}},
		Files: []FilePart{{Field: "image", Filename: "avatar.png", ContentType: "image/png", Content: strings.NewReader("PNGDATA")}},
	})
	require.NoError(t, err)
	require.Equal(t, "m1", env.Data[0].ID)
}

func TestListRejectsObjectData(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"id":"1","name":"a"}}`)
	})
	out, err := r.List(context.Background(), "popular")
	require.Nil(t, out)
	require.Equal(t, ErrorMalformed, Classify(err))
}

func TestCreateMultiPartEscapesQuotedFilename(t *testing.T) {
	r := newTestRepo(t, func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseMultipartForm(1<<20))
		f, hdr, err := req.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, `my "best" pic.png`, hdr.Filename)
		_, _ = io.WriteString(w, `{"data":{"id":"m2","name":"lee"}}`)
	})
	env, err := r.CreateMultiPart(context.Background(), "member-service/open-api/register", MultipartForm{
		Files: []FilePart{{Field: "image", Filename: `my "best" pic.png`, ContentType: "image/png", Content: strings.NewReader("PNG")}},
	})
	require.NoError(t, err)
	require.Equal(t, "m2", env.Data[0].ID)
}

func TestClassifyNil(t *testing.T) {
	require.Equal(t, ErrorKind(""), Classify(nil))
}
