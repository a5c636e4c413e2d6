package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// FilePart is one binary part of a multipart payload.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// MultipartForm carries JSON parts (encoded as application/json) and file parts.
type MultipartForm struct {
	JSON  map[string]any
	Files []FilePart
}

func (f MultipartForm) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for field, v := range f.JSON {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshal part %q: %w", field, err)
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(field)))
		h.Set("Content-Type", "application/json")
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", field, err)
		}
		if _, err := pw.Write(b); err != nil {
			return nil, "", fmt.Errorf("write part %q: %w", field, err)
		}
	}
	for _, fp := range f.Files {
		if fp.Content == nil {
			continue
		}
		ct := fp.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(fp.Field), escapeQuotes(fp.Filename)))
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %q: %w", fp.Field, err)
		}
		if _, err := io.Copy(pw, fp.Content); err != nil {
			return nil, "", fmt.Errorf("copy file part %q: %w", fp.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
