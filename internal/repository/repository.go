package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer token attached to every request. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// Envelope is the list-shaped response body: {data: [...], totalElements, totalPages}.
type Envelope[T any] struct {
	Data          []T `json:"data"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// Repository is a resource-agnostic HTTP access object for entities of type T.
// Every call is a single attempt; nothing is retried.
type Repository[T any] struct {
	base   *url.URL
	client *http.Client
	tokens TokenSource
}

type Option func(*options)

type options struct {
	client *http.Client
	tokens TokenSource
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

func WithTokenSource(ts TokenSource) Option {
	return func(o *options) { o.tokens = ts }
}

func New[T any](baseURL string, opts ...Option) (*Repository[T], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: 15 * time.Second}
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &Repository[T]{base: base, client: o.client, tokens: o.tokens}, nil
}

// Get fetches a single entity wrapped as {data: T}.
func (r *Repository[T]) Get(ctx context.Context, path string) (T, error) {
	var zero T
	body, err := r.do(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return zero, err
	}
	return decodeSingle[T](path, body)
}

// Query is the read operation for list resources. The server exposes list
// queries as POST, so the verb is shared with Create but the semantics are not.
func (r *Repository[T]) Query(ctx context.Context, path string, params url.Values, filter any) (Envelope[T], error) {
	payload, err := json.Marshal(filter)
	if err != nil {
		return Envelope[T]{}, fmt.Errorf("encode query filter: %w", err)
	}
	body, err := r.do(ctx, http.MethodPost, path, params, bytes.NewReader(payload), "application/json")
	if err != nil {
		return Envelope[T]{}, err
	}
	return decodeEnvelope[T](path, body, false)
}

// List fetches a collection wrapped as {data: [...]} with a GET.
func (r *Repository[T]) List(ctx context.Context, path string) ([]T, error) {
	body, err := r.do(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope[T](path, body, false)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (r *Repository[T]) Create(ctx context.Context, path string, dto any) (Envelope[T], error) {
	payload, err := json.Marshal(dto)
	if err != nil {
		return Envelope[T]{}, fmt.Errorf("encode create payload: %w", err)
	}
	body, err := r.do(ctx, http.MethodPost, path, nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return Envelope[T]{}, err
	}
	return decodeEnvelope[T](path, body, true)
}

// CreateMultiPart sends form as multipart/form-data. The response has the same
// shape as Create.
func (r *Repository[T]) CreateMultiPart(ctx context.Context, path string, form MultipartForm) (Envelope[T], error) {
	payload, contentType, err := form.encode()
	if err != nil {
		return Envelope[T]{}, fmt.Errorf("encode multipart payload: %w", err)
	}
	body, err := r.do(ctx, http.MethodPost, path, nil, payload, contentType)
	if err != nil {
		return Envelope[T]{}, err
	}
	return decodeEnvelope[T](path, body, true)
}

func (r *Repository[T]) Update(ctx context.Context, path, id string, dto any) (T, error) {
	var zero T
	payload, err := json.Marshal(dto)
	if err != nil {
		return zero, fmt.Errorf("encode update payload: %w", err)
	}
	p := joinID(path, id)
	body, err := r.do(ctx, http.MethodPut, p, nil, bytes.NewReader(payload), "application/json")
	if err != nil {
		return zero, err
	}
	return decodeSingle[T](p, body)
}

func (r *Repository[T]) Delete(ctx context.Context, path, id string) error {
	_, err := r.do(ctx, http.MethodDelete, joinID(path, id), nil, nil, "")
	return err
}

func (r *Repository[T]) do(ctx context.Context, method, path string, params url.Values, body io.Reader, contentType string) ([]byte, error) {
	target := r.resolve(path, params)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.tokens != nil {
		if tok := r.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), 512)}
	}
	return raw, nil
}

func (r *Repository[T]) resolve(path string, params url.Values) string {
	u := *r.base
	u.Path = r.base.Path + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func decodeSingle[T any](path string, body []byte) (T, error) {
	var zero T
	var parsed struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return zero, &MalformedResponse{Path: path, Reason: "invalid json", Err: err}
	}
	if len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return zero, &MalformedResponse{Path: path, Reason: "missing data"}
	}
	var out T
	if err := json.Unmarshal(parsed.Data, &out); err != nil {
		return zero, &MalformedResponse{Path: path, Reason: "decode data", Err: err}
	}
	return out, nil
}

// decodeEnvelope requires data to be an array unless allowSingle is set, in
// which case an object is accepted as a one-element list.
func decodeEnvelope[T any](path string, body []byte, allowSingle bool) (Envelope[T], error) {
	var parsed struct {
		Data          json.RawMessage `json:"data"`
		TotalElements int             `json:"totalElements"`
		TotalPages    int             `json:"totalPages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "invalid json", Err: err}
	}
	if len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "missing data"}
	}
	if parsed.TotalElements < 0 || parsed.TotalPages < 0 {
		return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "negative page totals"}
	}
	var items []T
	trimmed := bytes.TrimSpace(parsed.Data)
	isObject := len(trimmed) > 0 && trimmed[0] == '{'
	if !isObject && (len(trimmed) == 0 || trimmed[0] != '[') {
		return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "data is not a list"}
	}
	if isObject && !allowSingle {
		return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "data is not a list"}
	}
	if isObject {
		// mutation endpoints answer with the single created entity
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "decode data", Err: err}
		}
		items = []T{one}
	} else if err := json.Unmarshal(parsed.Data, &items); err != nil {
		return Envelope[T]{}, &MalformedResponse{Path: path, Reason: "decode data", Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{Data: items, TotalElements: parsed.TotalElements, TotalPages: parsed.TotalPages}, nil
}

func joinID(path, id string) string {
	if id == "" {
		return path
	}
	return strings.TrimSuffix(path, "/") + "/" + id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
