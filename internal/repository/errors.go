package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrNotFound = errors.New("resource not found")

type ErrorKind string

const (
	ErrorTransport ErrorKind = "transport"
	ErrorMalformed ErrorKind = "malformed"
	ErrorCanceled  ErrorKind = "canceled"
	ErrorNotFound  ErrorKind = "not_found"
)

// TransportError is a network failure or a non-2xx status from the server.
// StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// MalformedResponse means the server answered 2xx but the body did not have
// the expected shape.
type MalformedResponse struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.Path, e.Reason)
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCanceled
	}
	if errors.Is(err, ErrNotFound) {
		return ErrorNotFound
	}
	var mr *MalformedResponse
	if errors.As(err, &mr) {
		return ErrorMalformed
	}
	return ErrorTransport
}
