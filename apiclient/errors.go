package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/jrsteele09/fnb-console/oauthmodel"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
	Detail     string // "detail" field of the error body, if any
	Message    string // "message" field of the error body, if any
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{
		StatusCode: status,
		Method:     method,
		Path:       path,
		Body:       body,
	}
	var payload oauthmodel.ErrorResponse
	if json.Unmarshal(body, &payload) == nil {
		e.Detail = payload.Detail
		e.Message = payload.Message
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Reason())
}

// Reason returns the most specific human readable description available.
func (e *APIError) Reason() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	default:
		return http.StatusText(e.StatusCode)
	}
}

// IsAuthFailure reports whether the backend refused the credentials.
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsTokenExpired reports an authentication failure whose detail is one of signals.
func (e *APIError) IsTokenExpired(signals []string) bool {
	return e.IsAuthFailure() && slices.Contains(signals, e.Detail)
}
