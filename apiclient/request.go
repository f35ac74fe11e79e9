package apiclient

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
)

const contentTypeJSON = "application/json"

// Request describes one API call. The body is held as bytes so the call can be replayed.
// A Request handed to Client.Do is never modified; the retry is a new descriptor.
type Request struct {
	Method      string
	Path        string // Relative to the client's base URL, e.g. "/restaurants/"
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string

	token   string
	retried bool
}

// NewRequest returns a request without a body.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: http.Header{},
	}
}

// NewJSONRequest returns a request whose body is payload encoded as JSON.
// A nil payload sends no body.
func NewJSONRequest(method, path string, payload any) (*Request, error) {
	r := NewRequest(method, path)
	if payload == nil {
		return r, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("[NewJSONRequest] %s %s: %w", method, path, err)
	}
	r.Body = body
	r.ContentType = contentTypeJSON
	return r, nil
}

// WithQuery sets the query parameters.
func (r *Request) WithQuery(query url.Values) *Request {
	r.Query = query
	return r
}

// WithHeader sets a header on the request.
func (r *Request) WithHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set(key, value)
	return r
}

// WithToken attaches token in place of the Session's, using the client's prefix.
func (r *Request) WithToken(token string) *Request {
	r.token = token
	return r
}

// Retried reports whether this request is already the single replay of a rejected call.
func (r *Request) Retried() bool {
	return r.retried
}

// MarkRetried returns a copy marked as replayed; such a request is never recovered again.
func (r *Request) MarkRetried() *Request {
	c := r.clone()
	c.retried = true
	return c
}

func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = http.Header{}
	}
	c.Query = maps.Clone(r.Query)
	c.Body = slices.Clone(r.Body)
	return &c
}

// Response is a completed 2xx call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Response.Decode] %w", err)
	}
	return nil
}
