package fnb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/jrsteele09/fnb-console/apiclient"
	"github.com/jrsteele09/fnb-console/fnb"
)

var _ fnb.API = (*fakeAPI)(nil)

// fakeAPI answers requests in memory. POSTs echo the payload with a new id.
type fakeAPI struct {
	lock      sync.Mutex
	requests  []*apiclient.Request
	nextID    int64
	responses map[string]string // "METHOD /path/" -> body
	failures  map[string]error  // "METHOD /path/" -> error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: map[string]string{},
		failures:  map[string]error{},
	}
}

func (f *fakeAPI) Do(_ context.Context, req *apiclient.Request) (*apiclient.Response, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.requests = append(f.requests, req)
	key := req.Method + " " + req.Path
	if err := f.failures[key]; err != nil {
		return nil, err
	}
	if body, ok := f.responses[key]; ok {
		return &apiclient.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}

	switch req.Method {
	case http.MethodDelete:
		return &apiclient.Response{StatusCode: http.StatusNoContent}, nil
	case http.MethodPost:
		f.nextID++
		doc := map[string]any{}
		if strings.HasPrefix(req.ContentType, "application/json") {
			_ = json.Unmarshal(req.Body, &doc)
		}
		doc["id"] = f.nextID
		body, _ := json.Marshal(doc)
		return &apiclient.Response{StatusCode: http.StatusCreated, Body: body}, nil
	default:
		body := req.Body
		if len(body) == 0 {
			body = []byte(`{}`)
		}
		return &apiclient.Response{StatusCode: http.StatusOK, Body: body}, nil
	}
}

// sent returns the requests matching method and path.
func (f *fakeAPI) sent(method, path string) []*apiclient.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	var out []*apiclient.Request
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAPI) count() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.requests)
}

func decodeBody(req *apiclient.Request) map[string]any {
	doc := map[string]any{}
	_ = json.Unmarshal(req.Body, &doc)
	return doc
}
