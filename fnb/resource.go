package fnb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jrsteele09/fnb-console/apiclient"
	"github.com/pkg/errors"
)

// API sends requests to the F&B service. *apiclient.Client satisfies it.
type API interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
}

// Resource is a REST collection at a fixed path, e.g. "/restaurants/".
type Resource[T any] struct {
	api   API
	path  string
	cache *lru.LRU[string, []byte] // list bodies keyed by encoded query
}

// ResourceOption defines a function type to modify the Resource instance.
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	cacheSize int
	cacheTTL  time.Duration
}

// WithListCache keeps up to size list responses for ttl. Any write through the
// Resource empties the cache.
func WithListCache(size int, ttl time.Duration) ResourceOption {
	return func(o *resourceOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// NewResource returns the collection at path. A missing trailing slash is added.
func NewResource[T any](api API, path string, options ...ResourceOption) *Resource[T] {
	opts := resourceOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	r := &Resource[T]{
		api:  api,
		path: "/" + strings.Trim(path, "/") + "/",
	}
	if opts.cacheSize > 0 {
		r.cache = lru.NewLRU[string, []byte](opts.cacheSize, nil, opts.cacheTTL)
	}
	return r
}

// Path returns the collection path.
func (r *Resource[T]) Path() string {
	return r.path
}

// List returns the items matching params. Paginated and bare list responses are
// both accepted.
func (r *Resource[T]) List(ctx context.Context, params url.Values) ([]T, error) {
	key := params.Encode()
	if r.cache != nil {
		if body, ok := r.cache.Get(key); ok {
			return apiclient.UnwrapList[T](body)
		}
	}

	resp, err := r.api.Do(ctx, apiclient.NewRequest(http.MethodGet, r.path).WithQuery(params))
	if err != nil {
		return nil, errors.Wrapf(err, "[Resource.List] %s", r.path)
	}
	items, err := apiclient.UnwrapList[T](resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Resource.List] %s", r.path)
	}
	if r.cache != nil {
		r.cache.Add(key, resp.Body)
	}
	return items, nil
}

// Get fetches one item.
func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	resp, err := r.api.Do(ctx, apiclient.NewRequest(http.MethodGet, r.itemPath(id)))
	if err != nil {
		return nil, errors.Wrapf(err, "[Resource.Get] %s", r.itemPath(id))
	}
	return decode[T](resp, "[Resource.Get]")
}

// Create posts payload to the collection.
func (r *Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	return r.write(ctx, http.MethodPost, r.path, payload, "[Resource.Create]")
}

// Update replaces item id.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload any) (*T, error) {
	return r.write(ctx, http.MethodPut, r.itemPath(id), payload, "[Resource.Update]")
}

// Patch changes some fields of item id, e.g. {"is_active": false}.
func (r *Resource[T]) Patch(ctx context.Context, id int64, payload any) (*T, error) {
	return r.write(ctx, http.MethodPatch, r.itemPath(id), payload, "[Resource.Patch]")
}

// Delete removes item id.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	r.invalidate()
	if _, err := r.api.Do(ctx, apiclient.NewRequest(http.MethodDelete, r.itemPath(id))); err != nil {
		return errors.Wrapf(err, "[Resource.Delete] %s", r.itemPath(id))
	}
	return nil
}

// Upload posts a multipart form to the collection.
func (r *Resource[T]) Upload(ctx context.Context, fields map[string]string, files []apiclient.File) (*T, error) {
	req, err := apiclient.NewMultipartRequest(http.MethodPost, r.path, fields, files)
	if err != nil {
		return nil, errors.Wrapf(err, "[Resource.Upload] %s", r.path)
	}
	r.invalidate()
	resp, err := r.api.Do(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Resource.Upload] %s", r.path)
	}
	return decode[T](resp, "[Resource.Upload]")
}

func (r *Resource[T]) write(ctx context.Context, method, path string, payload any, op string) (*T, error) {
	req, err := apiclient.NewJSONRequest(method, path, payload)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", op, path)
	}
	r.invalidate()
	resp, err := r.api.Do(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", op, path)
	}
	return decode[T](resp, op)
}

func (r *Resource[T]) invalidate() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}

func decode[T any](resp *apiclient.Response, op string) (*T, error) {
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return &v, nil
}
