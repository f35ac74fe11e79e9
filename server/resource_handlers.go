package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/fnb-console/apiclient"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/server/store"
)

const (
	schedulesCollection = "restaurant-schedules"
	defaultPageSize     = 100
	maxPageSize         = 1000
	maxUploadBytes      = 32 << 20
	detailNotFound      = "Not found."
)

// ListHandler returns a page of a collection. Query parameters other than page and
// page_size are equality filters.
func (s *Server) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("resource")
		query := r.URL.Query()

		q := store.Query{
			Filters:  map[string]string{},
			Page:     atoiDefault(query.Get("page"), 1),
			PageSize: min(atoiDefault(query.Get("page_size"), defaultPageSize), maxPageSize),
		}
		for k, v := range query {
			if k == "page" || k == "page_size" || len(v) == 0 {
				continue
			}
			q.Filters[k] = v[0]
		}

		res, err := s.store.List(name, q)
		if err != nil {
			s.storeError(w, r, err)
			return
		}

		page := apiclient.Page[store.Record]{
			Count:   res.Count,
			Results: res.Records,
		}
		if res.HasNext {
			page.Next = pageURL(r, q.Page+1)
		}
		if res.HasPrev {
			page.Previous = pageURL(r, q.Page-1)
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) GetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, detailNotFound)
			return
		}
		rec, err := s.store.Get(r.PathValue("resource"), id)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// CreateHandler accepts a JSON object or a multipart form. Uploaded files are recorded
// by name and size under the form field they were sent in.
func (s *Server) CreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("resource")
		if !s.store.Has(name) {
			writeDetail(w, http.StatusNotFound, detailNotFound)
			return
		}

		var rec store.Record
		var err error
		if isMultipart(r) {
			rec, err = multipartRecord(r, name)
		} else {
			rec, err = decodeRecord(r.Body)
		}
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := s.store.Create(name, rec)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) ReplaceHandler() http.HandlerFunc {
	return s.writeHandler(s.store.Replace)
}

func (s *Server) PatchHandler() http.HandlerFunc {
	return s.writeHandler(s.store.Patch)
}

func (s *Server) writeHandler(write func(name string, id int64, rec store.Record) (store.Record, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, detailNotFound)
			return
		}
		rec, err := decodeRecord(r.Body)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := write(r.PathValue("resource"), id, rec)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeDetail(w, http.StatusNotFound, detailNotFound)
			return
		}
		if err := s.store.Delete(r.PathValue("resource"), id); err != nil {
			s.storeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// BulkCreateHandler creates every schedule of a JSON array and returns them in order.
func (s *Server) BulkCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var recs []store.Record
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&recs); err != nil {
			writeDetail(w, http.StatusBadRequest, "Expected a list of items.")
			return
		}

		created := make([]store.Record, 0, len(recs))
		for _, rec := range recs {
			c, err := s.store.Create(schedulesCollection, rec)
			if err != nil {
				s.storeError(w, r, err)
				return
			}
			created = append(created, c)
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return
	}
	s.internalError(w, r, err)
}

func decodeRecord(body io.Reader) (store.Record, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.New("Unreadable request body.")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return store.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec store.Record
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return nil, errors.New("Expected a JSON object.")
	}
	return rec, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func multipartRecord(r *http.Request, collection string) (store.Record, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.New("Invalid multipart form.")
	}
	rec := store.Record{}
	for k, v := range r.MultipartForm.Value {
		if len(v) == 0 {
			continue
		}
		// Form values are strings; ids must round trip as numbers
		if _, err := strconv.ParseInt(v[0], 10, 64); err == nil {
			rec[k] = json.Number(v[0])
		} else {
			rec[k] = v[0]
		}
	}
	for field, files := range r.MultipartForm.File {
		if len(files) == 0 {
			continue
		}
		rec[field] = "/media/" + collection + "/" + files[0].Filename
		rec[field+"_size"] = files[0].Size
		rec[field+"_count"] = len(files)
	}
	return rec, nil
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func pageURL(r *http.Request, page int) *string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{
		Scheme:   getScheme(r),
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}
	link := u.String()
	return &link
}
