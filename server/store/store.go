package store

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
)

// Record is one stored object. The "id" field is owned by the store.
type Record map[string]any

// Query selects and pages a collection. Filters match on the string form of a field.
type Query struct {
	Filters  map[string]string
	Page     int // 1-based
	PageSize int
}

// Result is one page of a collection.
type Result struct {
	Count   int
	Records []Record
	HasNext bool
	HasPrev bool
}

type collection struct {
	nextID  int64
	records map[int64]Record
}

// Store is an in-memory set of named collections.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New creates a store holding an empty collection for every name.
func New(names ...string) *Store {
	s := &Store{
		collections: make(map[string]*collection, len(names)),
	}
	for _, name := range names {
		s.collections[name] = &collection{nextID: 1, records: make(map[int64]Record)}
	}
	return s
}

// Names returns the collection names in order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.collections))
}

func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok
}

// List returns the records matching q.Filters ordered by id.
func (s *Store) List(name string, q Query) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	var matched []Record
	for _, rec := range c.records {
		if matches(rec, q.Filters) {
			matched = append(matched, copyRecord(rec))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return idOf(matched[i]) < idOf(matched[j])
	})

	res := &Result{Count: len(matched), Records: matched}
	if q.PageSize <= 0 {
		if res.Records == nil {
			res.Records = []Record{}
		}
		return res, nil
	}

	page := max(q.Page, 1)
	start := min((page-1)*q.PageSize, len(matched))
	end := min(start+q.PageSize, len(matched))
	res.Records = append([]Record{}, matched[start:end]...)
	res.HasNext = end < len(matched)
	res.HasPrev = page > 1
	return res, nil
}

func (s *Store) Get(name string, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "%s %d", name, id)
	}
	return copyRecord(rec), nil
}

// Create stores rec under the next id and returns the stored copy.
func (s *Store) Create(name string, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	stored := copyRecord(rec)
	stored["id"] = c.nextID
	c.records[c.nextID] = stored
	c.nextID++
	return copyRecord(stored), nil
}

// Replace overwrites the record, keeping its id.
func (s *Store) Replace(name string, id int64, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if _, ok := c.records[id]; !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "%s %d", name, id)
	}
	stored := copyRecord(rec)
	stored["id"] = id
	c.records[id] = stored
	return copyRecord(stored), nil
}

// Patch merges fields into the record. The id cannot be changed.
func (s *Store) Patch(name string, id int64, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	stored, ok := c.records[id]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "%s %d", name, id)
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		stored[k] = v
	}
	return copyRecord(stored), nil
}

func (s *Store) Delete(name string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return err
	}
	if _, ok := c.records[id]; !ok {
		return apperrors.Wrapf(apperrors.ErrNotFound, "%s %d", name, id)
	}
	delete(c.records, id)
	return nil
}

func (s *Store) collection(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "collection %q", name)
	}
	return c, nil
}

func matches(rec Record, filters map[string]string) bool {
	for k, want := range filters {
		v, ok := rec[k]
		if !ok || v == nil || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func idOf(rec Record) int64 {
	id, _ := rec["id"].(int64)
	return id
}

func copyRecord(rec Record) Record {
	c := make(Record, len(rec))
	maps.Copy(c, rec)
	return c
}
