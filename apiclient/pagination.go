package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is the paginated list envelope of the REST backend.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// UnwrapList accepts either a bare JSON array or a Page and returns its items.
// Any other document yields an empty list.
func UnwrapList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []T{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("[UnwrapList] %w", err)
		}
		return items, nil
	case '{':
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("[UnwrapList] %w", err)
		}
		if len(page.Results) == 0 || page.Results[0] != '[' {
			return []T{}, nil
		}
		var items []T
		if err := json.Unmarshal(page.Results, &items); err != nil {
			return nil, fmt.Errorf("[UnwrapList] results: %w", err)
		}
		return items, nil
	}
	return []T{}, nil
}

// UnwrapFirst returns the first item of a list body, or nil when it is empty.
func UnwrapFirst[T any](body []byte) (*T, error) {
	items, err := UnwrapList[T](body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
