package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned by Validate when the query text is blank.
var ErrEmptyQuery = errors.New("query text cannot be empty")

// SearchQuery represents a search request.
type SearchQuery struct {
	Text string `json:"text"`
	// TopK is the number of results; nil means the configured default.
	TopK *int `json:"top_k,omitempty"`
}

// Validate ensures the query has non-blank text, fills in the default TopK and caps it at maxTopK.
// A negative TopK is left as-is so the ranker can reject it.
func (q *SearchQuery) Validate(defaultTopK, maxTopK int) error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	if q.TopK == nil {
		k := defaultTopK
		q.TopK = &k
	}
	if maxTopK > 0 && *q.TopK > maxTopK {
		k := maxTopK
		q.TopK = &k
	}
	return nil
}

// Limit returns TopK, or 0 when unset.
func (q *SearchQuery) Limit() int {
	if q.TopK == nil {
		return 0
	}
	return *q.TopK
}
