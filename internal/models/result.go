package models

// ScoredResult is one ranked catalog match.
type ScoredResult struct {
	// Record points into the catalog snapshot that produced the ranking.
	Record *CatalogRecord
	Score  float32
	// Rank is the 0-based position in the returned ordering.
	Rank int
}

// VideoResult is the boundary-facing projection of a ScoredResult.
type VideoResult struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	PublishedAt string  `json:"published_at"`
	Transcript  string  `json:"transcript"`
	Score       float64 `json:"score"`
	PreviewURL  string  `json:"preview_url"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []*VideoResult `json:"results"`
	// QueryTime is the wall time spent encoding and ranking, in milliseconds.
	QueryTime int64 `json:"query_time_ms"`
	// CatalogVersion identifies the catalog snapshot that served the request.
	CatalogVersion string `json:"catalog_version,omitempty"`
}
