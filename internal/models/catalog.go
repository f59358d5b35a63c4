// Package models defines core data structures for catalog records, queries, and search results.
package models

// CatalogRecord is one searchable video in the catalog. Records are immutable once loaded.
type CatalogRecord struct {
	ID          string `json:"video_id"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	Transcript  string `json:"transcript"`
	// Embedding is the raw vector as stored in the source; the ranker scores the normalized copy.
	Embedding []float32 `json:"-"`
}
