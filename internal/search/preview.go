package search

import (
	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/pkg/utils"
)

// PreviewLength is the number of transcript characters kept in a result.
const PreviewLength = 200

// WatchURLPrefix is prepended to a video id to form its preview URL.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// PreviewURL returns the watch URL for a video id.
func PreviewURL(id string) string {
	return WatchURLPrefix + id
}

// ToView projects a ranked record into its response shape. The transcript is
// cut to PreviewLength characters and always ends in "...".
func ToView(r models.ScoredResult) *models.VideoResult {
	rec := r.Record
	return &models.VideoResult{
		VideoID:     rec.ID,
		Title:       rec.Title,
		PublishedAt: rec.PublishedAt,
		Transcript:  utils.Preview(rec.Transcript, PreviewLength),
		Score:       float64(r.Score),
		PreviewURL:  PreviewURL(rec.ID),
	}
}
