// Package cli provides the command-line client and output formatting for QueryTube.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// titleWidth bounds titles in text output.
const titleWidth = 80

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", len(response.Results), response.Query, response.QueryTime)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "#%d | Score: %.4f | %s\n", i+1, result.Score, result.PublishedAt)
		fmt.Fprintf(w, "Title: %s\n", utils.Truncate(result.Title, titleWidth))
		fmt.Fprintf(w, "URL:   %s\n", result.PreviewURL)
		fmt.Fprintf(w, "\n%s\n\n", result.Transcript)
	}
	return nil
}

// WriteStatus writes server status to w in the given format.
func WriteStatus(w io.Writer, status *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "ready:              %t\n", status.Ready)
	fmt.Fprintf(w, "rows:               %d   # videos in the catalog\n", status.Rows)
	fmt.Fprintf(w, "dimensions:         %d   # embedding length D\n", status.Dimensions)
	fmt.Fprintf(w, "encoder_dimensions: %d\n", status.EncoderDimensions)
	if status.CatalogVersion != "" {
		fmt.Fprintf(w, "catalog_version:    %s\n", status.CatalogVersion)
	}
	if status.LoadedAt != nil {
		fmt.Fprintf(w, "loaded_at:          %s\n", status.LoadedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if status.Source != nil {
		fmt.Fprintf(w, "source:             %s (%d bytes)\n", status.Source.Path, status.Source.SizeBytes)
	}
	fmt.Fprintf(w, "disk_usage_bytes:   %d   # catalog + model files\n", status.DiskUsageBytes)
	if status.LastError != "" {
		fmt.Fprintf(w, "last_error:         %s\n", status.LastError)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
