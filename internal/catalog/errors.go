package catalog

import "errors"

var (
	// ErrSchema means the source has no embedding columns, lacks a required
	// metadata column, or has rows with missing or non-numeric embedding values.
	ErrSchema = errors.New("catalog schema error")
	// ErrSourceUnavailable means the catalog source is missing or unreadable.
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	// ErrDimensions means the catalog loaded but its embedding width differs
	// from the width the manager was configured to accept.
	ErrDimensions = errors.New("catalog dimensions do not match the encoder")
)
