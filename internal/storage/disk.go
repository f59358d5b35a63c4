package storage

import (
	"os"
	"path/filepath"
	"time"
)

// FileInfo describes the file behind a source at a point in time.
type FileInfo struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// StatSource returns size and modification time of the file behind src.
// In-memory sources return nil, nil.
func StatSource(src Source) (*FileInfo, error) {
	if src == nil || src.Path() == "" {
		return nil, nil
	}
	info, err := os.Stat(src.Path())
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if info.IsDir() {
		if size, err = DiskUsageBytes(src.Path()); err != nil {
			return nil, err
		}
	}
	return &FileInfo{Path: src.Path(), SizeBytes: size, ModTime: info.ModTime()}, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths are skipped; other errors are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.Walk(p, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				total += info.Size()
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return total, nil
}
