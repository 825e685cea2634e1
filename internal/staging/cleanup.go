// Package staging manages the scratch area downloads land in before
// conversion and placement. Its cleanup pass reclaims leftovers from crashed
// or interrupted runs.
package staging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ripple/internal/logging"
)

// tempExtension marks in-progress download files.
const tempExtension = ".download"

// CleanStaleResult contains the outcome of a stale file cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staging leftovers older than maxAge. In-progress
// download files are only removed once stale, so a concurrent run's active
// files survive. It returns the removed paths and any errors encountered.
func CleanStale(stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(stagingDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logger.Warn("failed to remove stale staging file",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
			)
		} else {
			result.Removed = append(result.Removed, path)
			logger.Info("removed stale staging file",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}

	return result
}

// ListFiles returns the staging directory's files with their metadata,
// in-progress downloads included.
func ListFiles(stagingDir string) ([]FileInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:       entry.Name(),
			Path:       filepath.Join(stagingDir, entry.Name()),
			ModTime:    info.ModTime(),
			Size:       info.Size(),
			InProgress: strings.HasSuffix(entry.Name(), tempExtension),
		})
	}

	return files, nil
}

// FileInfo contains metadata about a staging file.
type FileInfo struct {
	Name       string
	Path       string
	ModTime    time.Time
	Size       int64
	InProgress bool
}
