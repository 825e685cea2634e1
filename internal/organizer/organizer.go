// Package organizer moves finished files from staging into the library,
// naming them from a configurable path template.
package organizer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ripple/internal/config"
	"ripple/internal/fileutil"
	"ripple/internal/logging"
	"ripple/internal/source"
	"ripple/internal/textutil"
)

// ErrExists indicates the destination already holds a file and overwriting
// is disabled.
var ErrExists = errors.New("destination already exists")

// Organizer places finished files under the library root.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds an Organizer.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "organizer")}
}

// Place moves stagedPath to its library destination and returns the final
// path with a fingerprint of it. The move is atomic on the destination
// filesystem; cross-device moves copy with checksum verification first.
func (o *Organizer) Place(d source.ItemDescriptor, stagedPath string) (string, string, error) {
	finalPath, err := o.destination(d, stagedPath)
	if err != nil {
		return "", "", err
	}

	if _, statErr := os.Stat(finalPath); statErr == nil {
		if !o.cfg.Library.OverwriteExisting {
			return "", "", fmt.Errorf("%w: %s", ErrExists, finalPath)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return "", "", fmt.Errorf("stat destination: %w", statErr)
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", "", fmt.Errorf("create library directory: %w", err)
	}
	if err := fileutil.MoveFile(stagedPath, finalPath); err != nil {
		return "", "", fmt.Errorf("place file: %w", err)
	}

	o.logger.Info("placed file",
		logging.String(logging.FieldSource, d.Source),
		logging.String(logging.FieldItemID, d.ID),
		logging.String("path", finalPath),
	)
	return finalPath, PathHash(finalPath), nil
}

// destination renders the library path for a descriptor. The staged file's
// extension wins over the descriptor's when they disagree, since conversion
// may have changed the container.
func (o *Organizer) destination(d source.ItemDescriptor, stagedPath string) (string, error) {
	libraryDir := strings.TrimSpace(o.cfg.Paths.LibraryDir)
	if libraryDir == "" {
		return "", errors.New("library directory is not configured")
	}

	ext := strings.TrimPrefix(filepath.Ext(stagedPath), ".")
	if ext == "" || ext == "download" {
		ext = d.Extension
	}

	template := strings.TrimSpace(d.PathTemplate)
	if template == "" {
		template = o.cfg.Library.PathTemplate
	}

	rendered := renderTemplate(template, d, ext)
	if strings.TrimSpace(rendered) == "" {
		return "", fmt.Errorf("path template %q rendered empty", template)
	}
	return filepath.Join(libraryDir, rendered), nil
}

func renderTemplate(template string, d source.ItemDescriptor, ext string) string {
	artist := fallback(d.Artist, "Unknown Artist")
	album := fallback(d.Album, "Unknown Album")
	title := fallback(d.Title, d.ID)

	replacer := strings.NewReplacer(
		"{artist}", textutil.SanitizeFileName(artist),
		"{album}", textutil.SanitizeFileName(album),
		"{title}", textutil.SanitizeFileName(title),
		"{position}", fmt.Sprintf("%02d", d.Position),
		"{ext}", strings.ToLower(strings.TrimSpace(ext)),
		"{source}", textutil.SanitizeFileName(d.Source),
		"{id}", textutil.SanitizeFileName(d.ID),
	)

	rendered := replacer.Replace(template)
	parts := strings.Split(rendered, "/")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return filepath.Join(parts...)
}

func fallback(value, alternative string) string {
	if strings.TrimSpace(value) == "" {
		return alternative
	}
	return value
}

// PathHash fingerprints a library path for the completion store.
func PathHash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
