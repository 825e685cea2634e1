package organizer_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ripple/internal/organizer"
	"ripple/internal/source"
	"ripple/internal/testsupport"
)

func stagedFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write staged file: %v", err)
	}
	return path
}

func trackDescriptor() source.ItemDescriptor {
	return source.ItemDescriptor{
		Source:    "qobuz",
		ID:        "t-1",
		Kind:      source.KindTrack,
		Title:     "Blue in Green",
		Artist:    "Miles Davis",
		Album:     "Kind of Blue",
		Extension: "flac",
		Quality:   source.QualityLossless,
		Position:  3,
	}
}

func TestPlaceRendersTemplate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	org := organizer.New(cfg, nil)

	staged := stagedFile(t, cfg.Paths.StagingDir, "x.flac", "audio")
	finalPath, hash, err := org.Place(trackDescriptor(), staged)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "Miles Davis", "Kind of Blue", "03 - Blue in Green.flac")
	if finalPath != want {
		t.Fatalf("finalPath = %q, want %q", finalPath, want)
	}
	if hash != organizer.PathHash(want) {
		t.Fatalf("hash mismatch")
	}
	if _, err := os.Stat(finalPath); err != nil {
		t.Fatalf("placed file missing: %v", err)
	}
	if _, err := os.Stat(staged); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("staged file should be gone, stat err = %v", err)
	}
}

func TestPlaceSanitizesMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	org := organizer.New(cfg, nil)

	d := trackDescriptor()
	d.Artist = "AC/DC"
	d.Title = "What: Is? This*"

	staged := stagedFile(t, cfg.Paths.StagingDir, "y.flac", "audio")
	finalPath, _, err := org.Place(d, staged)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(cfg.Paths.LibraryDir, "AC-DC", "Kind of Blue", "03 - What- Is This-.flac")
	if finalPath != want {
		t.Fatalf("finalPath = %q, want %q", finalPath, want)
	}
}

func TestPlaceConflict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	org := organizer.New(cfg, nil)

	first := stagedFile(t, cfg.Paths.StagingDir, "a.flac", "one")
	if _, _, err := org.Place(trackDescriptor(), first); err != nil {
		t.Fatalf("first Place: %v", err)
	}

	second := stagedFile(t, cfg.Paths.StagingDir, "b.flac", "two")
	if _, _, err := org.Place(trackDescriptor(), second); !errors.Is(err, organizer.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	cfg.Library.OverwriteExisting = true
	third := stagedFile(t, cfg.Paths.StagingDir, "c.flac", "three")
	finalPath, _, err := org.Place(trackDescriptor(), third)
	if err != nil {
		t.Fatalf("overwrite Place: %v", err)
	}
	data, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatalf("read final: %v", err)
	}
	if string(data) != "three" {
		t.Fatalf("final content = %q, want %q", data, "three")
	}
}

func TestPlaceUsesDescriptorTemplateOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	org := organizer.New(cfg, nil)

	d := trackDescriptor()
	d.PathTemplate = "{source}/{id}.{ext}"

	staged := stagedFile(t, cfg.Paths.StagingDir, "z.flac", "audio")
	finalPath, _, err := org.Place(d, staged)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(cfg.Paths.LibraryDir, "qobuz", "t-1.flac")
	if finalPath != want {
		t.Fatalf("finalPath = %q, want %q", finalPath, want)
	}
}
