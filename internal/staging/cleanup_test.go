package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanStaleRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "abc_1.download")
	if err := os.WriteFile(oldFile, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write old file: %v", err)
	}
	oldTime := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	freshFile := filepath.Join(dir, "def_2.download")
	if err := os.WriteFile(freshFile, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write fresh file: %v", err)
	}

	result := CleanStale(dir, 24*time.Hour, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != oldFile {
		t.Fatalf("Removed = %v, want [%s]", result.Removed, oldFile)
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Fatalf("fresh file should survive: %v", err)
	}
}

func TestCleanStaleMissingDir(t *testing.T) {
	result := CleanStale(filepath.Join(t.TempDir(), "missing"), time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.download"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.flac"), []byte("xy"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("ListFiles returned %d entries, want 2", len(files))
	}
	byName := map[string]FileInfo{}
	for _, f := range files {
		byName[f.Name] = f
	}
	if !byName["a.download"].InProgress {
		t.Fatal("a.download should be flagged in progress")
	}
	if byName["b.flac"].InProgress {
		t.Fatal("b.flac should not be flagged in progress")
	}
}
