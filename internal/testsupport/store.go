package testsupport

import (
	"context"
	"testing"

	"ripple/internal/config"
	"ripple/internal/dedup"
)

// MustOpenStore opens a dedup.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *dedup.Store {
	t.Helper()

	store, err := dedup.Open(cfg)
	if err != nil {
		t.Fatalf("dedup.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustRecord inserts a completion record for tests using the provided store.
func MustRecord(t testing.TB, store *dedup.Store, source, itemID string) {
	t.Helper()

	err := store.Record(context.Background(), dedup.CompletionRecord{Source: source, ID: itemID})
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
}
