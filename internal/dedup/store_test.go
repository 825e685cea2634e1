package dedup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ripple/internal/dedup"
	"ripple/internal/testsupport"
)

func TestRecordAndContains(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ok, err := store.Contains(ctx, "qobuz", "track-1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatal("empty store should not contain anything")
	}

	rec := dedup.CompletionRecord{
		Source:        "Qobuz",
		ID:            "track-1",
		CompletedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		FinalPathHash: "abc123",
	}
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Source lookup is case-insensitive.
	ok, err = store.Contains(ctx, "QOBUZ", "track-1")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be found")
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d records, want 1", len(list))
	}
	got := list[0]
	if got.Source != "qobuz" || got.ID != "track-1" || got.FinalPathHash != "abc123" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.CompletedAt.Equal(rec.CompletedAt) {
		t.Fatalf("CompletedAt = %v, want %v", got.CompletedAt, rec.CompletedAt)
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := dedup.CompletionRecord{Source: "tidal", ID: "album-9", FinalPathHash: "h1"}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := dedup.CompletionRecord{Source: "tidal", ID: "album-9", FinalPathHash: "h2"}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 record after duplicate insert, got %d", len(list))
	}
	if list[0].FinalPathHash != "h1" {
		t.Fatalf("duplicate insert overwrote the original record: %+v", list[0])
	}
}

func TestFailedLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := dedup.FailedRecord{Source: "qobuz", Kind: "track", ID: "t-7", Reason: "status 503"}
	if err := store.RecordFailed(ctx, rec); err != nil {
		t.Fatalf("RecordFailed: %v", err)
	}
	// A repeat failure refreshes the entry instead of duplicating it.
	rec.Reason = "status 504"
	if err := store.RecordFailed(ctx, rec); err != nil {
		t.Fatalf("RecordFailed update: %v", err)
	}

	failed, err := store.ListFailed(ctx)
	if err != nil {
		t.Fatalf("ListFailed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("ListFailed returned %d records, want 1", len(failed))
	}
	if failed[0].Reason != "status 504" {
		t.Fatalf("expected refreshed reason, got %q", failed[0].Reason)
	}

	if err := store.ClearFailed(ctx, "qobuz", "t-7"); err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	failed, err = store.ListFailed(ctx)
	if err != nil {
		t.Fatalf("ListFailed: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("expected empty ledger after clear, got %d records", len(failed))
	}
}

func TestPurge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustRecord(t, store, "qobuz", "a")
	testsupport.MustRecord(t, store, "qobuz", "b")
	if err := store.RecordFailed(ctx, dedup.FailedRecord{Source: "qobuz", Kind: "track", ID: "c"}); err != nil {
		t.Fatalf("RecordFailed: %v", err)
	}

	removed, err := store.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Purge removed %d records, want 2", removed)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	failed, err := store.ListFailed(ctx)
	if err != nil {
		t.Fatalf("ListFailed: %v", err)
	}
	if len(list) != 0 || len(failed) != 0 {
		t.Fatalf("expected empty store after purge, got %d completed, %d failed", len(list), len(failed))
	}
}

func TestOpenRejectsSecondProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_ = testsupport.MustOpenStore(t, cfg)

	if _, err := dedup.Open(cfg); !errors.Is(err, dedup.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
