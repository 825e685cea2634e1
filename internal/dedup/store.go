package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"ripple/internal/config"
)

// Store manages completion and failure records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the dedup database. The database is
// exclusive to one process; Open fails with ErrLocked if another holds it.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.DBPath
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire db lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection and releases the process lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Contains reports whether an item has a completion record.
func (s *Store) Contains(ctx context.Context, source, itemID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		"SELECT COUNT(1) FROM completed WHERE source = ? AND item_id = ?",
		normalizeKey(source), itemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: query completed: %w", ErrStore, err)
	}
	return count > 0, nil
}

// Record stores a completion record. Recording the same item twice is a
// no-op, so retried placements stay idempotent.
func (s *Store) Record(ctx context.Context, rec CompletionRecord) error {
	completedAt := rec.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO completed (source, item_id, completed_at, final_path_hash)
         VALUES (?, ?, ?, ?)`,
		normalizeKey(rec.Source),
		rec.ID,
		completedAt.UTC().Format(time.RFC3339Nano),
		rec.FinalPathHash,
	)
	if err != nil {
		return fmt.Errorf("%w: insert completed: %w", ErrStore, err)
	}
	return nil
}

// RecordFailed stores or refreshes a failure ledger entry.
func (s *Store) RecordFailed(ctx context.Context, rec FailedRecord) error {
	failedAt := rec.FailedAt
	if failedAt.IsZero() {
		failedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO failed_downloads (source, kind, item_id, reason, failed_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (source, kind, item_id)
         DO UPDATE SET reason = excluded.reason, failed_at = excluded.failed_at`,
		normalizeKey(rec.Source),
		rec.Kind,
		rec.ID,
		rec.Reason,
		failedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: insert failed_downloads: %w", ErrStore, err)
	}
	return nil
}

// ClearFailed removes a failure ledger entry. Called when a previously failed
// item finally completes.
func (s *Store) ClearFailed(ctx context.Context, source, itemID string) error {
	_, err := s.db.ExecContext(
		ctx,
		"DELETE FROM failed_downloads WHERE source = ? AND item_id = ?",
		normalizeKey(source), itemID,
	)
	if err != nil {
		return fmt.Errorf("%w: delete failed_downloads: %w", ErrStore, err)
	}
	return nil
}

// List returns all completion records ordered by completion time.
func (s *Store) List(ctx context.Context) ([]CompletionRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT source, item_id, completed_at, final_path_hash FROM completed ORDER BY completed_at",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query completed: %w", ErrStore, err)
	}
	defer rows.Close()

	var records []CompletionRecord
	for rows.Next() {
		var rec CompletionRecord
		var completedAt string
		if err := rows.Scan(&rec.Source, &rec.ID, &completedAt, &rec.FinalPathHash); err != nil {
			return nil, fmt.Errorf("%w: scan completed row: %w", ErrStore, err)
		}
		rec.CompletedAt = parseTimestamp(completedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate completed rows: %w", ErrStore, err)
	}
	return records, nil
}

// ListFailed returns the failure ledger ordered by failure time.
func (s *Store) ListFailed(ctx context.Context) ([]FailedRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT source, kind, item_id, reason, failed_at FROM failed_downloads ORDER BY failed_at",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed_downloads: %w", ErrStore, err)
	}
	defer rows.Close()

	var records []FailedRecord
	for rows.Next() {
		var rec FailedRecord
		var failedAt string
		if err := rows.Scan(&rec.Source, &rec.Kind, &rec.ID, &rec.Reason, &failedAt); err != nil {
			return nil, fmt.Errorf("%w: scan failed row: %w", ErrStore, err)
		}
		rec.FailedAt = parseTimestamp(failedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate failed rows: %w", ErrStore, err)
	}
	return records, nil
}

// Purge deletes all completion and failure records and reports how many
// completion records were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM completed")
	if err != nil {
		return 0, fmt.Errorf("%w: purge completed: %w", ErrStore, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %w", ErrStore, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM failed_downloads"); err != nil {
		return removed, fmt.Errorf("%w: purge failed_downloads: %w", ErrStore, err)
	}
	return removed, nil
}

func normalizeKey(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
