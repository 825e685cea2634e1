package dedup

import "time"

// CompletionRecord marks one item as fully fetched, converted, and placed.
// The (Source, ID) pair is the identity; FinalPathHash fingerprints where the
// item landed without storing the path itself.
type CompletionRecord struct {
	Source        string
	ID            string
	CompletedAt   time.Time
	FinalPathHash string
}

// FailedRecord captures an item that exhausted its retries or failed
// permanently, so a later run can report or retry it.
type FailedRecord struct {
	Source   string
	Kind     string
	ID       string
	Reason   string
	FailedAt time.Time
}
