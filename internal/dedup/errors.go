package dedup

import "errors"

// ErrStore marks a failure of the completion store itself. Unlike per-item
// fetch errors, a store failure is fatal to the run: continuing would risk
// re-downloading completed items or losing completion records.
var ErrStore = errors.New("dedup store failure")

// ErrLocked indicates another process holds the database lock.
var ErrLocked = errors.New("dedup store is locked by another process")
