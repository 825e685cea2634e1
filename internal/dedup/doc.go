// Package dedup persists completion records so items already fetched are
// skipped on later runs. It also keeps a ledger of failed items for
// inspection and targeted retries. Storage is SQLite, guarded by a file lock
// so two processes never share the database.
package dedup
