// Package fetch downloads item payloads into the staging area. A Pool of
// workers performs one download attempt per dispatched task; retry timing and
// requeueing stay with the caller, which owns the task lifecycle.
package fetch
