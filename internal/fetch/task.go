package fetch

import (
	"time"

	"ripple/internal/source"
)

// Status tracks a task through its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInFlight   Status = "in_flight"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Task is one item moving through the fetch pipeline. The zero Attempt means
// the first try has not started yet; NotBefore delays re-dispatch after a
// transient failure.
type Task struct {
	Descriptor source.ItemDescriptor
	Status     Status
	Attempt    int
	NotBefore  time.Time
	StagedPath string
	LastErr    error
}

// NewTask builds a pending task for a descriptor.
func NewTask(d source.ItemDescriptor) *Task {
	return &Task{Descriptor: d, Status: StatusPending}
}

// Result reports the outcome of a single download attempt. ContentHash is
// the SHA256 of the staged bytes.
type Result struct {
	Task        *Task
	StagedPath  string
	Bytes       int64
	ContentHash string
	Err         error
}
