package pipeline

import "time"

// Failure identifies one item that reached the failed state and why.
type Failure struct {
	Source string
	ID     string
	Reason string
}

// RunResult tallies a completed run. Identifiers are "source:id" keys; every
// requested item lands in exactly one bucket.
type RunResult struct {
	RunID             string
	Succeeded         []string
	Failed            []Failure
	SkippedDuplicates []string
	Elapsed           time.Duration
}

// Total returns the number of distinct items the run accounted for.
func (r *RunResult) Total() int {
	return len(r.Succeeded) + len(r.Failed) + len(r.SkippedDuplicates)
}
