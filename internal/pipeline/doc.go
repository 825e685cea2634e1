// Package pipeline orchestrates a download run: deduplication against the
// completion store, rate-limited fetching with retries, optional conversion,
// and final placement in the library. One Run processes a batch of item
// descriptors to a terminal state and reports the tally.
package pipeline
