// Package ratelimit throttles outbound requests per source. Each source gets
// a Gate combining a concurrency ceiling with a minimum inter-request
// interval, so a burst of queued items drains at the pace the provider
// tolerates instead of all at once.
package ratelimit
