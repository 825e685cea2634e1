package source

import (
	"context"
	"io"
)

// Stream is an open byte stream for one item. Length is the expected size in
// bytes, or -1 when the provider does not report one.
type Stream struct {
	Body      io.ReadCloser
	Length    int64
	Extension string
}

// Client is the capability set the pipeline needs from one content source.
// Implementations handle their own sessions and request shapes.
type Client interface {
	// Source returns the stable lowercase source name, e.g. "qobuz".
	Source() string

	// Resolve expands caller input (URL or bare identifier) into one or more
	// item descriptors. A collection identifier yields a descriptor per
	// member with Position and Parent populated.
	Resolve(ctx context.Context, urlOrID string) ([]ItemDescriptor, error)

	// OpenStream opens the byte stream for a descriptor at its target
	// quality. Callers own the returned body and must close it.
	OpenStream(ctx context.Context, d ItemDescriptor) (*Stream, error)
}
