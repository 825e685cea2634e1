package fetch

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"ripple/internal/ratelimit"
	"ripple/internal/source"
)

// fakeClient serves canned payloads and can fail a configurable number of
// times before succeeding.
type fakeClient struct {
	name     string
	payload  string
	failures atomic.Int32
	failErr  error
	attempts atomic.Int32
}

func (c *fakeClient) Source() string { return c.name }

func (c *fakeClient) Resolve(ctx context.Context, urlOrID string) ([]source.ItemDescriptor, error) {
	return nil, source.Wrap(source.ErrNotFound, c.name, "resolve", "not supported", nil)
}

func (c *fakeClient) OpenStream(ctx context.Context, d source.ItemDescriptor) (*source.Stream, error) {
	c.attempts.Add(1)
	if c.failures.Load() > 0 {
		c.failures.Add(-1)
		err := c.failErr
		if err == nil {
			err = source.Wrap(source.ErrTransient, c.name, "open stream", "simulated outage", nil)
		}
		return nil, err
	}
	return &source.Stream{
		Body:   io.NopCloser(strings.NewReader(c.payload)),
		Length: int64(len(c.payload)),
	}, nil
}

func newTestPool(t *testing.T, client *fakeClient, workers int) *Pool {
	t.Helper()
	clients := source.NewRegistry()
	if err := clients.Register(client); err != nil {
		t.Fatalf("register client: %v", err)
	}
	gates := ratelimit.NewRegistry(func(string) ratelimit.Limits {
		return ratelimit.Limits{}
	})
	return NewPool(clients, gates, t.TempDir(), true, workers, nil)
}

func runOne(t *testing.T, pool *Pool, task *Task) Result {
	t.Helper()
	tasks := make(chan *Task, 1)
	results := make(chan Result, 1)
	tasks <- task
	close(tasks)
	pool.Run(context.Background(), tasks, results)
	return <-results
}

func TestPoolStagesSuccessfulDownload(t *testing.T) {
	client := &fakeClient{name: "test", payload: "bytes"}
	pool := newTestPool(t, client, 2)

	task := NewTask(source.ItemDescriptor{Source: "test", ID: "x", Kind: source.KindTrack, Quality: source.QualityMax})
	result := runOne(t, pool, task)
	if result.Err != nil {
		t.Fatalf("attempt failed: %v", result.Err)
	}
	if result.StagedPath == "" {
		t.Fatal("expected staged path")
	}
	if result.Bytes != int64(len(client.payload)) {
		t.Fatalf("bytes = %d, want %d", result.Bytes, len(client.payload))
	}
	if task.Attempt != 1 {
		t.Fatalf("attempt counter = %d, want 1", task.Attempt)
	}
}

func TestPoolReportsFailureWithoutRetrying(t *testing.T) {
	client := &fakeClient{name: "test", payload: "bytes"}
	client.failures.Store(1)
	pool := newTestPool(t, client, 1)

	task := NewTask(source.ItemDescriptor{Source: "test", ID: "x", Kind: source.KindTrack, Quality: source.QualityMax})
	result := runOne(t, pool, task)
	if result.Err == nil {
		t.Fatal("expected attempt error")
	}
	if !source.Retryable(result.Err) {
		t.Fatalf("expected transient error, got %v", result.Err)
	}
	if got := client.attempts.Load(); got != 1 {
		t.Fatalf("client saw %d attempts, want 1 (retry is the caller's job)", got)
	}
}

func TestPoolRejectsUnknownSource(t *testing.T) {
	client := &fakeClient{name: "test"}
	pool := newTestPool(t, client, 1)

	task := NewTask(source.ItemDescriptor{Source: "other", ID: "x", Kind: source.KindTrack, Quality: source.QualityMax})
	result := runOne(t, pool, task)
	if !errors.Is(result.Err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown source, got %v", result.Err)
	}
}

func TestPoolStopsOnCancellation(t *testing.T) {
	client := &fakeClient{name: "test", payload: "bytes"}
	pool := newTestPool(t, client, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := make(chan *Task)
	results := make(chan Result, 1)
	pool.Run(ctx, tasks, results)

	select {
	case r := <-results:
		t.Fatalf("unexpected result after cancellation: %+v", r)
	default:
	}
}
