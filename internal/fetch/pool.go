package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ripple/internal/logging"
	"ripple/internal/ratelimit"
	"ripple/internal/source"
)

// Pool runs download attempts across a fixed set of workers. Each task
// received on the task channel gets exactly one attempt; the outcome is
// reported on the result channel, and the caller decides whether to
// re-dispatch.
type Pool struct {
	clients      *source.Registry
	gates        *ratelimit.Registry
	stagingDir   string
	verifyLength bool
	workers      int
	logger       *slog.Logger
}

// NewPool builds a Pool. workers below 1 is clamped to 1.
func NewPool(clients *source.Registry, gates *ratelimit.Registry, stagingDir string, verifyLength bool, workers int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pool{
		clients:      clients,
		gates:        gates,
		stagingDir:   stagingDir,
		verifyLength: verifyLength,
		workers:      workers,
		logger:       logging.NewComponentLogger(logger, "fetch"),
	}
}

// Run consumes tasks until the channel closes or the context is cancelled,
// then returns after all workers drain. Results are delivered on results;
// Run never closes it.
func (p *Pool) Run(ctx context.Context, tasks <-chan *Task, results chan<- Result) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-tasks:
					if !ok {
						return
					}
					result := p.attempt(ctx, task)
					select {
					case results <- result:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func (p *Pool) attempt(ctx context.Context, task *Task) Result {
	task.Status = StatusInFlight
	task.Attempt++
	d := task.Descriptor

	logger := p.logger.With(
		logging.String(logging.FieldSource, d.Source),
		logging.String(logging.FieldItemID, d.ID),
		logging.Int(logging.FieldAttempt, task.Attempt),
	)

	client, ok := p.clients.Lookup(d.Source)
	if !ok {
		err := source.Wrap(source.ErrNotFound, d.Source, "fetch", "no client registered", nil)
		return Result{Task: task, Err: err}
	}

	release, err := p.gates.Gate(d.Source).Acquire(ctx)
	if err != nil {
		return Result{Task: task, Err: fmt.Errorf("await admission: %w", err)}
	}
	defer release()

	logger.Debug("starting download attempt")

	stream, err := client.OpenStream(ctx, d)
	if err != nil {
		return Result{Task: task, Err: err}
	}
	defer stream.Body.Close()

	path, written, contentHash, err := StageStream(p.stagingDir, d, stream, p.verifyLength)
	if err != nil {
		return Result{Task: task, Err: err}
	}

	logger.Debug("download attempt complete",
		logging.Int64("bytes", written),
		logging.String("sha256", contentHash),
	)
	return Result{Task: task, StagedPath: path, Bytes: written, ContentHash: contentHash}
}
