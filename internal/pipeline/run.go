package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ripple/internal/convert"
	"ripple/internal/dedup"
	"ripple/internal/fetch"
	"ripple/internal/logging"
	"ripple/internal/source"
)

// completion reports the outcome of the convert-and-place phase for one task.
type completion struct {
	task      *fetch.Task
	finalPath string
	pathHash  string
	err       error
}

// Run processes a batch of descriptors to completion and returns the tally.
// Run returns an error only when the run itself cannot proceed: invalid
// input, a broken completion store, or cancellation. Per-item failures are
// reported in the result, not as an error.
func (o *Orchestrator) Run(ctx context.Context, items []source.ItemDescriptor) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{RunID: uuid.NewString()}
	logger := o.logger.With(logging.String(logging.FieldRunID, result.RunID))

	codec, convertEnabled, err := o.targetCodec()
	if err != nil {
		return nil, err
	}

	tasks, skipped, err := o.admit(ctx, items)
	if err != nil {
		return nil, err
	}
	result.SkippedDuplicates = skipped

	logger.Info("run starting",
		logging.Int("requested", len(items)),
		logging.Int("admitted", len(tasks)),
		logging.Int("skipped_duplicates", len(skipped)),
	)

	if len(tasks) == 0 {
		result.Elapsed = time.Since(started)
		return result, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := fetch.NewPool(
		o.clients,
		o.gates,
		o.cfg.Paths.StagingDir,
		o.cfg.Downloads.VerifyLength,
		o.cfg.Downloads.FetchWorkers,
		logger,
	)

	// The result and completion channels are buffered for the whole batch so
	// the pool and conversion goroutines never block on a busy dispatcher. A
	// task has at most one outstanding attempt, so len(tasks) bounds both.
	taskCh := make(chan *fetch.Task)
	resultCh := make(chan fetch.Result, len(tasks))
	completionCh := make(chan completion, len(tasks))

	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		pool.Run(runCtx, taskCh, resultCh)
	}()

	var group errgroup.Group
	workers := o.cfg.Conversion.Workers
	if workers < 1 {
		workers = 1
	}
	group.SetLimit(workers)

	pending := tasks
	remaining := len(tasks)
	var fatal error

	for remaining > 0 && fatal == nil {
		next, sendCh, wakeup := nextDispatch(pending, taskCh)

		select {
		case sendCh <- next:
			pending = removeTask(pending, next)

		case res := <-resultCh:
			var retry *fetch.Task
			retry, fatal = o.handleAttempt(runCtx, logger, &group, completionCh, res, codec, convertEnabled, result, &remaining)
			if retry != nil {
				pending = append(pending, retry)
			}

		case comp := <-completionCh:
			fatal = o.handleCompletion(runCtx, logger, comp, result, &remaining)

		case <-wakeup:
			// A delayed retry became eligible; loop and dispatch it.

		case <-runCtx.Done():
			fatal = runCtx.Err()
		}
	}

	close(taskCh)
	if fatal != nil {
		cancel()
	}
	<-poolDone
	_ = group.Wait()

	// Anything still in flight when the run aborted must not survive it:
	// staged files are deleted, and files placed but never recorded are
	// removed so the library and the completion store stay consistent.
	drainResults(resultCh)
	drainCompletions(completionCh)
	for _, task := range pending {
		removeStaged(task.StagedPath)
	}

	result.Elapsed = time.Since(started)
	if fatal != nil {
		return result, fatal
	}

	logger.Info("run complete",
		logging.Int("succeeded", len(result.Succeeded)),
		logging.Int("failed", len(result.Failed)),
		logging.Int("skipped_duplicates", len(result.SkippedDuplicates)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// admit validates descriptors, collapses duplicates within the batch, and
// drops items the completion store already has.
func (o *Orchestrator) admit(ctx context.Context, items []source.ItemDescriptor) ([]*fetch.Task, []string, error) {
	seen := make(map[string]struct{}, len(items))
	var tasks []*fetch.Task
	var skipped []string

	for _, d := range items {
		if err := d.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid item: %w", err)
		}
		if _, dup := seen[d.Key()]; dup {
			skipped = append(skipped, d.Key())
			continue
		}
		seen[d.Key()] = struct{}{}

		done, err := o.store.Contains(ctx, d.Source, d.ID)
		if err != nil {
			return nil, nil, err
		}
		if done {
			skipped = append(skipped, d.Key())
			continue
		}
		tasks = append(tasks, fetch.NewTask(d))
	}
	return tasks, skipped, nil
}

// nextDispatch picks the first task whose retry delay has elapsed. With no
// ready task it returns a nil send channel (blocks forever in select) and a
// wakeup timer for the earliest delayed task.
func nextDispatch(pending []*fetch.Task, taskCh chan *fetch.Task) (*fetch.Task, chan *fetch.Task, <-chan time.Time) {
	now := time.Now()
	var earliest time.Time
	for _, task := range pending {
		if !task.NotBefore.After(now) {
			return task, taskCh, nil
		}
		if earliest.IsZero() || task.NotBefore.Before(earliest) {
			earliest = task.NotBefore
		}
	}
	if earliest.IsZero() {
		return nil, nil, nil
	}
	return nil, nil, time.After(earliest.Sub(now))
}

func removeTask(tasks []*fetch.Task, target *fetch.Task) []*fetch.Task {
	for i, task := range tasks {
		if task == target {
			return append(tasks[:i], tasks[i+1:]...)
		}
	}
	return tasks
}

// handleAttempt processes one download attempt outcome. A transient failure
// with retries left comes back as a task to requeue; terminal outcomes update
// the tally. A successful fetch is handed to the conversion group.
func (o *Orchestrator) handleAttempt(
	ctx context.Context,
	logger *slog.Logger,
	group *errgroup.Group,
	completionCh chan<- completion,
	res fetch.Result,
	codec convert.Codec,
	convertEnabled bool,
	result *RunResult,
	remaining *int,
) (*fetch.Task, error) {
	task := res.Task
	d := task.Descriptor

	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) || ctx.Err() != nil {
			removeStaged(res.StagedPath)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, context.Canceled
		}
		task.LastErr = res.Err
		if !source.Permanent(res.Err) && source.Retryable(res.Err) && !o.policy.Exhausted(task.Attempt) {
			delay := o.policy.Delay(task.Attempt)
			task.Status = fetch.StatusPending
			task.NotBefore = time.Now().Add(delay)
			logger.Warn("download attempt failed, will retry",
				logging.String(logging.FieldSource, d.Source),
				logging.String(logging.FieldItemID, d.ID),
				logging.Int(logging.FieldAttempt, task.Attempt),
				logging.Duration("retry_in", delay),
				logging.Error(res.Err),
			)
			return task, nil
		}

		task.Status = fetch.StatusFailed
		*remaining--
		result.Failed = append(result.Failed, Failure{Source: d.Source, ID: d.ID, Reason: res.Err.Error()})
		logger.Warn("item failed",
			logging.String(logging.FieldSource, d.Source),
			logging.String(logging.FieldItemID, d.ID),
			logging.Int(logging.FieldAttempt, task.Attempt),
			logging.Error(res.Err),
		)
		if err := o.recordFailure(ctx, d, res.Err); err != nil {
			return nil, err
		}
		return nil, nil
	}

	task.StagedPath = res.StagedPath
	task.Status = fetch.StatusConverting
	group.Go(func() error {
		completionCh <- o.finishItem(ctx, task, codec, convertEnabled)
		return nil
	})
	return nil, nil
}

// finishItem converts (unless disabled or a no-op) and places one staged
// file. On any failure the staged file is removed so nothing partial
// survives the run.
func (o *Orchestrator) finishItem(ctx context.Context, task *fetch.Task, codec convert.Codec, convertEnabled bool) completion {
	d := task.Descriptor
	staged := task.StagedPath

	if err := ctx.Err(); err != nil {
		removeStaged(staged)
		return completion{task: task, err: err}
	}

	if convertEnabled && d.Kind == source.KindTrack && !codec.Identity(d.Extension) {
		converted, err := o.transcoder.Convert(ctx, codec, staged, o.conversionOptions())
		if err != nil {
			removeStaged(staged)
			return completion{task: task, err: err}
		}
		removeStaged(staged)
		staged = converted
	}

	finalPath, pathHash, err := o.organizer.Place(d, staged)
	if err != nil {
		removeStaged(staged)
		return completion{task: task, err: err}
	}
	return completion{task: task, finalPath: finalPath, pathHash: pathHash}
}

// handleCompletion finalizes one item: success is recorded in the completion
// store, failure lands in the failure ledger. A store failure is fatal.
func (o *Orchestrator) handleCompletion(
	ctx context.Context,
	logger *slog.Logger,
	comp completion,
	result *RunResult,
	remaining *int,
) error {
	task := comp.task
	d := task.Descriptor
	*remaining--

	if comp.err != nil {
		if errors.Is(comp.err, context.Canceled) || ctx.Err() != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			return context.Canceled
		}
		task.Status = fetch.StatusFailed
		result.Failed = append(result.Failed, Failure{Source: d.Source, ID: d.ID, Reason: comp.err.Error()})
		logger.Warn("item failed after download",
			logging.String(logging.FieldSource, d.Source),
			logging.String(logging.FieldItemID, d.ID),
			logging.Error(comp.err),
		)
		return o.recordFailure(ctx, d, comp.err)
	}

	record := dedup.CompletionRecord{
		Source:        d.Source,
		ID:            d.ID,
		CompletedAt:   time.Now().UTC(),
		FinalPathHash: comp.pathHash,
	}
	if err := o.store.Record(ctx, record); err != nil {
		return err
	}
	if err := o.store.ClearFailed(ctx, d.Source, d.ID); err != nil {
		return err
	}

	task.Status = fetch.StatusDone
	result.Succeeded = append(result.Succeeded, d.Key())
	logger.Info("item complete",
		logging.String(logging.FieldSource, d.Source),
		logging.String(logging.FieldItemID, d.ID),
		logging.String("path", comp.finalPath),
	)
	return nil
}

// recordFailure writes a failure ledger entry. Only a broken store is fatal;
// ledger writes during cancellation are skipped so an aborted run leaves no
// records.
func (o *Orchestrator) recordFailure(ctx context.Context, d source.ItemDescriptor, cause error) error {
	if errors.Is(cause, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	rec := dedup.FailedRecord{
		Source:   d.Source,
		Kind:     string(d.Kind),
		ID:       d.ID,
		Reason:   cause.Error(),
		FailedAt: time.Now().UTC(),
	}
	if err := o.store.RecordFailed(ctx, rec); err != nil {
		if errors.Is(err, dedup.ErrStore) {
			return err
		}
	}
	return nil
}

func drainResults(resultCh <-chan fetch.Result) {
	for {
		select {
		case res := <-resultCh:
			removeStaged(res.StagedPath)
		default:
			return
		}
	}
}

func drainCompletions(completionCh <-chan completion) {
	for {
		select {
		case comp := <-completionCh:
			if comp.err == nil {
				removeStaged(comp.finalPath)
			}
		default:
			return
		}
	}
}

func removeStaged(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
