package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/selahlabs/selah/internal/logger"
)

// BatchState is the run state of a batch job.
type BatchState string

const (
	BatchStateIdle      BatchState = "idle"
	BatchStateRunning   BatchState = "running"
	BatchStatePaused    BatchState = "paused"
	BatchStateCancelled BatchState = "cancelled"
	BatchStateCompleted BatchState = "completed"
)

// ErrBatchTooLarge is returned when a submission exceeds the configured batch
// size bound. Oversized batches are rejected outright, never truncated.
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// ErrBatchEmpty is returned when a submission contains no requests.
var ErrBatchEmpty = errors.New("batch contains no requests")

// BatchJob is one ordered batch of generation requests with its parallel
// per-item results. It is mutated only by the orchestrator goroutine; pause,
// resume, and cancel are cooperative flags observed at the loop's
// checkpoints.
type BatchJob struct {
	ID string

	mu        sync.RWMutex
	requests  []GenerationRequest
	results   []*PipelineResult
	state     BatchState
	current   int // index of the running item, -1 when none
	completed int
	createdAt time.Time
}

func newBatchJob(requests []GenerationRequest) *BatchJob {
	results := make([]*PipelineResult, len(requests))
	for i, req := range requests {
		results[i] = NewPipelineResult(req)
	}
	return &BatchJob{
		ID:        uuid.New().String(),
		requests:  requests,
		results:   results,
		state:     BatchStateIdle,
		current:   -1,
		createdAt: time.Now(),
	}
}

// State returns the current run state.
func (j *BatchJob) State() BatchState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Pause requests that the orchestrator hold before starting the next item.
// The in-flight item is allowed to finish.
func (j *BatchJob) Pause() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == BatchStateRunning {
		j.state = BatchStatePaused
	}
}

// Resume releases a paused batch.
func (j *BatchJob) Resume() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == BatchStatePaused {
		j.state = BatchStateRunning
	}
}

// Cancel stops the batch before the next item. Completed items keep their
// final statuses; not-yet-started items stay pending and are never started.
func (j *BatchJob) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != BatchStateCompleted && j.state != BatchStateCancelled {
		j.state = BatchStateCancelled
	}
}

func (j *BatchJob) setState(from, to BatchState) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != from {
		return false
	}
	j.state = to
	return true
}

func (j *BatchJob) setCurrent(idx int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.current = idx
}

func (j *BatchJob) markAttempted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.completed++
	j.current = -1
}

// finish moves a non-cancelled batch to completed.
func (j *BatchJob) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.current = -1
	if j.state != BatchStateCancelled {
		j.state = BatchStateCompleted
	}
}

// BatchProgress is a point-in-time snapshot of a batch job.
type BatchProgress struct {
	ID           string       `json:"id"`
	State        BatchState   `json:"state"`
	Total        int          `json:"total"`
	Completed    int          `json:"completed"`
	CurrentIndex int          `json:"current_index"` // -1 when no item is running
	Items        []ResultView `json:"items"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Progress returns a snapshot of the batch: completed count, the index of the
// running item, and the full per-step status table for every item.
func (j *BatchJob) Progress() BatchProgress {
	j.mu.RLock()
	state := j.state
	current := j.current
	completed := j.completed
	createdAt := j.createdAt
	results := make([]*PipelineResult, len(j.results))
	copy(results, j.results)
	j.mu.RUnlock()

	items := make([]ResultView, len(results))
	for i, r := range results {
		items[i] = r.Snapshot()
	}

	return BatchProgress{
		ID:           j.ID,
		State:        state,
		Total:        len(results),
		Completed:    completed,
		CurrentIndex: current,
		Items:        items,
		CreatedAt:    createdAt,
	}
}

// ItemRunner executes one pipeline run against a caller-owned result.
type ItemRunner interface {
	Run(ctx context.Context, req GenerationRequest, res *PipelineResult)
}

// OrchestratorConfig holds batch orchestration settings.
type OrchestratorConfig struct {
	MaxBatchSize      int
	ItemDelay         time.Duration // throttle applied between items
	PausePollInterval time.Duration // bounded sleep while paused
}

// Orchestrator drives batches of item pipelines strictly sequentially, with
// cooperative pause/resume/cancel and inter-item throttling.
type Orchestrator struct {
	pipeline     ItemRunner
	maxBatchSize int
	itemDelay    time.Duration
	pollInterval time.Duration
}

// NewOrchestrator creates a batch Orchestrator.
func NewOrchestrator(pipeline ItemRunner, cfg *OrchestratorConfig) *Orchestrator {
	maxSize := cfg.MaxBatchSize
	if maxSize <= 0 {
		maxSize = 30
	}
	poll := cfg.PausePollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &Orchestrator{
		pipeline:     pipeline,
		maxBatchSize: maxSize,
		itemDelay:    cfg.ItemDelay,
		pollInterval: poll,
	}
}

// NewJob validates a submission and creates an idle BatchJob with every item
// pending.
func (o *Orchestrator) NewJob(requests []GenerationRequest) (*BatchJob, error) {
	if len(requests) == 0 {
		return nil, ErrBatchEmpty
	}
	if len(requests) > o.maxBatchSize {
		return nil, fmt.Errorf("%w: %d requests, limit %d", ErrBatchTooLarge, len(requests), o.maxBatchSize)
	}
	return newBatchJob(requests), nil
}

// Run processes the job's items in order until exhaustion or cancellation.
// One item's error never stops the batch. Pause and cancel are observed only
// between items; an in-flight item's external calls are allowed to finish.
func (o *Orchestrator) Run(ctx context.Context, job *BatchJob) {
	if !job.setState(BatchStateIdle, BatchStateRunning) {
		return
	}

	ctx = logger.SetBatchID(ctx, job.ID)
	logger.FromContext(ctx).WithFields(logger.Fields{
		"total": len(job.requests),
	}).Info("Batch started")

	for i, req := range job.requests {
		if !o.waitUntilRunnable(ctx, job) {
			break
		}

		itemCtx := logger.WithField(ctx, logger.FieldItemIndex, i)
		job.setCurrent(i)

		start := time.Now()
		o.pipeline.Run(itemCtx, req, job.results[i])
		job.markAttempted()

		logger.With(logger.Fields{
			logger.FieldStatus:     string(job.results[i].Status()),
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
		}).Info(itemCtx, "Batch item finished: %q", req.Title)

		// Throttle before the next item to avoid overloading the
		// generation backends, then re-check cancellation.
		if i < len(job.requests)-1 && o.itemDelay > 0 {
			if !sleepContext(ctx, o.itemDelay) {
				job.Cancel()
				break
			}
		}
	}

	job.finish()

	progress := job.Progress()
	logger.With(logger.Fields{
		logger.FieldStatus: string(progress.State),
		logger.FieldCount:  progress.Completed,
	}).Info(ctx, "Batch finished")
}

// waitUntilRunnable blocks while the job is paused, polling at a bounded
// interval, and reports whether the next item may start.
func (o *Orchestrator) waitUntilRunnable(ctx context.Context, job *BatchJob) bool {
	for {
		switch job.State() {
		case BatchStateRunning:
			return true
		case BatchStatePaused:
			if !sleepContext(ctx, o.pollInterval) {
				job.Cancel()
				return false
			}
		default:
			return false
		}
	}
}

// sleepContext sleeps for d, returning false if ctx was cancelled first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
