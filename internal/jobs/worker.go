package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

var (
	// ErrQueueFull is returned by Submit when every slot is taken.
	ErrQueueFull = errors.New("jobs: queue is full")
	// ErrStopped is returned by Submit once the worker is stopping.
	ErrStopped = errors.New("jobs: worker stopped")
	// ErrInvalidTask is returned for tasks without a run function.
	ErrInvalidTask = errors.New("jobs: task has no run function")
)

// Task is one unit of background work.
type Task struct {
	ID       string
	Kind     string
	Metadata map[string]any
	Run      func(ctx context.Context) error
}

// Worker runs submitted tasks on a fixed number of goroutines fed by a
// bounded queue.
type Worker struct {
	queue    chan Task
	workers  int
	timeout  time.Duration
	audit    AuditRecorder
	logger   interfaces.Logger
	now      func() time.Time
	mu       sync.RWMutex
	stopped  bool
	started  bool
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	capacity int
}

// Option customises a Worker.
type Option func(*Worker)

// WithAuditRecorder records every finished task.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

// WithLogger sets the worker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithConcurrency sets the number of goroutines draining the queue.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithQueueSize bounds the number of waiting tasks.
func WithQueueSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.capacity = size
		}
	}
}

// WithTaskTimeout bounds the run time of each task.
func WithTaskTimeout(timeout time.Duration) Option {
	return func(w *Worker) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// NewWorker builds a worker. Start must be called before tasks run.
func NewWorker(opts ...Option) *Worker {
	w := &Worker{
		workers:  2,
		capacity: 64,
		timeout:  10 * time.Minute,
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.queue = make(chan Task, w.capacity)
	return w
}

// Start launches the worker goroutines. Tasks inherit values from ctx but
// are cancelled only by Stop.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(runCtx)
	}
}

// Submit enqueues task without blocking.
func (w *Worker) Submit(task Task) error {
	if task.Run == nil {
		return ErrInvalidTask
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- task:
		return nil
	default:
		w.logger.Warn("jobs.queue.full", "task_id", task.ID, "kind", task.Kind)
		return ErrQueueFull
	}
}

// Pending reports the number of queued tasks.
func (w *Worker) Pending() int {
	return len(w.queue)
}

// Stop refuses new tasks and waits for queued ones to finish. When ctx
// expires first the running tasks are cancelled.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.queue)
	started := w.started
	w.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return fmt.Errorf("jobs: stop: %w", ctx.Err())
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for task := range w.queue {
		w.run(ctx, task)
	}
}

func (w *Worker) run(ctx context.Context, task Task) {
	started := w.now()
	taskCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := safeRun(taskCtx, task)

	event := AuditEvent{
		TaskID:     task.ID,
		Kind:       task.Kind,
		Status:     StatusDone,
		OccurredAt: w.now(),
		Metadata:   task.Metadata,
	}
	event.Duration = event.OccurredAt.Sub(started)
	if err != nil {
		event.Status = StatusFailed
		event.Error = err.Error()
		w.logger.Error("jobs.task.failed", "task_id", task.ID, "kind", task.Kind, "error", err)
	} else {
		w.logger.Debug("jobs.task.done", "task_id", task.ID, "kind", task.Kind, "duration", event.Duration)
	}

	if w.audit != nil {
		if recErr := w.audit.Record(ctx, event); recErr != nil {
			w.logger.Warn("jobs.audit.failed", "task_id", task.ID, "error", recErr)
		}
	}
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jobs: task %s panicked: %v", task.ID, r)
		}
	}()
	return task.Run(ctx)
}
