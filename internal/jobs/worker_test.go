package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-docbot/internal/jobs"
)

func TestWorkerRunsTasksAndRecordsAudit(t *testing.T) {
	audit := jobs.NewInMemoryAuditRecorder(0)
	worker := jobs.NewWorker(jobs.WithAuditRecorder(audit), jobs.WithConcurrency(2))
	worker.Start(context.Background())

	var mu sync.Mutex
	ran := map[string]bool{}
	for _, id := range []string{"a", "b", "c"} {
		id := id
		err := worker.Submit(jobs.Task{ID: id, Kind: "push", Run: func(context.Context) error {
			mu.Lock()
			ran[id] = true
			mu.Unlock()
			if id == "b" {
				return errors.New("boom")
			}
			return nil
		}})
		if err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}

	if err := worker.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(ran) != 3 {
		t.Fatalf("expected every queued task to run before stop returns, got %v", ran)
	}

	events := audit.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 audit events, got %d", len(events))
	}
	failed := 0
	for _, event := range events {
		if event.Status == jobs.StatusFailed {
			failed++
			if event.TaskID != "b" || event.Error != "boom" {
				t.Fatalf("unexpected failure event %+v", event)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected one failure, got %d", failed)
	}
}

func TestWorkerRejectsWhenFull(t *testing.T) {
	worker := jobs.NewWorker(jobs.WithQueueSize(1))
	noop := func(context.Context) error { return nil }

	if err := worker.Submit(jobs.Task{ID: "1", Run: noop}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := worker.Submit(jobs.Task{ID: "2", Run: noop}); !errors.Is(err, jobs.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if err := worker.Submit(jobs.Task{ID: "3"}); !errors.Is(err, jobs.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
	if worker.Pending() != 1 {
		t.Fatalf("expected one pending task, got %d", worker.Pending())
	}

	if err := worker.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := worker.Submit(jobs.Task{ID: "4", Run: noop}); !errors.Is(err, jobs.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestWorkerRecoversPanicsAndAppliesTimeout(t *testing.T) {
	audit := jobs.NewInMemoryAuditRecorder(0)
	worker := jobs.NewWorker(
		jobs.WithAuditRecorder(audit),
		jobs.WithConcurrency(1),
		jobs.WithTaskTimeout(10*time.Millisecond),
	)
	worker.Start(context.Background())

	_ = worker.Submit(jobs.Task{ID: "panic", Run: func(context.Context) error { panic("bad") }})
	_ = worker.Submit(jobs.Task{ID: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	if err := worker.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	events := audit.Events()
	if len(events) != 2 || events[0].Status != jobs.StatusFailed || events[1].Status != jobs.StatusFailed {
		t.Fatalf("expected two failures, got %+v", events)
	}
}

func TestStopHonorsDeadline(t *testing.T) {
	worker := jobs.NewWorker(jobs.WithConcurrency(1))
	worker.Start(context.Background())
	release := make(chan struct{})
	_ = worker.Submit(jobs.Task{ID: "block", Run: func(ctx context.Context) error {
		select {
		case <-ctx.Done():
		case <-release:
		}
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := worker.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestAuditRecorderLimit(t *testing.T) {
	audit := jobs.NewInMemoryAuditRecorder(2)
	for _, id := range []string{"1", "2", "3"} {
		_ = audit.Record(context.Background(), jobs.AuditEvent{TaskID: id})
	}
	events := audit.Events()
	if len(events) != 2 || events[0].TaskID != "2" {
		t.Fatalf("expected newest two events, got %+v", events)
	}
	audit.Fail(errors.New("disk"))
	if err := audit.Record(context.Background(), jobs.AuditEvent{}); err == nil {
		t.Fatalf("expected configured failure")
	}
}
