package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"VolPosture/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func waitFor(t *testing.T, m *Manager, id string, want Status) *Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task := m.Get(id); task != nil && task.Status == want {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached %s", id, want)
	return nil
}

func TestTaskLifecycle(t *testing.T) {
	m := NewManager(testLogger(t))
	task := m.Create("analyze_batch", []string{"NVDA", "AMD"}, 2)
	if task.Status != StatusPending || task.ID == "" {
		t.Fatalf("created task = %+v", task)
	}

	m.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
		progress(1, 2)
		progress(2, 2)
		return "ok", nil
	})

	done := waitFor(t, m, task.ID, StatusCompleted)
	if done.Completed != 2 || done.Result != "ok" {
		t.Fatalf("final task = %+v", done)
	}
	if done.StartedAt == nil || done.FinishedAt == nil {
		t.Fatalf("timestamps missing: %+v", done)
	}
}

func TestTaskFailure(t *testing.T) {
	m := NewManager(testLogger(t))
	task := m.Create("analyze_batch", nil, 1)
	m.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
		return nil, fmt.Errorf("boom")
	})

	failed := waitFor(t, m, task.ID, StatusFailed)
	if failed.Error != "boom" {
		t.Fatalf("error = %q", failed.Error)
	}
}

func TestSubscribeStreamsUntilDone(t *testing.T) {
	m := NewManager(testLogger(t))
	task := m.Create("fetch_iv_terms", []string{"A"}, 1)

	ch, ok := m.Subscribe(task.ID)
	if !ok {
		t.Fatalf("subscribe failed")
	}

	m.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
		progress(1, 1)
		return nil, nil
	})

	var last Task
	for snap := range ch {
		last = snap
	}
	if last.Status != StatusCompleted && last.Status != StatusRunning {
		t.Fatalf("last snapshot = %+v", last)
	}
	// The channel closed, so the task is finished regardless of which
	// snapshot arrived last.
	if got := m.Get(task.ID); got.Status != StatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestSubscribeUnknownTask(t *testing.T) {
	m := NewManager(testLogger(t))
	if _, ok := m.Subscribe("nope"); ok {
		t.Fatalf("unknown task must not subscribe")
	}
	if m.Get("nope") != nil {
		t.Fatalf("unknown task must be nil")
	}
}

func TestSubscribeAfterCompletion(t *testing.T) {
	m := NewManager(testLogger(t))
	task := m.Create("analyze_batch", nil, 0)
	m.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
		return nil, nil
	})
	waitFor(t, m, task.ID, StatusCompleted)

	ch, ok := m.Subscribe(task.ID)
	if !ok {
		t.Fatalf("subscribe failed")
	}
	snap, open := <-ch
	if !open || snap.Status != StatusCompleted {
		t.Fatalf("snapshot = %+v open=%v", snap, open)
	}
	if _, open := <-ch; open {
		t.Fatalf("channel should close after the final snapshot")
	}
}
