package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"VolPosture/pkg/logger"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Task is one background batch run.
type Task struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Symbols    []string   `json:"symbols,omitempty"`
	Status     Status     `json:"status"`
	Total      int        `json:"total"`
	Completed  int        `json:"completed"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Manager tracks background tasks in process memory and fans progress
// snapshots out to subscribers. Tasks do not survive a restart; the
// batch itself is replayable from the caller's side.
type Manager struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	subs  map[string][]chan Task
	log   *logger.Logger
	now   func() time.Time
}

func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		tasks: make(map[string]*Task),
		subs:  make(map[string][]chan Task),
		log:   log,
		now:   time.Now,
	}
}

// Create registers a pending task and returns its id.
func (m *Manager) Create(taskType string, symbols []string, total int) *Task {
	t := &Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		Symbols:   symbols,
		Status:    StatusPending,
		Total:     total,
		CreatedAt: m.now(),
	}
	m.mu.Lock()
	m.tasks[t.ID] = t
	m.mu.Unlock()
	return snapshotPtr(t)
}

// Run executes fn on its own goroutine. The task context is detached
// from the request so a closed connection does not abort the batch.
func (m *Manager) Run(id string, fn func(ctx context.Context, progress func(done, total int)) (any, error)) {
	go func() {
		ctx := context.Background()
		m.transition(id, func(t *Task) {
			now := m.now()
			t.Status = StatusRunning
			t.StartedAt = &now
		})

		result, err := fn(ctx, func(done, total int) {
			m.transition(id, func(t *Task) {
				t.Completed = done
				t.Total = total
			})
		})

		m.transition(id, func(t *Task) {
			now := m.now()
			t.FinishedAt = &now
			if err != nil {
				t.Status = StatusFailed
				t.Error = err.Error()
				return
			}
			t.Status = StatusCompleted
			t.Result = result
		})
		if err != nil {
			m.log.Warn("background task failed", logger.String("task_id", id), logger.Error(err))
		}
		m.closeSubs(id)
	}()
}

// Get returns a copy of the task, or nil when unknown.
func (m *Manager) Get(id string) *Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	return snapshotPtr(t)
}

// List returns copies of all known tasks, newest first.
func (m *Manager) List() []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, *snapshotPtr(t))
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Subscribe returns a channel of task snapshots, closed when the task
// finishes. The second return is false for unknown task ids.
func (m *Manager) Subscribe(id string) (<-chan Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	ch := make(chan Task, 16)
	ch <- *snapshotPtr(t)
	if t.Status == StatusCompleted || t.Status == StatusFailed {
		close(ch)
		return ch, true
	}
	m.subs[id] = append(m.subs[id], ch)
	return ch, true
}

func (m *Manager) transition(id string, mutate func(*Task)) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	mutate(t)
	snap := *snapshotPtr(t)
	subs := m.subs[id]
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default: // slow subscriber, skip this snapshot
		}
	}
}

func (m *Manager) closeSubs(id string) {
	m.mu.Lock()
	subs := m.subs[id]
	delete(m.subs, id)
	m.mu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
}

func snapshotPtr(t *Task) *Task {
	c := *t
	if t.Symbols != nil {
		c.Symbols = append([]string(nil), t.Symbols...)
	}
	return &c
}
