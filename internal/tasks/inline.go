package tasks

import (
	"context"
	"sync"
	"time"
)

// ScheduledTask is what the inline backend records for later inspection
// by tests, mirroring the teacher's in-process "_scheduled_tasks" list.
type ScheduledTask struct {
	TaskID   string
	TaskName Name
	Envelope Envelope
	URLPath  string
	At       time.Time
}

// InlineDispatcher records enqueues in memory and never performs I/O.
// It is the default backend for tests and local development: each new
// task_id is recorded in Scheduled and Enqueue returns success.
type InlineDispatcher struct {
	mu        sync.Mutex
	seen      map[string]bool
	Scheduled []ScheduledTask
}

// NewInlineDispatcher builds an empty InlineDispatcher.
func NewInlineDispatcher() *InlineDispatcher {
	return &InlineDispatcher{seen: make(map[string]bool)}
}

func (d *InlineDispatcher) Enqueue(ctx context.Context, taskID string, name Name, payload any, urlPath string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen[taskID] {
		return nil
	}
	env, err := BuildEnvelope(taskID, name, payload)
	if err != nil {
		return err
	}
	d.seen[taskID] = true
	d.Scheduled = append(d.Scheduled, ScheduledTask{
		TaskID:   taskID,
		TaskName: name,
		Envelope: env,
		URLPath:  urlPath,
		At:       at,
	})
	return nil
}

// WasEnqueued reports whether taskID has already been recorded, letting
// tests assert "exactly one enqueue" per spec §8.
func (d *InlineDispatcher) WasEnqueued(taskID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[taskID]
}
