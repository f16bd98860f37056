package tasks

import (
	"context"
	"time"
)

// Dispatcher enqueues a task envelope for later (or immediate) handling
// by the worker process. The cloud_tasks and inline implementations
// deduplicate by task_id: calling Enqueue twice with the same task_id
// is a no-op on the second call, across retries and process restarts
// for cloud_tasks (the queue rejects the duplicate name) and within
// process lifetime for inline. The http implementation does not: every
// Enqueue call POSTs the envelope, and the worker handlers do not
// record task ids.
type Dispatcher interface {
	// Enqueue schedules name/payload under taskID, optionally deferred
	// until at (zero Time means "as soon as possible"). urlPath is the
	// worker endpoint the http/cloud_tasks backends will POST to; the
	// inline backend ignores it.
	Enqueue(ctx context.Context, taskID string, name Name, payload any, urlPath string, at time.Time) error
}

// Clock is overridable for deterministic tests.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }
