package task

import (
	"strings"
	"time"
)

// Task is the core domain entity: a short piece of text the user wants to get done.
//
// Timestamps are milliseconds since the Unix epoch so the JSON form matches the
// persisted record layout exactly.
type Task struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CreatedAt   int64  `json:"createdAt"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
	Duration    *int64 `json:"duration,omitempty"` // milliseconds
}

// New creates an active task. The text is trimmed; ok is false when nothing is left.
func New(id, text string, now time.Time) (Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false
	}
	return Task{
		ID:        id,
		Text:      text,
		CreatedAt: now.UnixMilli(),
	}, true
}

// Complete marks the task completed at now and records the elapsed time since creation.
func (t Task) Complete(now time.Time) Task {
	at := now.UnixMilli()
	elapsed := at - t.CreatedAt
	t.Completed = true
	t.CompletedAt = &at
	t.Duration = &elapsed
	return t
}

// Reopen moves the task back to active and clears the completion fields.
func (t Task) Reopen() Task {
	t.Completed = false
	t.CompletedAt = nil
	t.Duration = nil
	return t
}

// Toggle flips the completion state.
func (t Task) Toggle(now time.Time) Task {
	if t.Completed {
		return t.Reopen()
	}
	return t.Complete(now)
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	if t.Duration != nil {
		d := *t.Duration
		t.Duration = &d
	}
	return t
}

// CloneAll deep-copies a slice of tasks.
func CloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
