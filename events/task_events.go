package events

import (
	"time"

	"github.com/emersxw/taskscape/domain/task"
	"github.com/go-monolith/mono/pkg/helper"
)

// TasksChangedEvent carries the full collection after a mutation.
// Version increases by one per mutation so consumers can drop stale snapshots.
type TasksChangedEvent struct {
	Version   uint64      `json:"version"`
	Tasks     []task.Task `json:"tasks"`
	ChangedAt time.Time   `json:"changed_at"`
}

// TasksChangedV1 is the typed event definition for collection changes.
// Subject: events.task.v1.tasks-changed
var TasksChangedV1 = helper.EventDefinition[TasksChangedEvent](
	"task", "TasksChanged", "v1",
)

// TasksPersistedEvent reports the outcome of one write of the collection.
type TasksPersistedEvent struct {
	Version     uint64    `json:"version"`
	Success     bool      `json:"success"`
	Skipped     bool      `json:"skipped,omitempty"`
	Error       string    `json:"error,omitempty"`
	PersistedAt time.Time `json:"persisted_at"`
}

// TasksPersistedV1 is the typed event definition for store write results.
// Subject: events.store.v1.tasks-persisted
var TasksPersistedV1 = helper.EventDefinition[TasksPersistedEvent](
	"store", "TasksPersisted", "v1",
)
