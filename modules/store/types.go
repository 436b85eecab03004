package store

import (
	"context"

	"github.com/emersxw/taskscape/domain/task"
)

// LoadTasksRequest is the request for loading the stored collection.
type LoadTasksRequest struct{}

// LoadTasksResponse is the response for loading the stored collection.
// Recovered is set when the stored value could not be read and an empty
// collection was substituted.
type LoadTasksResponse struct {
	Tasks     []task.Task `json:"tasks"`
	Total     int         `json:"total"`
	Recovered bool        `json:"recovered,omitempty"`
}

// SaveTasksRequest is the request for a synchronous write of the collection.
type SaveTasksRequest struct {
	Version uint64      `json:"version"`
	Tasks   []task.Task `json:"tasks"`
}

// SaveTasksResponse is the response for a synchronous write.
type SaveTasksResponse struct {
	Saved   bool   `json:"saved"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StorePort defines the interface other modules use to reach the Persistent Store.
type StorePort interface {
	LoadTasks(ctx context.Context) (*LoadTasksResponse, error)
	SaveTasks(ctx context.Context, req *SaveTasksRequest) (*SaveTasksResponse, error)
}
