package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/emersxw/taskscape/domain/task"
)

// TasksKey is the fixed key the whole collection is stored under.
const TasksKey = "@todos"

// TaskStore keeps the task collection as a single JSON array in a KV.
type TaskStore struct {
	kv  *KV
	key string
}

// NewTaskStore creates a TaskStore writing under TasksKey.
func NewTaskStore(kv *KV) *TaskStore {
	return &TaskStore{kv: kv, key: TasksKey}
}

// Save serializes the full collection and overwrites the stored value.
func (s *TaskStore) Save(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal tasks: %w", ErrStorageWrite, err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

// Load returns the stored collection. A missing value is an empty collection.
// An unreadable or corrupt value also yields an empty collection, together with an
// ErrStorageRead error the caller is expected to log and otherwise ignore.
func (s *TaskStore) Load(ctx context.Context) ([]task.Task, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []task.Task{}, nil
		}
		return []task.Task{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if data == "" {
		return []task.Task{}, nil
	}

	var tasks []task.Task
	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		return []task.Task{}, fmt.Errorf("%w: failed to unmarshal tasks: %w", ErrStorageRead, err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}
