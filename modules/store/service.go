package store

import (
	"context"
	"errors"
	"time"

	"github.com/emersxw/taskscape/domain/task"
	"github.com/emersxw/taskscape/events"
	"github.com/go-monolith/mono"
)

// loadTasks handles the load-tasks service request.
// Read failures are logged and answered with an empty collection.
func (m *StoreModule) loadTasks(ctx context.Context, _ LoadTasksRequest, _ *mono.Msg) (LoadTasksResponse, error) {
	m.mu.Lock()
	ts := m.tasks
	m.mu.Unlock()
	if ts == nil {
		return LoadTasksResponse{}, ErrNotStarted
	}

	tasks, err := ts.Load(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to load tasks, starting with an empty collection")
		return LoadTasksResponse{Tasks: []task.Task{}, Recovered: true}, nil
	}

	m.logger.Info("Loaded tasks", "count", len(tasks))
	return LoadTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// saveTasks handles the save-tasks service request.
// Write failures are reported in the response, never as a service error.
func (m *StoreModule) saveTasks(ctx context.Context, req SaveTasksRequest, _ *mono.Msg) (SaveTasksResponse, error) {
	saved, skipped, err := m.write(ctx, req.Version, req.Tasks)
	if errors.Is(err, ErrNotStarted) {
		return SaveTasksResponse{}, err
	}

	resp := SaveTasksResponse{Saved: saved, Skipped: skipped}
	if err != nil {
		resp.Error = err.Error()
	}
	m.publishPersisted(req.Version, saved, skipped, err)
	return resp, nil
}

// handleTasksChanged writes the snapshot carried by a TasksChanged event.
func (m *StoreModule) handleTasksChanged(ctx context.Context, event events.TasksChangedEvent, _ *mono.Msg) error {
	saved, skipped, err := m.write(ctx, event.Version, event.Tasks)
	if errors.Is(err, ErrNotStarted) {
		m.logger.Warn("Dropping snapshot, store not started", "version", event.Version)
		return nil
	}

	m.publishPersisted(event.Version, saved, skipped, err)
	return nil
}

// WriteSnapshot writes tasks at version without going through the event bus.
// A snapshot older than the last one written is ignored.
func (m *StoreModule) WriteSnapshot(ctx context.Context, version uint64, tasks []task.Task) error {
	_, _, err := m.write(ctx, version, tasks)
	return err
}

// write saves tasks unless a snapshot with the same or a newer version has already
// been written. Version 0 is unversioned and always written.
// The write outlives ctx: snapshots still in flight at shutdown must reach the disk.
// A failed snapshot is kept and retried by Stop.
func (m *StoreModule) write(ctx context.Context, version uint64, tasks []task.Task) (saved, skipped bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tasks == nil {
		return false, false, ErrNotStarted
	}

	if version != 0 && version <= m.lastVersion {
		m.logger.Debug("Skipping stale snapshot", "version", version, "last_version", m.lastVersion)
		return false, true, nil
	}

	if err := m.tasks.Save(context.WithoutCancel(ctx), tasks); err != nil {
		m.logger.WithError(err).Error("Failed to save tasks", "version", version, "count", len(tasks))
		if m.pending == nil || version >= m.pending.version {
			m.pending = &pendingWrite{version: version, tasks: tasks}
		}
		return false, false, err
	}

	if version > m.lastVersion {
		m.lastVersion = version
	}
	if m.pending != nil && (version == 0 || m.pending.version <= version) {
		m.pending = nil
	}
	m.logger.Debug("Saved tasks", "version", version, "count", len(tasks))
	return true, false, nil
}

// publishPersisted reports the outcome of a write on the event bus.
func (m *StoreModule) publishPersisted(version uint64, saved, skipped bool, writeErr error) {
	if m.eventBus == nil {
		return
	}

	event := events.TasksPersistedEvent{
		Version:     version,
		Success:     saved,
		Skipped:     skipped,
		PersistedAt: time.Now(),
	}
	if writeErr != nil {
		event.Error = writeErr.Error()
	}

	if err := events.TasksPersistedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.WithError(err).Warn("Failed to publish TasksPersisted event", "version", version)
	}
}
