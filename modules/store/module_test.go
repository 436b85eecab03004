package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersxw/taskscape/domain/task"
	"github.com/emersxw/taskscape/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestModule creates a started StoreModule on an in-memory database.
func newTestModule(t *testing.T) *StoreModule {
	t.Helper()
	m := NewModule(":memory:", false, &mockLogger{})
	require.NoError(t, m.attach(setupTestDB(t)))
	return m
}

func TestStoreModule_Name(t *testing.T) {
	assert.Equal(t, "store", NewModule("x.db", false, &mockLogger{}).Name())
}

func TestStoreModule_LoadTasks(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	resp, err := m.loadTasks(ctx, LoadTasksRequest{}, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Tasks)
	assert.False(t, resp.Recovered)

	require.NoError(t, m.tasks.Save(ctx, sampleTasks()))

	resp, err = m.loadTasks(ctx, LoadTasksRequest{}, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Tasks, 3)
	assert.Equal(t, 3, resp.Total)
}

func TestStoreModule_LoadTasksRecoversFromCorruptData(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	require.NoError(t, NewKV(m.db).Set(ctx, TasksKey, "garbage"))

	resp, err := m.loadTasks(ctx, LoadTasksRequest{}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Recovered)
	assert.NotNil(t, resp.Tasks)
	assert.Empty(t, resp.Tasks)
}

func TestStoreModule_HandleTasksChanged(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	tasks := sampleTasks()

	require.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{
		Version: 2, Tasks: tasks, ChangedAt: time.Now(),
	}, nil))

	stored, err := m.tasks.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	t.Run("stale snapshot is skipped", func(t *testing.T) {
		require.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{
			Version: 1, Tasks: tasks[:1],
		}, nil))

		stored, err := m.tasks.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, stored, 3)
	})

	t.Run("newer snapshot replaces", func(t *testing.T) {
		require.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{
			Version: 3, Tasks: []task.Task{},
		}, nil))

		stored, err := m.tasks.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}

func TestStoreModule_SaveTasks(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	resp, err := m.saveTasks(ctx, SaveTasksRequest{Version: 5, Tasks: sampleTasks()}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Saved)
	assert.Empty(t, resp.Error)

	resp, err = m.saveTasks(ctx, SaveTasksRequest{Version: 5, Tasks: nil}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Saved)
	assert.True(t, resp.Skipped)

	t.Run("write failure is reported, not returned", func(t *testing.T) {
		sqlDB, err := m.db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		resp, err := m.saveTasks(ctx, SaveTasksRequest{Version: 6, Tasks: sampleTasks()}, nil)
		require.NoError(t, err)
		assert.False(t, resp.Saved)
		assert.NotEmpty(t, resp.Error)
	})
}

func TestStoreModule_NotStarted(t *testing.T) {
	m := NewModule("x.db", false, &mockLogger{})

	_, err := m.loadTasks(context.Background(), LoadTasksRequest{}, nil)
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = m.saveTasks(context.Background(), SaveTasksRequest{Version: 1}, nil)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, m.WriteSnapshot(context.Background(), 1, nil), ErrNotStarted)
	assert.NoError(t, m.handleTasksChanged(context.Background(), events.TasksChangedEvent{Version: 1}, nil))
	assert.NoError(t, m.Stop(context.Background()))
}

func TestStoreModule_WriteOutlivesCancelledContext(t *testing.T) {
	m := newTestModule(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{Version: 1, Tasks: sampleTasks()}, nil))

	stored, err := m.tasks.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Nil(t, m.pending)
}

func TestStoreModule_WriteSnapshot(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	tasks := sampleTasks()

	require.NoError(t, m.WriteSnapshot(ctx, 4, tasks))
	require.NoError(t, m.WriteSnapshot(ctx, 3, tasks[:1]))

	stored, err := m.tasks.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, uint64(4), m.lastVersion)
}

func TestStoreModule_StopRetriesFailedSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	m := NewModule(path, false, &mockLogger{})
	require.NoError(t, m.Start(ctx))

	// Writes fail while the table is missing.
	require.NoError(t, m.db.Migrator().DropTable(&Entry{}))
	require.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{Version: 1, Tasks: sampleTasks()[:1]}, nil))
	require.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{Version: 2, Tasks: sampleTasks()}, nil))
	require.NotNil(t, m.pending)
	assert.Equal(t, uint64(2), m.pending.version)

	require.NoError(t, m.db.AutoMigrate(&Entry{}))
	require.NoError(t, m.Stop(ctx))
	assert.NoError(t, m.Stop(ctx))

	reopened := NewModule(path, false, &mockLogger{})
	require.NoError(t, reopened.Start(ctx))
	t.Cleanup(func() { reopened.Stop(ctx) })

	resp, err := reopened.loadTasks(ctx, LoadTasksRequest{}, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Tasks, 3)
}

func TestStoreModule_DropsSnapshotsAfterStop(t *testing.T) {
	ctx := context.Background()
	m := NewModule(filepath.Join(t.TempDir(), "tasks.db"), false, &mockLogger{})
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))

	assert.NoError(t, m.handleTasksChanged(ctx, events.TasksChangedEvent{Version: 9, Tasks: sampleTasks()}, nil))
	assert.False(t, m.Health(ctx).Healthy)
}
