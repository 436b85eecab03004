package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/emersxw/taskscape/domain/task"
	"github.com/emersxw/taskscape/events"
	"github.com/emersxw/taskscape/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

const (
	loadAttemptTimeout = 5 * time.Second
	loadRetryMin       = 50 * time.Millisecond
	loadRetryMax       = 2 * time.Second
)

// SnapshotWriter writes a snapshot straight to durable storage. Stop uses it
// because the event bus and services are already gone by then.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, version uint64, tasks []domain.Task) error
}

// ModuleOption configures a TaskModule.
type ModuleOption func(*TaskModule)

// WithSnapshotWriter sets where Stop writes changes the store has not confirmed.
func WithSnapshotWriter(w SnapshotWriter) ModuleOption {
	return func(m *TaskModule) {
		m.writer = w
	}
}

// TaskModule owns the canonical task collection and exposes it as services.
// Writes reach the store module through TasksChanged events, so no request ever
// waits on disk.
type TaskModule struct {
	repo     *Repository
	store    store.StorePort
	writer   SnapshotWriter
	eventBus mono.EventBus
	logger   types.Logger
	loc      *time.Location
	calendar *calendarCache

	loadCancel context.CancelFunc
	loadDone   chan struct{}
	retryMin   time.Duration
	retryMax   time.Duration

	mu               sync.Mutex // guards the persistence status below
	persistedVersion uint64
	lastWriteError   string
}

var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.DependentModule       = (*TaskModule)(nil)
	_ mono.EventBusAwareModule   = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.EventConsumerModule   = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// NewModule creates a TaskModule. loc is the default location for calendar days;
// nil means time.Local.
func NewModule(loc *time.Location, logger types.Logger, opts ...ModuleOption) *TaskModule {
	if loc == nil {
		loc = time.Local
	}
	m := &TaskModule{
		logger:   logger.WithModule("task"),
		loc:      loc,
		calendar: newCalendarCache(),
		loadDone: make(chan struct{}),
		retryMin: loadRetryMin,
		retryMax: loadRetryMax,
	}
	m.repo = NewRepository(WithPersister(m))
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) Dependencies() []string {
	return []string{"store"}
}

func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "store" {
		m.store = store.NewStoreAdapter(container)
	}
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TasksChangedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TasksPersistedV1, m.handleTasksPersisted, m); err != nil {
		return fmt.Errorf("failed to register TasksPersisted consumer: %w", err)
	}
	return nil
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	services := []struct {
		name     string
		register func() error
	}{
		{"create-task", func() error {
			return helper.RegisterTypedRequestReplyService(container, "create-task", json.Unmarshal, json.Marshal, m.createTask)
		}},
		{"toggle-task", func() error {
			return helper.RegisterTypedRequestReplyService(container, "toggle-task", json.Unmarshal, json.Marshal, m.toggleTask)
		}},
		{"update-task", func() error {
			return helper.RegisterTypedRequestReplyService(container, "update-task", json.Unmarshal, json.Marshal, m.updateTask)
		}},
		{"delete-task", func() error {
			return helper.RegisterTypedRequestReplyService(container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask)
		}},
		{"get-task", func() error {
			return helper.RegisterTypedRequestReplyService(container, "get-task", json.Unmarshal, json.Marshal, m.getTask)
		}},
		{"list-tasks", func() error {
			return helper.RegisterTypedRequestReplyService(container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks)
		}},
		{"visible-tasks", func() error {
			return helper.RegisterTypedRequestReplyService(container, "visible-tasks", json.Unmarshal, json.Marshal, m.visibleTasks)
		}},
		{"completions-by-date", func() error {
			return helper.RegisterTypedRequestReplyService(container, "completions-by-date", json.Unmarshal, json.Marshal, m.completionsByDate)
		}},
		{"tasks-for-date", func() error {
			return helper.RegisterTypedRequestReplyService(container, "tasks-for-date", json.Unmarshal, json.Marshal, m.tasksForDate)
		}},
	}

	for _, svc := range services {
		if err := svc.register(); err != nil {
			return fmt.Errorf("failed to register %s service: %w", svc.name, err)
		}
	}

	m.logger.Info("Registered services", "count", len(services))
	return nil
}

// Start begins loading the stored collection in the background. The store's
// services only answer once every module has started, so the load retries until
// they do. Mutations are rejected until it succeeds.
func (m *TaskModule) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("store dependency not set")
	}
	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, changes will only be written on shutdown")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.loadCancel = cancel
	go m.loadInBackground(ctx)

	m.logger.Info("Module started, loading tasks")
	return nil
}

// WaitLoaded blocks until the startup load has finished or ctx is done.
func (m *TaskModule) WaitLoaded(ctx context.Context) error {
	select {
	case <-m.loadDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !m.repo.Loaded() {
		return ErrNotLoaded
	}
	return nil
}

func (m *TaskModule) loadInBackground(ctx context.Context) {
	defer close(m.loadDone)

	delay := m.retryMin
	for attempt := 1; ; attempt++ {
		err := m.load(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		m.logger.Debug("Tasks not loaded yet, retrying", "attempt", attempt, "error", err.Error())

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, m.retryMax)
	}
}

// load reads the stored collection once. Duplicate ids are dropped and the
// cleaned collection is written back before any mutation is accepted.
func (m *TaskModule) load(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, loadAttemptTimeout)
	defer cancel()

	resp, err := m.store.LoadTasks(attemptCtx)
	if err != nil {
		return err
	}
	if resp.Recovered {
		m.logger.Warn("Stored tasks were unreadable, starting with an empty collection")
	}

	tasks, dropped := dedupe(resp.Tasks)
	if dropped > 0 {
		m.logger.Warn("Dropped tasks with duplicate ids", "count", dropped)
		saved, err := m.store.SaveTasks(attemptCtx, &store.SaveTasksRequest{Tasks: tasks})
		switch {
		case err != nil:
			m.logger.WithError(err).Warn("Failed to write cleaned tasks")
		case saved.Error != "":
			m.logger.Warn("Failed to write cleaned tasks", "error", saved.Error)
		}
	}

	if _, err := m.repo.Load(tasks); err != nil && !errors.Is(err, ErrAlreadyLoaded) {
		return err
	}

	m.logger.Info("Loaded tasks", "count", len(tasks))
	return nil
}

// Stop ends a load still in progress, then writes the latest version if the store
// has not confirmed it.
func (m *TaskModule) Stop(ctx context.Context) error {
	if m.loadCancel != nil {
		m.loadCancel()
		<-m.loadDone
	}

	snap := m.repo.Snapshot()

	m.mu.Lock()
	persisted := m.persistedVersion
	m.mu.Unlock()

	if snap.Version == 0 || snap.Version <= persisted {
		m.logger.Info("Module stopped")
		return nil
	}
	if m.writer == nil {
		m.logger.Warn("Latest changes may not be written", "version", snap.Version, "persisted_version", persisted)
		return nil
	}

	m.logger.Info("Writing tasks before shutdown", "version", snap.Version, "persisted_version", persisted)
	if err := m.writer.WriteSnapshot(ctx, snap.Version, snap.Tasks); err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}

	m.logger.Info("Module stopped")
	return nil
}

func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
	snap := m.repo.Snapshot()

	m.mu.Lock()
	persisted := m.persistedVersion
	lastErr := m.lastWriteError
	m.mu.Unlock()

	details := map[string]any{
		"tasks":             len(snap.Tasks),
		"version":           snap.Version,
		"persisted_version": persisted,
	}
	if lastErr != "" {
		details["last_write_error"] = lastErr
	}

	if !m.repo.Loaded() {
		return mono.HealthStatus{Healthy: false, Message: "loading", Details: details}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// Persist publishes the snapshot for the store module. Publishing is best-effort:
// a lost snapshot is covered by the next mutation or the shutdown flush.
func (m *TaskModule) Persist(snap Snapshot) {
	if m.eventBus == nil {
		return
	}

	event := events.TasksChangedEvent{
		Version:   snap.Version,
		Tasks:     snap.Tasks,
		ChangedAt: time.Now(),
	}
	if err := events.TasksChangedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.WithError(err).Warn("Failed to publish TasksChanged event", "version", snap.Version)
	}
}

// handleTasksPersisted records the outcome of a store write.
func (m *TaskModule) handleTasksPersisted(_ context.Context, event events.TasksPersistedEvent, _ *mono.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case event.Success:
		if event.Version > m.persistedVersion {
			m.persistedVersion = event.Version
		}
		m.lastWriteError = ""
	case !event.Skipped:
		m.lastWriteError = event.Error
		m.logger.Warn("Tasks were not written", "version", event.Version, "error", event.Error)
	}
	return nil
}
