package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/emersxw/taskscape/domain/task"
	"github.com/emersxw/taskscape/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StoreModule provides the Persistent Store via GORM + SQLite.
// It owns the only handle to the database and serializes every write.
type StoreModule struct {
	db       *gorm.DB
	tasks    *TaskStore
	dbPath   string
	debug    bool
	logger   types.Logger
	eventBus mono.EventBus

	mu          sync.Mutex // serializes writes
	lastVersion uint64
	pending     *pendingWrite
}

// pendingWrite is the newest snapshot whose write failed.
type pendingWrite struct {
	version uint64
	tasks   []task.Task
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*StoreModule)(nil)
	_ mono.ServiceProviderModule = (*StoreModule)(nil)
	_ mono.HealthCheckableModule = (*StoreModule)(nil)
	_ mono.EventConsumerModule   = (*StoreModule)(nil)
	_ mono.EventBusAwareModule   = (*StoreModule)(nil)
	_ mono.EventEmitterModule    = (*StoreModule)(nil)
)

// NewModule creates a new StoreModule backed by the SQLite file at dbPath.
func NewModule(dbPath string, debug bool, logger types.Logger) *StoreModule {
	return &StoreModule{
		dbPath: dbPath,
		debug:  debug,
		logger: logger.WithModule("store"),
	}
}

// Name returns the module name.
func (m *StoreModule) Name() string {
	return "store"
}

// SetEventBus receives the EventBus from the framework.
func (m *StoreModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *StoreModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TasksPersistedV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes to collection snapshots.
func (m *StoreModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TasksChangedV1, m.handleTasksChanged, m); err != nil {
		return fmt.Errorf("failed to register TasksChanged consumer: %w", err)
	}
	m.logger.Info("Registered event consumers", "events", "TasksChanged")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *StoreModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "load-tasks", json.Unmarshal, json.Marshal, m.loadTasks,
	); err != nil {
		return fmt.Errorf("failed to register load-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "save-tasks", json.Unmarshal, json.Marshal, m.saveTasks,
	); err != nil {
		return fmt.Errorf("failed to register save-tasks service: %w", err)
	}

	m.logger.Info("Registered services", "services", "load-tasks, save-tasks")
	return nil
}

// Health performs a health check on the store module.
func (m *StoreModule) Health(ctx context.Context) mono.HealthStatus {
	m.mu.Lock()
	db := m.db
	lastVersion := m.lastVersion
	m.mu.Unlock()

	if db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":       "sqlite",
			"path":         m.dbPath,
			"key":          TasksKey,
			"last_version": lastVersion,
		},
	}
}

// Start opens the database and runs migrations.
func (m *StoreModule) Start(_ context.Context) error {
	m.logger.Info("Connecting to SQLite database", "path", m.dbPath)

	logLevel := logger.Silent
	if m.debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := m.attach(db); err != nil {
		return err
	}

	m.logger.Info("Module started")
	return nil
}

// attach migrates db and builds the stores on top of it.
func (m *StoreModule) attach(db *gorm.DB) error {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = db
	m.tasks = NewTaskStore(NewKV(db))
	return nil
}

// Stop retries a failed snapshot, then closes the database connection.
// It waits for a write in progress; snapshots arriving afterwards are dropped.
func (m *StoreModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tasks == nil {
		return nil
	}

	if p := m.pending; p != nil && (p.version == 0 || p.version > m.lastVersion) {
		if err := m.tasks.Save(context.WithoutCancel(ctx), p.tasks); err != nil {
			m.logger.WithError(err).Error("Failed to write pending tasks before shutdown", "version", p.version)
		} else {
			m.lastVersion = max(m.lastVersion, p.version)
			m.logger.Info("Wrote pending tasks before shutdown", "version", p.version)
		}
	}
	m.pending = nil
	m.tasks = nil

	m.logger.Info("Closing database connection")

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Info("Database connection closed")
	return nil
}
