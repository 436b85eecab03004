package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/emersxw/taskscape/modules/store"
	"github.com/emersxw/taskscape/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Taskscape ===")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Database: %s", cfg.DBPath)
	log.Printf("NATS Port: %d", cfg.NATSPort)
	log.Printf("Calendar location: %s", cfg.Location)

	app, taskModule, err := newApplication(cfg, mono.WithNATSPort(cfg.NATSPort))
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// The task module loads in the background once the store's services answer.
	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	if err := taskModule.WaitLoaded(loadCtx); err != nil {
		log.Printf("Warning: tasks not loaded yet: %v", err)
	}
	cancel()

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// newApplication creates the mono application and registers the store and task
// modules. opts are applied after the defaults derived from cfg.
func newApplication(cfg Config, opts ...mono.MonoFrameworkOption) (mono.MonoApplication, *task.TaskModule, error) {
	opts = append([]mono.MonoFrameworkOption{
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	}, opts...)

	app, err := mono.NewMonoApplication(opts...)
	if err != nil {
		return nil, nil, err
	}

	// The store also takes the task module's last write at shutdown, after the
	// event bus is gone.
	storeModule := store.NewModule(cfg.DBPath, cfg.DBDebug, app.Logger())
	taskModule := task.NewModule(cfg.Location, app.Logger(), task.WithSnapshotWriter(storeModule))

	if err := app.Register(storeModule); err != nil {
		return nil, nil, fmt.Errorf("failed to register store module: %w", err)
	}
	if err := app.Register(taskModule); err != nil {
		return nil, nil, fmt.Errorf("failed to register task module: %w", err)
	}

	return app, taskModule, nil
}

func printStartupInfo(cfg Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("NATS available at nats://localhost:%d", cfg.NATSPort)
	log.Println("")
	log.Println("Task services:")
	log.Println("  services.task.create-task         - Create a task from text")
	log.Println("  services.task.toggle-task         - Complete or reopen a task")
	log.Println("  services.task.update-task         - Replace a task by id")
	log.Println("  services.task.delete-task         - Delete a task by id")
	log.Println("  services.task.get-task            - Task details")
	log.Println("  services.task.list-tasks          - All tasks in storage order")
	log.Println("  services.task.visible-tasks       - Main list, newest first")
	log.Println("  services.task.completions-by-date - Completed tasks grouped by day")
	log.Println("  services.task.tasks-for-date      - Completed tasks for one day")
	log.Println("")
	log.Println("Store services:")
	log.Println("  services.store.load-tasks         - Read the stored collection")
	log.Println("  services.store.save-tasks         - Write the collection synchronously")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
