package store

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/emersxw/taskscape/domain/task"
)

func sampleTasks() []task.Task {
	a, _ := task.New("a", "Buy milk", time.UnixMilli(1000))
	b, _ := task.New("b", "Walk dog", time.UnixMilli(2000))
	c, _ := task.New("c", "File taxes", time.UnixMilli(3000))
	return []task.Task{a, b.Complete(time.UnixMilli(7000)), c}
}

func byID(tasks []task.Task) []task.Task {
	out := task.CloneAll(tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func TestTaskStore_RoundTrip(t *testing.T) {
	s := NewTaskStore(NewKV(setupTestDB(t)))
	ctx := context.Background()

	want := sampleTasks()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(byID(got), byID(want)) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestTaskStore_SaveOverwrites(t *testing.T) {
	s := NewTaskStore(NewKV(setupTestDB(t)))
	ctx := context.Background()

	if err := s.Save(ctx, sampleTasks()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, sampleTasks()[:1]); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 task after overwrite, got %d", len(got))
	}
}

func TestTaskStore_LoadEmpty(t *testing.T) {
	s := NewTaskStore(NewKV(setupTestDB(t)))

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil collection, got %#v", got)
	}
}

func TestTaskStore_SaveNil(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(NewKV(db))
	ctx := context.Background()

	if err := s.Save(ctx, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := NewKV(db).Get(ctx, TasksKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if raw != "[]" {
		t.Errorf("expected stored value %q, got %q", "[]", raw)
	}
}

func TestTaskStore_LoadCorrupt(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(NewKV(db))
	ctx := context.Background()

	if err := NewKV(db).Set(ctx, TasksKey, "{not json"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Load(ctx)
	if !errors.Is(err, ErrStorageRead) {
		t.Errorf("expected ErrStorageRead, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty collection on corrupt data, got %#v", got)
	}
}

func TestTaskStore_SaveFailure(t *testing.T) {
	db := setupTestDB(t)
	s := NewTaskStore(NewKV(db))

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.Close()

	if err := s.Save(context.Background(), sampleTasks()); !errors.Is(err, ErrStorageWrite) {
		t.Errorf("expected ErrStorageWrite, got %v", err)
	}
}
