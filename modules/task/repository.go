package task

import (
	"sync"
	"time"

	domain "github.com/emersxw/taskscape/domain/task"
	"github.com/google/uuid"
)

// Snapshot is the full collection at a given version.
type Snapshot struct {
	Version uint64
	Tasks   []domain.Task
}

// Persister receives a snapshot after every effective mutation.
// Persist must not block on the actual write.
type Persister interface {
	Persist(snapshot Snapshot)
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithClock sets the time source used for createdAt and completedAt.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator sets the function producing new task ids.
func WithIDGenerator(newID func() string) RepositoryOption {
	return func(r *Repository) {
		r.newID = newID
	}
}

// WithPersister sets where snapshots go after each mutation.
func WithPersister(p Persister) RepositoryOption {
	return func(r *Repository) {
		r.persister = p
	}
}

// Repository holds the canonical in-memory task collection.
//
// Every effective mutation bumps the version and hands a snapshot to the Persister.
// Mutations are rejected (ok == false) until Load has installed the stored collection.
type Repository struct {
	mu        sync.RWMutex
	tasks     []domain.Task
	version   uint64
	loaded    bool
	now       func() time.Time
	newID     func() string
	persister Persister
}

// NewRepository creates an empty, not yet loaded repository.
func NewRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		tasks: make([]domain.Task, 0),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load installs the collection read at startup. Tasks with an id already seen are
// dropped; the number dropped is returned. Load does not persist.
func (r *Repository) Load(tasks []domain.Task) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return 0, ErrAlreadyLoaded
	}

	unique, dropped := dedupe(tasks)
	r.tasks = domain.CloneAll(unique)
	r.loaded = true
	return dropped, nil
}

// dedupe keeps the first task of every id.
func dedupe(tasks []domain.Task) ([]domain.Task, int) {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out, len(tasks) - len(out)
}

// Loaded reports whether Load has completed.
func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Create appends a new active task. It is a no-op when the trimmed text is empty.
func (r *Repository) Create(text string) (domain.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return domain.Task{}, false
	}

	id := r.newID()
	for r.indexOf(id) >= 0 {
		id = r.newID()
	}

	t, ok := domain.New(id, text, r.now())
	if !ok {
		return domain.Task{}, false
	}

	r.tasks = append(r.tasks, t)
	r.commit()
	return t.Clone(), true
}

// Toggle flips the completion state of the task with the given id.
// Completing records completedAt and duration; reopening clears them.
func (r *Repository) Toggle(id string) (domain.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if !r.loaded || i < 0 {
		return domain.Task{}, false
	}

	r.tasks[i] = r.tasks[i].Toggle(r.now())
	r.commit()
	return r.tasks[i].Clone(), true
}

// Update replaces the task with the same id wholesale.
func (r *Repository) Update(t domain.Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(t.ID)
	if !r.loaded || i < 0 {
		return false
	}

	r.tasks[i] = t.Clone()
	r.commit()
	return true
}

// Delete removes the task with the given id.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if !r.loaded || i < 0 {
		return false
	}

	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	r.commit()
	return true
}

// Get returns a copy of the task with the given id.
func (r *Repository) Get(id string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return r.tasks[i].Clone(), true
}

// All returns a copy of the collection in storage order.
func (r *Repository) All() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.CloneAll(r.tasks)
}

// Snapshot returns the collection together with its version.
func (r *Repository) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Version: r.version, Tasks: domain.CloneAll(r.tasks)}
}

// Version returns the number of effective mutations since Load.
func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

func (r *Repository) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// commit bumps the version and hands the snapshot over. Caller holds r.mu.
// Persist runs under the lock so snapshots leave in version order.
func (r *Repository) commit() {
	r.version++
	if r.persister == nil {
		return
	}
	r.persister.Persist(Snapshot{Version: r.version, Tasks: domain.CloneAll(r.tasks)})
}
