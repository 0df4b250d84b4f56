package task

import (
	"sync"
	"time"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[model.TaskID]model.Task{}}
}

func (r *MemoryRepo) Create(t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t.ID = newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	normalizeTask(&t)

	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(id model.TaskID) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MemoryRepo) Update(id model.TaskID, p Patch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}

	applyPatch(&t, p)
	t.UpdatedAt = time.Now()
	normalizeTask(&t)

	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) Delete(id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepo) List(filter ListFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	today := time.Now().Format(ymdLayout)

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		normalizeTask(&t)
		if matchesFilter(t, filter, today) {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out, nil
}

func (r *MemoryRepo) FindInstance(parentID model.TaskID, dueDate string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tasks {
		if !t.RecurringInstance || t.ParentTaskID == nil || *t.ParentTaskID != parentID {
			continue
		}
		if t.DueDate != nil && *t.DueDate == dueDate {
			normalizeTask(&t)
			return t, nil
		}
	}
	return model.Task{}, ErrNotFound
}

// MemoryStore is an in-memory UserStore, mainly for tests and the
// "memory" storage backend.
type MemoryStore struct {
	mu    sync.Mutex
	repos map[string]*MemoryRepo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{repos: map[string]*MemoryRepo{}}
}

func (s *MemoryStore) ForUser(userID string) Repo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		userID = "default"
	}
	repo, ok := s.repos[userID]
	if !ok {
		repo = NewMemoryRepo()
		s.repos[userID] = repo
	}
	return repo
}

func (s *MemoryStore) Users() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.repos))
	for uid := range s.repos {
		out = append(out, uid)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
