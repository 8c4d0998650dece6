package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepo keeps import runs in process memory.
type MemoryRepo struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{runs: make(map[string]Run)}
}

func (r *MemoryRepo) CreateRun(_ context.Context, run *Run) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *run
	stored.ID = uuid.NewString()
	r.runs[stored.ID] = stored
	return stored.ID, nil
}

func (r *MemoryRepo) UpdateRun(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return ErrRunNotFound
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *MemoryRepo) GetRun(_ context.Context, id string) (Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}
