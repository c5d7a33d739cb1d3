package billing

import (
	"context"
	"sync"
)

// MemoryRepo holds settings in memory, seeded with defaults.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu       sync.Mutex
	settings Settings
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{settings: DefaultSettings()}
}

func (r *MemoryRepo) Get(ctx context.Context) (Settings, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings, nil
}

func (r *MemoryRepo) Put(ctx context.Context, s Settings) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s
	return nil
}
