package pricing

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rules  map[int64]Rule
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, rules: make(map[int64]Rule)}
}

func (r *MemoryRepo) List(ctx context.Context) ([]Rule, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(false), nil
}

func (r *MemoryRepo) ListActive(ctx context.Context) ([]Rule, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(true), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Rule, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

func (r *MemoryRepo) Create(ctx context.Context, rule Rule) (Rule, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = r.nextID
	r.nextID++
	r.rules[rule.ID] = rule
	return rule, nil
}

func (r *MemoryRepo) Update(ctx context.Context, rule Rule) (Rule, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return Rule{}, ErrNotFound
	}
	r.rules[rule.ID] = rule
	return rule, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *MemoryRepo) snapshot(activeOnly bool) []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if activeOnly && !rule.IsActive {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}
