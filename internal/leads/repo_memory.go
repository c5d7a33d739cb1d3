package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu    sync.Mutex
	leads map[string]LeadRequest
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{leads: make(map[string]LeadRequest)}
}

func (r *MemoryRepo) Create(ctx context.Context, l LeadRequest) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[l.ID] = l
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (LeadRequest, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return LeadRequest{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepo) Update(ctx context.Context, l LeadRequest) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[l.ID]; !ok {
		return ErrNotFound
	}
	r.leads[l.ID] = l
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]LeadRequest, error) {
	_ = ctx
	filter = filter.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []LeadRequest
	for _, l := range r.leads {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.ServiceID != "" && l.ServiceID != filter.ServiceID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) FindRecentDuplicate(ctx context.Context, serviceID, phone, email string, since time.Time) (LeadRequest, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.leads {
		if l.ServiceID != serviceID || l.CreatedAt.Before(since) {
			continue
		}
		if phone != "" && l.ContactPhone == phone {
			return l, true, nil
		}
		if email != "" && l.ContactEmail == email {
			return l, true, nil
		}
	}
	return LeadRequest{}, false, nil
}

func (r *MemoryRepo) ReserveSlot(ctx context.Context, id string) (LeadRequest, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return LeadRequest{}, ErrNotFound
	}
	if !l.Status.IsSellable() || l.CurrentSoldCount >= l.MaxSoldCount {
		return LeadRequest{}, ErrSoldOut
	}
	l.CurrentSoldCount++
	if l.CurrentSoldCount >= l.MaxSoldCount {
		l.Status = StatusClosed
	} else {
		l.Status = StatusPartial
	}
	l.UpdatedAt = time.Now().UTC()
	r.leads[id] = l
	return l, nil
}

func (r *MemoryRepo) ReleaseSlot(ctx context.Context, id string) (LeadRequest, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return LeadRequest{}, ErrNotFound
	}
	if l.CurrentSoldCount > 0 {
		l.CurrentSoldCount--
	}
	if l.CurrentSoldCount == 0 {
		l.Status = StatusRouted
	} else {
		l.Status = StatusPartial
	}
	l.UpdatedAt = time.Now().UTC()
	r.leads[id] = l
	return l, nil
}

func (r *MemoryRepo) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]LeadRequest, error) {
	_ = ctx
	if limit <= 0 {
		limit = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []LeadRequest
	for _, l := range r.leads {
		open := l.Status == StatusNew || l.Status == StatusRouting || l.Status.IsSellable()
		if !open || !l.ExpiresAt.Before(cutoff) {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
