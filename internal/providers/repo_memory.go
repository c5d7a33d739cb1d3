package providers

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu        sync.Mutex
	services  map[string]CatalogService
	providers map[string]Provider
	offerings map[string]Offering
	areas     map[string][]ServiceArea
	prefs     map[string]Preferences
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		services:  make(map[string]CatalogService),
		providers: make(map[string]Provider),
		offerings: make(map[string]Offering),
		areas:     make(map[string][]ServiceArea),
		prefs:     make(map[string]Preferences),
	}
}

func (r *MemoryRepo) CreateService(ctx context.Context, s CatalogService) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[s.ID] = s
	return nil
}

func (r *MemoryRepo) GetService(ctx context.Context, id string) (CatalogService, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return CatalogService{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) GetServiceBySlug(ctx context.Context, slug string) (CatalogService, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.services {
		if s.Slug == slug {
			return s, nil
		}
	}
	return CatalogService{}, ErrNotFound
}

func (r *MemoryRepo) ListServices(ctx context.Context, activeOnly bool) ([]CatalogService, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CatalogService
	for _, s := range r.services {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) UpdateService(ctx context.Context, s CatalogService) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[s.ID]; !ok {
		return ErrNotFound
	}
	r.services[s.ID] = s
	return nil
}

func (r *MemoryRepo) UpsertProvider(ctx context.Context, p Provider) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.CompanyID] = p
	return nil
}

func (r *MemoryRepo) GetProvider(ctx context.Context, companyID string) (Provider, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[companyID]
	if !ok {
		return Provider{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) CreateOffering(ctx context.Context, o Offering) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offerings[o.ID] = o
	return nil
}

func (r *MemoryRepo) ListOfferings(ctx context.Context, companyID string) ([]Offering, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Offering
	for _, o := range r.offerings {
		if o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) ListOfferingsByService(ctx context.Context, serviceID string) ([]Offering, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Offering
	for _, o := range r.offerings {
		if o.ServiceID == serviceID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out, nil
}

func (r *MemoryRepo) SetOfferingActive(ctx context.Context, companyID, offeringID string, active bool) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offerings[offeringID]
	if !ok || o.CompanyID != companyID {
		return ErrNotFound
	}
	o.IsActive = active
	r.offerings[offeringID] = o
	return nil
}

func (r *MemoryRepo) ReplaceServiceAreas(ctx context.Context, companyID string, areas []ServiceArea) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.areas[companyID] = append([]ServiceArea(nil), areas...)
	return nil
}

func (r *MemoryRepo) ListServiceAreas(ctx context.Context, companyID string) ([]ServiceArea, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceArea(nil), r.areas[companyID]...), nil
}

func (r *MemoryRepo) GetPreferences(ctx context.Context, companyID string) (Preferences, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[companyID]
	if !ok {
		return Preferences{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) PutPreferences(ctx context.Context, p Preferences) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[p.CompanyID] = p
	return nil
}
