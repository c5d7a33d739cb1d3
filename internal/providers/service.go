package providers

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service manages the catalog and provider directory.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a service name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

/* ===================== catalog ===================== */

func (s *Service) CreateCatalogService(ctx context.Context, parentID, name string) (CatalogService, error) {
	if strings.TrimSpace(name) == "" {
		return CatalogService{}, ErrInvalidArgument
	}
	slug := Slugify(name)
	if slug == "" {
		return CatalogService{}, ErrInvalidArgument
	}
	if _, err := s.repo.GetServiceBySlug(ctx, slug); err == nil {
		return CatalogService{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return CatalogService{}, err
	}
	if parentID != "" {
		if _, err := s.repo.GetService(ctx, parentID); err != nil {
			return CatalogService{}, err
		}
	}

	now := s.clock().UTC()
	cs := CatalogService{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		Name:      strings.TrimSpace(name),
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateService(ctx, cs); err != nil {
		return CatalogService{}, err
	}
	return cs, nil
}

func (s *Service) ListCatalog(ctx context.Context, activeOnly bool) ([]CatalogService, error) {
	return s.repo.ListServices(ctx, activeOnly)
}

func (s *Service) SetCatalogServiceActive(ctx context.Context, id string, active bool) (CatalogService, error) {
	cs, err := s.repo.GetService(ctx, id)
	if err != nil {
		return CatalogService{}, err
	}
	cs.IsActive = active
	cs.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateService(ctx, cs); err != nil {
		return CatalogService{}, err
	}
	return cs, nil
}

/* ===================== providers ===================== */

func (s *Service) UpsertProvider(ctx context.Context, p Provider) (Provider, error) {
	if p.CompanyID == "" || strings.TrimSpace(p.Name) == "" {
		return Provider{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	if existing, err := s.repo.GetProvider(ctx, p.CompanyID); err == nil {
		p.CreatedAt = existing.CreatedAt
		if p.Status == "" {
			p.Status = existing.Status
		}
	} else if errors.Is(err, ErrNotFound) {
		p.CreatedAt = now
		if p.Status == "" {
			p.Status = ProviderActive
		}
	} else {
		return Provider{}, err
	}
	p.UpdatedAt = now
	if err := s.repo.UpsertProvider(ctx, p); err != nil {
		return Provider{}, err
	}
	return p, nil
}

func (s *Service) GetProvider(ctx context.Context, companyID string) (Provider, error) {
	if companyID == "" {
		return Provider{}, ErrInvalidArgument
	}
	return s.repo.GetProvider(ctx, companyID)
}

func (s *Service) SetProviderStatus(ctx context.Context, companyID string, status ProviderStatus) (Provider, error) {
	switch status {
	case ProviderActive, ProviderPaused, ProviderSuspended:
	default:
		return Provider{}, ErrInvalidArgument
	}
	p, err := s.repo.GetProvider(ctx, companyID)
	if err != nil {
		return Provider{}, err
	}
	p.Status = status
	p.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpsertProvider(ctx, p); err != nil {
		return Provider{}, err
	}
	return p, nil
}

/* ===================== offerings ===================== */

func (s *Service) AddOffering(ctx context.Context, companyID, serviceID string) (Offering, error) {
	if companyID == "" || serviceID == "" {
		return Offering{}, ErrInvalidArgument
	}
	if _, err := s.repo.GetProvider(ctx, companyID); err != nil {
		return Offering{}, err
	}
	cs, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return Offering{}, err
	}
	if !cs.IsActive {
		return Offering{}, ErrInvalidArgument
	}
	existing, err := s.repo.ListOfferings(ctx, companyID)
	if err != nil {
		return Offering{}, err
	}
	for _, o := range existing {
		if o.ServiceID == serviceID {
			return Offering{}, ErrConflict
		}
	}

	o := Offering{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		ServiceID: serviceID,
		IsActive:  true,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.CreateOffering(ctx, o); err != nil {
		return Offering{}, err
	}
	return o, nil
}

func (s *Service) ListOfferings(ctx context.Context, companyID string) ([]Offering, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListOfferings(ctx, companyID)
}

func (s *Service) SetOfferingActive(ctx context.Context, companyID, offeringID string, active bool) error {
	if companyID == "" || offeringID == "" {
		return ErrInvalidArgument
	}
	return s.repo.SetOfferingActive(ctx, companyID, offeringID, active)
}

/* ===================== areas and preferences ===================== */

func (s *Service) ReplaceServiceAreas(ctx context.Context, companyID string, areas []ServiceArea) ([]ServiceArea, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	now := s.clock().UTC()
	out := make([]ServiceArea, 0, len(areas))
	for _, a := range areas {
		if a.RadiusKm <= 0 || a.Lat < -90 || a.Lat > 90 || a.Lng < -180 || a.Lng > 180 {
			return nil, ErrInvalidArgument
		}
		a.ID = uuid.NewString()
		a.CompanyID = companyID
		a.CreatedAt = now
		out = append(out, a)
	}
	if err := s.repo.ReplaceServiceAreas(ctx, companyID, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListServiceAreas(ctx context.Context, companyID string) ([]ServiceArea, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListServiceAreas(ctx, companyID)
}

func (s *Service) GetPreferences(ctx context.Context, companyID string) (Preferences, error) {
	if companyID == "" {
		return Preferences{}, ErrInvalidArgument
	}
	p, err := s.repo.GetPreferences(ctx, companyID)
	if errors.Is(err, ErrNotFound) {
		return DefaultPreferences(companyID), nil
	}
	return p, err
}

func (s *Service) UpdatePreferences(ctx context.Context, p Preferences) (Preferences, error) {
	if p.CompanyID == "" || p.MinBudgetMinor < 0 {
		return Preferences{}, ErrInvalidArgument
	}
	p.UpdatedAt = s.clock().UTC()
	if err := s.repo.PutPreferences(ctx, p); err != nil {
		return Preferences{}, err
	}
	return p, nil
}
