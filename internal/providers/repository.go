package providers

import "context"

// Repository abstracts provider directory persistence.
type Repository interface {
	CreateService(ctx context.Context, s CatalogService) error
	GetService(ctx context.Context, id string) (CatalogService, error)
	GetServiceBySlug(ctx context.Context, slug string) (CatalogService, error)
	ListServices(ctx context.Context, activeOnly bool) ([]CatalogService, error)
	UpdateService(ctx context.Context, s CatalogService) error

	UpsertProvider(ctx context.Context, p Provider) error
	GetProvider(ctx context.Context, companyID string) (Provider, error)

	CreateOffering(ctx context.Context, o Offering) error
	ListOfferings(ctx context.Context, companyID string) ([]Offering, error)
	ListOfferingsByService(ctx context.Context, serviceID string) ([]Offering, error)
	SetOfferingActive(ctx context.Context, companyID, offeringID string, active bool) error

	ReplaceServiceAreas(ctx context.Context, companyID string, areas []ServiceArea) error
	ListServiceAreas(ctx context.Context, companyID string) ([]ServiceArea, error)

	GetPreferences(ctx context.Context, companyID string) (Preferences, error)
	PutPreferences(ctx context.Context, p Preferences) error
}
