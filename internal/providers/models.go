package providers

import "time"

// CatalogService is a sellable service category (hierarchical via ParentID).
type CatalogService struct {
	ID       string `json:"id" db:"id"`
	ParentID string `json:"parent_id,omitempty" db:"parent_id"`
	Name     string `json:"name" db:"name"`
	Slug     string `json:"slug" db:"slug"`
	IsActive bool   `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Provider is a company's marketplace profile. Keyed by company id; one
// profile per company.
type Provider struct {
	CompanyID string `json:"company_id" db:"company_id"`
	Name      string `json:"name" db:"name"`
	Phone     string `json:"phone,omitempty" db:"phone"`
	Email     string `json:"email,omitempty" db:"email"`

	Status ProviderStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ProviderStatus string

const (
	ProviderActive    ProviderStatus = "active"
	ProviderPaused    ProviderStatus = "paused"
	ProviderSuspended ProviderStatus = "suspended"
)

// Offering links a provider to a catalog service it wants leads for.
type Offering struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	ServiceID string `json:"service_id" db:"service_id"`
	IsActive  bool   `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ServiceArea is a circular coverage area. A provider without areas is
// treated as serving everywhere (no geo gate, neutral proximity score).
type ServiceArea struct {
	ID        string  `json:"id" db:"id"`
	CompanyID string  `json:"company_id" db:"company_id"`
	Label     string  `json:"label,omitempty" db:"label"`
	Lat       float64 `json:"lat" db:"lat"`
	Lng       float64 `json:"lng" db:"lng"`
	RadiusKm  float64 `json:"radius_km" db:"radius_km"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Preferences control how a provider participates in routing.
type Preferences struct {
	CompanyID string `json:"company_id" db:"company_id"`

	// MinBudgetMinor filters out leads whose stated budget is below this
	// floor. Zero disables the filter.
	MinBudgetMinor int64 `json:"min_budget_minor" db:"min_budget_minor"`

	// PauseWhenBalanceZero stops offers when the wallet is empty.
	PauseWhenBalanceZero bool `json:"pause_when_balance_zero" db:"pause_when_balance_zero"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPreferences apply until a provider customizes them.
func DefaultPreferences(companyID string) Preferences {
	return Preferences{
		CompanyID:            companyID,
		PauseWhenBalanceZero: true,
	}
}
