package providers

import (
	"context"
	"database/sql"
	"errors"

	"leadmarket-platform/pkg/utils"
)

// PostgresRepo persists the provider directory.
// Tables: catalog_services, providers, provider_offerings, provider_service_areas,
// provider_preferences.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateService(ctx context.Context, s CatalogService) error {
	const q = `
INSERT INTO catalog_services (id, parent_id, name, slug, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q, s.ID, nullIfEmpty(s.ParentID), s.Name, s.Slug, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return err
}

const selectService = `
SELECT id, COALESCE(parent_id, ''), name, slug, is_active, created_at, updated_at
FROM catalog_services
`

func (r *PostgresRepo) GetService(ctx context.Context, id string) (CatalogService, error) {
	return r.oneService(ctx, selectService+` WHERE id = $1`, id)
}

func (r *PostgresRepo) GetServiceBySlug(ctx context.Context, slug string) (CatalogService, error) {
	return r.oneService(ctx, selectService+` WHERE slug = $1`, slug)
}

func (r *PostgresRepo) oneService(ctx context.Context, q string, arg any) (CatalogService, error) {
	var s CatalogService
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&s.ID, &s.ParentID, &s.Name, &s.Slug, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CatalogService{}, ErrNotFound
		}
		return CatalogService{}, err
	}
	return s, nil
}

func (r *PostgresRepo) ListServices(ctx context.Context, activeOnly bool) ([]CatalogService, error) {
	q := selectService
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CatalogService
	for rows.Next() {
		var s CatalogService
		if err := rows.Scan(&s.ID, &s.ParentID, &s.Name, &s.Slug, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateService(ctx context.Context, s CatalogService) error {
	const q = `
UPDATE catalog_services
SET name = $2, slug = $3, is_active = $4, updated_at = $5
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, s.ID, s.Name, s.Slug, s.IsActive, s.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepo) UpsertProvider(ctx context.Context, p Provider) error {
	const q = `
INSERT INTO providers (company_id, name, phone, email, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (company_id) DO UPDATE
SET name = EXCLUDED.name, phone = EXCLUDED.phone, email = EXCLUDED.email,
    status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q, p.CompanyID, p.Name, nullIfEmpty(p.Phone), nullIfEmpty(p.Email), p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresRepo) GetProvider(ctx context.Context, companyID string) (Provider, error) {
	const q = `
SELECT company_id, name, COALESCE(phone, ''), COALESCE(email, ''), status, created_at, updated_at
FROM providers
WHERE company_id = $1
`
	var p Provider
	err := r.db.QueryRowContext(ctx, q, companyID).Scan(&p.CompanyID, &p.Name, &p.Phone, &p.Email, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Provider{}, ErrNotFound
		}
		return Provider{}, err
	}
	return p, nil
}

func (r *PostgresRepo) CreateOffering(ctx context.Context, o Offering) error {
	const q = `
INSERT INTO provider_offerings (id, company_id, service_id, is_active, created_at)
VALUES ($1,$2,$3,$4,$5)
`
	_, err := r.db.ExecContext(ctx, q, o.ID, o.CompanyID, o.ServiceID, o.IsActive, o.CreatedAt)
	return err
}

const selectOffering = `
SELECT id, company_id, service_id, is_active, created_at
FROM provider_offerings
`

func (r *PostgresRepo) ListOfferings(ctx context.Context, companyID string) ([]Offering, error) {
	return r.queryOfferings(ctx, selectOffering+` WHERE company_id = $1 ORDER BY created_at ASC`, companyID)
}

func (r *PostgresRepo) ListOfferingsByService(ctx context.Context, serviceID string) ([]Offering, error) {
	return r.queryOfferings(ctx, selectOffering+` WHERE service_id = $1 ORDER BY company_id ASC`, serviceID)
}

func (r *PostgresRepo) queryOfferings(ctx context.Context, q string, args ...any) ([]Offering, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Offering
	for rows.Next() {
		var o Offering
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.ServiceID, &o.IsActive, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) SetOfferingActive(ctx context.Context, companyID, offeringID string, active bool) error {
	const q = `
UPDATE provider_offerings SET is_active = $3
WHERE company_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q, companyID, offeringID, active)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepo) ReplaceServiceAreas(ctx context.Context, companyID string, areas []ServiceArea) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM provider_service_areas WHERE company_id = $1`, companyID); err != nil {
			return err
		}
		const q = `
INSERT INTO provider_service_areas (id, company_id, label, lat, lng, radius_km, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
		for _, a := range areas {
			if _, err := tx.ExecContext(ctx, q, a.ID, a.CompanyID, nullIfEmpty(a.Label), a.Lat, a.Lng, a.RadiusKm, a.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepo) ListServiceAreas(ctx context.Context, companyID string) ([]ServiceArea, error) {
	const q = `
SELECT id, company_id, COALESCE(label, ''), lat, lng, radius_km, created_at
FROM provider_service_areas
WHERE company_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceArea
	for rows.Next() {
		var a ServiceArea
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Label, &a.Lat, &a.Lng, &a.RadiusKm, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetPreferences(ctx context.Context, companyID string) (Preferences, error) {
	const q = `
SELECT company_id, min_budget_minor, pause_when_balance_zero, updated_at
FROM provider_preferences
WHERE company_id = $1
`
	var p Preferences
	err := r.db.QueryRowContext(ctx, q, companyID).Scan(&p.CompanyID, &p.MinBudgetMinor, &p.PauseWhenBalanceZero, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preferences{}, ErrNotFound
		}
		return Preferences{}, err
	}
	return p, nil
}

func (r *PostgresRepo) PutPreferences(ctx context.Context, p Preferences) error {
	const q = `
INSERT INTO provider_preferences (company_id, min_budget_minor, pause_when_balance_zero, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (company_id) DO UPDATE
SET min_budget_minor = EXCLUDED.min_budget_minor,
    pause_when_balance_zero = EXCLUDED.pause_when_balance_zero,
    updated_at = EXCLUDED.updated_at
`
	_, err := r.db.ExecContext(ctx, q, p.CompanyID, p.MinBudgetMinor, p.PauseWhenBalanceZero, p.UpdatedAt)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
