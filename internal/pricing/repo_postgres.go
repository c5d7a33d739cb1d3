package pricing

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists pricing rules.
//
// Table: pricing_rules (id BIGSERIAL primary key).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectRule = `
SELECT id, name, COALESCE(service_id, ''), COALESCE(region, ''), COALESCE(city, ''), COALESCE(postal_code, ''),
       COALESCE(timing, ''), budget_min_minor, budget_max_minor, COALESCE(property_type, ''),
       is_exclusive, base_price_minor, surge_multiplier, exclusive_multiplier,
       priority, is_active, created_at, updated_at
FROM pricing_rules
`

func (r *PostgresRepo) List(ctx context.Context) ([]Rule, error) {
	return r.list(ctx, selectRule+` ORDER BY priority DESC, id ASC`)
}

func (r *PostgresRepo) ListActive(ctx context.Context) ([]Rule, error) {
	return r.list(ctx, selectRule+` WHERE is_active ORDER BY priority DESC, id ASC`)
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Rule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, selectRule+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return rule, nil
}

func (r *PostgresRepo) Create(ctx context.Context, rule Rule) (Rule, error) {
	const q = `
INSERT INTO pricing_rules (
  name, service_id, region, city, postal_code, timing,
  budget_min_minor, budget_max_minor, property_type, is_exclusive,
  base_price_minor, surge_multiplier, exclusive_multiplier,
  priority, is_active, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
)
RETURNING id
`
	err := r.db.QueryRowContext(ctx, q,
		rule.Name,
		nullIfEmpty(rule.ServiceID),
		nullIfEmpty(rule.Region),
		nullIfEmpty(rule.City),
		nullIfEmpty(rule.PostalCode),
		nullIfEmpty(string(rule.Timing)),
		rule.BudgetMin,
		rule.BudgetMax,
		nullIfEmpty(rule.PropertyType),
		rule.IsExclusive,
		rule.BasePriceMinor,
		rule.SurgeMultiplier,
		rule.ExclusiveMultiplier,
		rule.Priority,
		rule.IsActive,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Scan(&rule.ID)
	return rule, err
}

func (r *PostgresRepo) Update(ctx context.Context, rule Rule) (Rule, error) {
	const q = `
UPDATE pricing_rules
SET name = $2, service_id = $3, region = $4, city = $5, postal_code = $6, timing = $7,
    budget_min_minor = $8, budget_max_minor = $9, property_type = $10, is_exclusive = $11,
    base_price_minor = $12, surge_multiplier = $13, exclusive_multiplier = $14,
    priority = $15, is_active = $16, updated_at = $17
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		rule.ID,
		rule.Name,
		nullIfEmpty(rule.ServiceID),
		nullIfEmpty(rule.Region),
		nullIfEmpty(rule.City),
		nullIfEmpty(rule.PostalCode),
		nullIfEmpty(string(rule.Timing)),
		rule.BudgetMin,
		rule.BudgetMax,
		nullIfEmpty(rule.PropertyType),
		rule.IsExclusive,
		rule.BasePriceMinor,
		rule.SurgeMultiplier,
		rule.ExclusiveMultiplier,
		rule.Priority,
		rule.IsActive,
		rule.UpdatedAt,
	)
	if err != nil {
		return Rule{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Rule{}, err
	}
	if n == 0 {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (Rule, error) {
	var rule Rule
	var timing string
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.ServiceID,
		&rule.Region,
		&rule.City,
		&rule.PostalCode,
		&timing,
		&rule.BudgetMin,
		&rule.BudgetMax,
		&rule.PropertyType,
		&rule.IsExclusive,
		&rule.BasePriceMinor,
		&rule.SurgeMultiplier,
		&rule.ExclusiveMultiplier,
		&rule.Priority,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	rule.Timing = Timing(timing)
	return rule, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
