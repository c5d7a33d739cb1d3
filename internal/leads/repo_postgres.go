package leads

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// PostgresRepo persists leads. Table: lead_requests.
//
// Slot reservation is a single conditional UPDATE so two concurrent accepts
// can never oversell a lead.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectLead = `
SELECT id, service_id,
       COALESCE(region, ''), COALESCE(city, ''), COALESCE(postal_code, ''),
       lat, lng,
       COALESCE(contact_name, ''), COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
       COALESCE(title, ''), COALESCE(description, ''),
       budget_min_minor, budget_max_minor,
       COALESCE(timing, ''), COALESCE(property_type, ''), is_exclusive,
       COALESCE(source, ''), COALESCE(source_ip, ''),
       quality_score, status, price_minor, COALESCE(rule_id, 0),
       max_sold_count, current_sold_count,
       routed_at, expires_at, created_at, updated_at
FROM lead_requests
`

func (r *PostgresRepo) Create(ctx context.Context, l LeadRequest) error {
	const q = `
INSERT INTO lead_requests (
  id, service_id, region, city, postal_code, lat, lng,
  contact_name, contact_email, contact_phone, title, description,
  budget_min_minor, budget_max_minor, timing, property_type, is_exclusive,
  source, source_ip, quality_score, status, price_minor, rule_id,
  max_sold_count, current_sold_count, routed_at, expires_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29
)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID,
		l.ServiceID,
		nullIfEmpty(l.Region),
		nullIfEmpty(l.City),
		nullIfEmpty(l.PostalCode),
		l.Lat,
		l.Lng,
		nullIfEmpty(l.ContactName),
		nullIfEmpty(l.ContactEmail),
		nullIfEmpty(l.ContactPhone),
		nullIfEmpty(l.Title),
		nullIfEmpty(l.Description),
		l.BudgetMinMinor,
		l.BudgetMaxMinor,
		nullIfEmpty(string(l.Timing)),
		nullIfEmpty(l.PropertyType),
		l.IsExclusive,
		nullIfEmpty(l.Source),
		nullIfEmpty(l.SourceIP),
		l.QualityScore,
		l.Status,
		l.PriceMinor,
		nullIfZero(l.RuleID),
		l.MaxSoldCount,
		l.CurrentSoldCount,
		l.RoutedAt,
		l.ExpiresAt,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (LeadRequest, error) {
	l, err := scanLead(r.db.QueryRowContext(ctx, selectLead+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeadRequest{}, ErrNotFound
		}
		return LeadRequest{}, err
	}
	return l, nil
}

func (r *PostgresRepo) Update(ctx context.Context, l LeadRequest) error {
	const q = `
UPDATE lead_requests
SET status = $2, quality_score = $3, price_minor = $4, rule_id = $5,
    max_sold_count = $6, current_sold_count = $7,
    routed_at = $8, expires_at = $9, updated_at = $10
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		l.ID,
		l.Status,
		l.QualityScore,
		l.PriceMinor,
		nullIfZero(l.RuleID),
		l.MaxSoldCount,
		l.CurrentSoldCount,
		l.RoutedAt,
		l.ExpiresAt,
		l.UpdatedAt,
	)
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

func (r *PostgresRepo) List(ctx context.Context, filter ListFilter) ([]LeadRequest, error) {
	filter = filter.withDefaults()

	q := selectLead + ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = $1`
	}
	if filter.ServiceID != "" {
		args = append(args, filter.ServiceID)
		q += ` AND service_id = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY created_at DESC, id DESC`
	args = append(args, filter.Limit)
	q += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	q += ` OFFSET $` + strconv.Itoa(len(args))

	return r.queryLeads(ctx, q, args...)
}

func (r *PostgresRepo) FindRecentDuplicate(ctx context.Context, serviceID, phone, email string, since time.Time) (LeadRequest, bool, error) {
	const q = selectLead + `
WHERE service_id = $1
  AND created_at >= $2
  AND (($3 <> '' AND contact_phone = $3) OR ($4 <> '' AND contact_email = $4))
ORDER BY created_at DESC
LIMIT 1
`
	l, err := scanLead(r.db.QueryRowContext(ctx, q, serviceID, since, phone, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeadRequest{}, false, nil
		}
		return LeadRequest{}, false, err
	}
	return l, true, nil
}

func (r *PostgresRepo) ReserveSlot(ctx context.Context, id string) (LeadRequest, error) {
	const q = `
UPDATE lead_requests
SET current_sold_count = current_sold_count + 1,
    status = CASE WHEN current_sold_count + 1 >= max_sold_count THEN $2 ELSE $3 END,
    updated_at = now()
WHERE id = $1
  AND status IN ($3, $4)
  AND current_sold_count < max_sold_count
RETURNING id
`
	var updated string
	err := r.db.QueryRowContext(ctx, q, id, StatusClosed, StatusPartial, StatusRouted).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing lead from an exhausted one.
			if _, getErr := r.Get(ctx, id); getErr != nil {
				return LeadRequest{}, getErr
			}
			return LeadRequest{}, ErrSoldOut
		}
		return LeadRequest{}, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepo) ReleaseSlot(ctx context.Context, id string) (LeadRequest, error) {
	const q = `
UPDATE lead_requests
SET current_sold_count = GREATEST(current_sold_count - 1, 0),
    status = CASE WHEN current_sold_count - 1 <= 0 THEN $2 ELSE $3 END,
    updated_at = now()
WHERE id = $1
RETURNING id
`
	var updated string
	err := r.db.QueryRowContext(ctx, q, id, StatusRouted, StatusPartial).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeadRequest{}, ErrNotFound
		}
		return LeadRequest{}, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepo) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]LeadRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = selectLead + `
WHERE status IN ($2, $3, $4, $5) AND expires_at < $1
ORDER BY expires_at ASC
LIMIT $6
`
	return r.queryLeads(ctx, q, cutoff, StatusNew, StatusRouting, StatusRouted, StatusPartial, limit)
}

func (r *PostgresRepo) queryLeads(ctx context.Context, q string, args ...any) ([]LeadRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeadRequest
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (LeadRequest, error) {
	var l LeadRequest
	err := row.Scan(
		&l.ID,
		&l.ServiceID,
		&l.Region,
		&l.City,
		&l.PostalCode,
		&l.Lat,
		&l.Lng,
		&l.ContactName,
		&l.ContactEmail,
		&l.ContactPhone,
		&l.Title,
		&l.Description,
		&l.BudgetMinMinor,
		&l.BudgetMaxMinor,
		&l.Timing,
		&l.PropertyType,
		&l.IsExclusive,
		&l.Source,
		&l.SourceIP,
		&l.QualityScore,
		&l.Status,
		&l.PriceMinor,
		&l.RuleID,
		&l.MaxSoldCount,
		&l.CurrentSoldCount,
		&l.RoutedAt,
		&l.ExpiresAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
