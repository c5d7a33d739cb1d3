package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists call logs.
//
// Table: call_logs, with UNIQUE (provider_call_id) for webhook re-delivery.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectCall = `
SELECT id, company_id, COALESCE(service_id, ''), COALESCE(campaign_id, ''),
       caller_number, tracking_number, duration_seconds,
       COALESCE(region, ''), COALESCE(city, ''), COALESCE(postal_code, ''),
       billing_status, billing_price_minor, COALESCE(charge_transaction_id, ''),
       billed_at, dispute_locked_at, COALESCE(provider_call_id, ''), occurred_at,
       created_at, updated_at
FROM call_logs
`

func (r *PostgresRepo) Create(ctx context.Context, c CallLog) error {
	const q = `
INSERT INTO call_logs (
  id, company_id, service_id, campaign_id, caller_number, tracking_number,
  duration_seconds, region, city, postal_code, billing_status,
  billing_price_minor, charge_transaction_id, billed_at, dispute_locked_at,
  provider_call_id, occurred_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.CompanyID,
		nullIfEmpty(c.ServiceID),
		nullIfEmpty(c.CampaignID),
		c.CallerNumber,
		c.TrackingNumber,
		c.DurationSeconds,
		nullIfEmpty(c.Region),
		nullIfEmpty(c.City),
		nullIfEmpty(c.PostalCode),
		c.BillingStatus,
		c.BillingPriceMinor,
		nullIfEmpty(c.ChargeTransactionID),
		c.BilledAt,
		c.DisputeLockedAt,
		nullIfEmpty(c.ProviderCallID),
		c.OccurredAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, companyID, id string) (CallLog, error) {
	c, err := scanCall(r.db.QueryRowContext(ctx, selectCall+` WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	return c, nil
}

func (r *PostgresRepo) FindByProviderCallID(ctx context.Context, providerCallID string) (CallLog, bool, error) {
	c, err := scanCall(r.db.QueryRowContext(ctx, selectCall+` WHERE provider_call_id = $1`, providerCallID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, false, nil
		}
		return CallLog{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]CallLog, error) {
	filter = filter.withDefaults()

	q := selectCall + ` WHERE company_id = $1`
	args := []any{companyID}
	if filter.BillingStatus != "" {
		q += ` AND billing_status = $2`
		args = append(args, filter.BillingStatus)
	}
	q += ` ORDER BY occurred_at DESC, id DESC`
	if len(args) == 1 {
		q += ` LIMIT $2 OFFSET $3`
	} else {
		q += ` LIMIT $3 OFFSET $4`
	}
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, c CallLog) error {
	const q = `
UPDATE call_logs
SET duration_seconds = $3, billing_status = $4, billing_price_minor = $5,
    charge_transaction_id = $6, billed_at = $7, dispute_locked_at = $8,
    updated_at = $9
WHERE company_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q,
		c.CompanyID,
		c.ID,
		c.DurationSeconds,
		c.BillingStatus,
		c.BillingPriceMinor,
		nullIfEmpty(c.ChargeTransactionID),
		c.BilledAt,
		c.DisputeLockedAt,
		c.UpdatedAt,
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

func (r *PostgresRepo) ListDisputeLockCandidates(ctx context.Context, cutoff time.Time, limit int) ([]CallLog, error) {
	if limit <= 0 {
		limit = 500
	}
	const q = selectCall + `
WHERE billing_status = $1 AND dispute_locked_at IS NULL AND billed_at < $2
ORDER BY billed_at ASC
LIMIT $3
`
	rows, err := r.db.QueryContext(ctx, q, BillingStatusBilled, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (CallLog, error) {
	var c CallLog
	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.ServiceID,
		&c.CampaignID,
		&c.CallerNumber,
		&c.TrackingNumber,
		&c.DurationSeconds,
		&c.Region,
		&c.City,
		&c.PostalCode,
		&c.BillingStatus,
		&c.BillingPriceMinor,
		&c.ChargeTransactionID,
		&c.BilledAt,
		&c.DisputeLockedAt,
		&c.ProviderCallID,
		&c.OccurredAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
