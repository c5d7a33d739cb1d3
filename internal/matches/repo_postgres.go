package matches

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists matches. Table: lead_matches.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectMatch = `
SELECT id, lead_id, company_id, status, lead_price_minor,
       COALESCE(charge_transaction_id, ''), COALESCE(refund_transaction_id, ''),
       offered_at, viewed_at, accepted_at, expires_at,
       COALESCE(response_time_minutes, 0),
       COALESCE(quote_amount_minor, 0), COALESCE(quote_message, ''),
       COALESCE(won_value_minor, 0), COALESCE(lost_reason, ''),
       created_at, updated_at
FROM lead_matches
`

func (r *PostgresRepo) Create(ctx context.Context, m Match) error {
	const q = `
INSERT INTO lead_matches (
  id, lead_id, company_id, status, lead_price_minor,
  charge_transaction_id, refund_transaction_id,
  offered_at, viewed_at, accepted_at, expires_at,
  response_time_minutes, quote_amount_minor, quote_message,
  won_value_minor, lost_reason, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
)
`
	_, err := r.db.ExecContext(ctx, q,
		m.ID,
		m.LeadID,
		m.CompanyID,
		m.Status,
		m.LeadPriceMinor,
		nullIfEmpty(m.ChargeTransactionID),
		nullIfEmpty(m.RefundTransactionID),
		m.OfferedAt,
		m.ViewedAt,
		m.AcceptedAt,
		m.ExpiresAt,
		m.ResponseTimeMinutes,
		m.QuoteAmountMinor,
		nullIfEmpty(m.QuoteMessage),
		m.WonValueMinor,
		nullIfEmpty(m.LostReason),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, companyID, id string) (Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, selectMatch+` WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, ErrNotFound
		}
		return Match{}, err
	}
	return m, nil
}

func (r *PostgresRepo) Update(ctx context.Context, m Match) error {
	const q = `
UPDATE lead_matches
SET status = $3, charge_transaction_id = $4, refund_transaction_id = $5,
    viewed_at = $6, accepted_at = $7, response_time_minutes = $8,
    quote_amount_minor = $9, quote_message = $10,
    won_value_minor = $11, lost_reason = $12, updated_at = $13
WHERE company_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q,
		m.CompanyID,
		m.ID,
		m.Status,
		nullIfEmpty(m.ChargeTransactionID),
		nullIfEmpty(m.RefundTransactionID),
		m.ViewedAt,
		m.AcceptedAt,
		m.ResponseTimeMinutes,
		m.QuoteAmountMinor,
		nullIfEmpty(m.QuoteMessage),
		m.WonValueMinor,
		nullIfEmpty(m.LostReason),
		m.UpdatedAt,
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

func (r *PostgresRepo) ClaimForAccept(ctx context.Context, companyID, id string, at time.Time) (Match, error) {
	const q = `
UPDATE lead_matches
SET status = $3,
    accepted_at = $4,
    response_time_minutes = FLOOR(EXTRACT(EPOCH FROM ($4::timestamptz - offered_at)) / 60)::int,
    updated_at = $4
WHERE company_id = $1 AND id = $2 AND status IN ($5, $6)
RETURNING id, lead_id, company_id, status, lead_price_minor,
          COALESCE(charge_transaction_id, ''), COALESCE(refund_transaction_id, ''),
          offered_at, viewed_at, accepted_at, expires_at,
          COALESCE(response_time_minutes, 0),
          COALESCE(quote_amount_minor, 0), COALESCE(quote_message, ''),
          COALESCE(won_value_minor, 0), COALESCE(lost_reason, ''),
          created_at, updated_at
`
	m, err := scanMatch(r.db.QueryRowContext(ctx, q, companyID, id, StatusAccepted, at, StatusOffered, StatusViewed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing row from one that is no longer open.
			if _, getErr := r.Get(ctx, companyID, id); getErr != nil {
				return Match{}, getErr
			}
			return Match{}, ErrNotOpen
		}
		return Match{}, err
	}
	return m, nil
}

func (r *PostgresRepo) ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Match, error) {
	filter = filter.withDefaults()

	q := selectMatch + ` WHERE company_id = $1`
	args := []any{companyID}
	if filter.Status != "" {
		q += ` AND status = $2`
		args = append(args, filter.Status)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	if len(args) == 1 {
		q += ` LIMIT $2 OFFSET $3`
	} else {
		q += ` LIMIT $3 OFFSET $4`
	}
	args = append(args, filter.Limit, filter.Offset)

	return r.queryMatches(ctx, q, args...)
}

func (r *PostgresRepo) ListByLead(ctx context.Context, leadID string) ([]Match, error) {
	return r.queryMatches(ctx, selectMatch+` WHERE lead_id = $1 ORDER BY created_at ASC`, leadID)
}

func (r *PostgresRepo) ExpireOpenSiblings(ctx context.Context, leadID, keepID string, at time.Time) (int, error) {
	const q = `
UPDATE lead_matches
SET status = $4, updated_at = $3
WHERE lead_id = $1 AND id <> $2 AND status IN ($5, $6)
`
	res, err := r.db.ExecContext(ctx, q, leadID, keepID, at, StatusExpired, StatusOffered, StatusViewed)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PostgresRepo) ListExpiredOpen(ctx context.Context, cutoff time.Time, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = selectMatch + `
WHERE status IN ($2, $3) AND expires_at < $1
ORDER BY expires_at ASC
LIMIT $4
`
	return r.queryMatches(ctx, q, cutoff, StatusOffered, StatusViewed, limit)
}

func (r *PostgresRepo) queryMatches(ctx context.Context, q string, args ...any) ([]Match, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (Match, error) {
	var m Match
	err := row.Scan(
		&m.ID,
		&m.LeadID,
		&m.CompanyID,
		&m.Status,
		&m.LeadPriceMinor,
		&m.ChargeTransactionID,
		&m.RefundTransactionID,
		&m.OfferedAt,
		&m.ViewedAt,
		&m.AcceptedAt,
		&m.ExpiresAt,
		&m.ResponseTimeMinutes,
		&m.QuoteAmountMinor,
		&m.QuoteMessage,
		&m.WonValueMinor,
		&m.LostReason,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
