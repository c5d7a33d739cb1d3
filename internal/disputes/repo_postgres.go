package disputes

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists disputes.
//
// Table: call_disputes. The one-open-dispute-per-call invariant is also
// guarded by a partial unique index:
// UNIQUE (call_log_id) WHERE status IN ('pending','under_review')
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectDispute = `
SELECT id, company_id, call_log_id, type, status, COALESCE(reason, ''),
       refund_amount_minor, COALESCE(refund_transaction_id, ''),
       COALESCE(resolved_by, ''), COALESCE(resolution_notes, ''), resolved_at,
       created_at, updated_at
FROM call_disputes
`

func (r *PostgresRepo) Create(ctx context.Context, d Dispute) error {
	const q = `
INSERT INTO call_disputes (
  id, company_id, call_log_id, type, status, reason,
  refund_amount_minor, refund_transaction_id, resolved_by, resolution_notes,
  resolved_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
`
	_, err := r.db.ExecContext(ctx, q,
		d.ID,
		d.CompanyID,
		d.CallLogID,
		d.Type,
		d.Status,
		nullIfEmpty(d.Reason),
		d.RefundAmountMinor,
		nullIfEmpty(d.RefundTransactionID),
		nullIfEmpty(d.ResolvedBy),
		nullIfEmpty(d.ResolutionNotes),
		d.ResolvedAt,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, companyID, id string) (Dispute, error) {
	d, err := scanDispute(r.db.QueryRowContext(ctx, selectDispute+` WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dispute{}, ErrNotFound
		}
		return Dispute{}, err
	}
	return d, nil
}

func (r *PostgresRepo) Update(ctx context.Context, d Dispute) error {
	const q = `
UPDATE call_disputes
SET status = $3, refund_amount_minor = $4, refund_transaction_id = $5,
    resolved_by = $6, resolution_notes = $7, resolved_at = $8, updated_at = $9
WHERE company_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q,
		d.CompanyID,
		d.ID,
		d.Status,
		d.RefundAmountMinor,
		nullIfEmpty(d.RefundTransactionID),
		nullIfEmpty(d.ResolvedBy),
		nullIfEmpty(d.ResolutionNotes),
		d.ResolvedAt,
		d.UpdatedAt,
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

func (r *PostgresRepo) HasOpen(ctx context.Context, callLogID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM call_disputes
  WHERE call_log_id = $1 AND status IN ($2, $3)
)
`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, callLogID, StatusPending, StatusUnderReview).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Dispute, error) {
	filter = filter.withDefaults()

	q := selectDispute + ` WHERE company_id = $1`
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

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (Dispute, error) {
	var d Dispute
	err := row.Scan(
		&d.ID,
		&d.CompanyID,
		&d.CallLogID,
		&d.Type,
		&d.Status,
		&d.Reason,
		&d.RefundAmountMinor,
		&d.RefundTransactionID,
		&d.ResolvedBy,
		&d.ResolutionNotes,
		&d.ResolvedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
