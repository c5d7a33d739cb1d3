package payments

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists packages, promo codes and payments.
// Tables: credit_packages, promo_codes, payments.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreatePackage(ctx context.Context, p CreditPackage) error {
	const q = `
INSERT INTO credit_packages (id, name, price_minor, credits_minor, bonus_minor, is_active, sort_order, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Name, p.PriceMinor, p.CreditsMinor, p.BonusMinor, p.IsActive, p.SortOrder, p.CreatedAt, p.UpdatedAt)
	return err
}

const selectPackage = `
SELECT id, name, price_minor, credits_minor, bonus_minor, is_active, sort_order, created_at, updated_at
FROM credit_packages
`

func (r *PostgresRepo) GetPackage(ctx context.Context, id string) (CreditPackage, error) {
	var p CreditPackage
	err := r.db.QueryRowContext(ctx, selectPackage+` WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.PriceMinor, &p.CreditsMinor, &p.BonusMinor, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CreditPackage{}, ErrNotFound
		}
		return CreditPackage{}, err
	}
	return p, nil
}

func (r *PostgresRepo) ListPackages(ctx context.Context, activeOnly bool) ([]CreditPackage, error) {
	q := selectPackage
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY sort_order ASC, price_minor ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CreditPackage
	for rows.Next() {
		var p CreditPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceMinor, &p.CreditsMinor, &p.BonusMinor, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdatePackage(ctx context.Context, p CreditPackage) error {
	const q = `
UPDATE credit_packages
SET name = $2, price_minor = $3, credits_minor = $4, bonus_minor = $5,
    is_active = $6, sort_order = $7, updated_at = $8
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, p.ID, p.Name, p.PriceMinor, p.CreditsMinor, p.BonusMinor, p.IsActive, p.SortOrder, p.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepo) CreatePromo(ctx context.Context, p PromoCode) error {
	const q = `
INSERT INTO promo_codes (id, code, type, value, min_purchase_minor, max_uses, used_count, valid_from, valid_until, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Code, p.Type, p.Value, p.MinPurchaseMinor, p.MaxUses, p.UsedCount, p.ValidFrom, p.ValidUntil, p.IsActive, p.CreatedAt)
	return err
}

func (r *PostgresRepo) GetPromoByCode(ctx context.Context, code string) (PromoCode, error) {
	const q = `
SELECT id, code, type, value, min_purchase_minor, max_uses, used_count, valid_from, valid_until, is_active, created_at
FROM promo_codes
WHERE UPPER(code) = UPPER($1)
`
	var p PromoCode
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&p.ID, &p.Code, &p.Type, &p.Value, &p.MinPurchaseMinor, &p.MaxUses, &p.UsedCount, &p.ValidFrom, &p.ValidUntil, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PromoCode{}, ErrNotFound
		}
		return PromoCode{}, err
	}
	return p, nil
}

func (r *PostgresRepo) IncrementPromoUse(ctx context.Context, id string) error {
	const q = `
UPDATE promo_codes
SET used_count = used_count + 1
WHERE id = $1 AND (max_uses = 0 OR used_count < max_uses)
`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		if scanErr := r.db.QueryRowContext(ctx, `SELECT 1 FROM promo_codes WHERE id = $1`, id).Scan(&one); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
		return ErrPromoExhausted
	}
	return nil
}

func (r *PostgresRepo) CreatePayment(ctx context.Context, p Payment) error {
	const q = `
INSERT INTO payments (id, company_id, package_id, promo_code_id, amount_minor, credits_minor, bonus_minor, status, checkout_session_id, created_at, updated_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.CompanyID, p.PackageID, nullIfEmpty(p.PromoCodeID),
		p.AmountMinor, p.CreditsMinor, p.BonusMinor, p.Status,
		nullIfEmpty(p.CheckoutSessionID), p.CreatedAt, p.UpdatedAt, p.CompletedAt,
	)
	return err
}

const selectPayment = `
SELECT id, company_id, package_id, COALESCE(promo_code_id, ''),
       amount_minor, credits_minor, bonus_minor, status,
       COALESCE(checkout_session_id, ''), created_at, updated_at, completed_at
FROM payments
`

func (r *PostgresRepo) GetPayment(ctx context.Context, id string) (Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, selectPayment+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *PostgresRepo) UpdatePayment(ctx context.Context, p Payment) error {
	const q = `
UPDATE payments
SET status = $2, checkout_session_id = $3, updated_at = $4, completed_at = $5
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, p.ID, p.Status, nullIfEmpty(p.CheckoutSessionID), p.UpdatedAt, p.CompletedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepo) ListPayments(ctx context.Context, companyID string, limit, offset int) ([]Payment, error) {
	const q = selectPayment + `
WHERE company_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.QueryContext(ctx, q, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.PackageID, &p.PromoCodeID,
		&p.AmountMinor, &p.CreditsMinor, &p.BonusMinor, &p.Status,
		&p.CheckoutSessionID, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
	)
	return p, err
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
