package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"leadmarket-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresRepo persists wallets and the transaction ledger.
//
// Tables:
// - wallets              (one row per company; balance projection lives here)
// - wallet_transactions  (immutable append-only)
//
// It also assumes an idempotency constraint:
// UNIQUE (company_id, idempotency_key) on wallet_transactions
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func (r *PostgresRepo) Ensure(ctx context.Context, companyID, currency string) (Wallet, error) {
	now := r.clock().UTC()
	const q = `
INSERT INTO wallets (id, company_id, currency, balance_minor, lifetime_purchased_minor, lifetime_spent_minor, status, created_at, updated_at)
VALUES ($1,$2,$3,0,0,0,$4,$5,$5)
ON CONFLICT (company_id) DO UPDATE SET updated_at = wallets.updated_at
RETURNING id, company_id, currency, balance_minor, lifetime_purchased_minor, lifetime_spent_minor, status, created_at, updated_at
`
	var w Wallet
	err := r.db.QueryRowContext(ctx, q, uuid.NewString(), companyID, currency, WalletStatusActive, now).Scan(
		&w.ID,
		&w.CompanyID,
		&w.Currency,
		&w.BalanceMinor,
		&w.LifetimePurchasedMinor,
		&w.LifetimeSpentMinor,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	return w, err
}

func (r *PostgresRepo) Get(ctx context.Context, companyID string) (Wallet, error) {
	const q = `
SELECT id, company_id, currency, balance_minor, lifetime_purchased_minor, lifetime_spent_minor, status, created_at, updated_at
FROM wallets
WHERE company_id = $1
`
	var w Wallet
	if err := r.db.QueryRowContext(ctx, q, companyID).Scan(
		&w.ID,
		&w.CompanyID,
		&w.Currency,
		&w.BalanceMinor,
		&w.LifetimePurchasedMinor,
		&w.LifetimeSpentMinor,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

func (r *PostgresRepo) GetTransaction(ctx context.Context, companyID, transactionID string) (Transaction, error) {
	const q = selectTransaction + `
WHERE company_id = $1 AND id = $2
`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, companyID, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *PostgresRepo) ListTransactions(ctx context.Context, companyID string, filter TransactionFilter) ([]Transaction, error) {
	filter = filter.withDefaults()

	q := selectTransaction + `
WHERE company_id = $1
`
	args := []any{companyID}
	if filter.Type != "" {
		q += ` AND type = $2`
		args = append(args, filter.Type)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	q += limitOffset(len(args), filter.Limit, filter.Offset)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Post applies an entry atomically under a row lock on the wallet.
// See Repository for the invariants enforced here.
func (r *PostgresRepo) Post(ctx context.Context, entry Transaction) (Transaction, bool, error) {
	var out Transaction
	wasNew := false

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		w, err := lockWallet(ctx, tx, entry.CompanyID, entry.WalletID)
		if err != nil {
			return err
		}
		if w.Currency != entry.Currency {
			return ErrInvalidArgument
		}

		// Idempotency: return the already-applied entry untouched.
		if existing, ok, err := findByIdempotency(ctx, tx, entry.CompanyID, entry.IdempotencyKey); err != nil {
			return err
		} else if ok {
			out = existing
			return nil
		}

		if entry.AmountMinor < 0 && w.BalanceMinor+entry.AmountMinor < 0 {
			return ErrInsufficientFunds
		}

		if entry.Type == TransactionTypeRefund && entry.RelatedTransactionID != "" {
			charged, refunded, err := refundTotals(ctx, tx, entry.CompanyID, entry.RelatedTransactionID)
			if err != nil {
				return err
			}
			if refunded+entry.AmountMinor > charged {
				return ErrRefundExceedsCharge
			}
		}

		entry.BalanceBeforeMinor = w.BalanceMinor
		entry.BalanceAfterMinor = w.BalanceMinor + entry.AmountMinor
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = r.clock().UTC()
		}

		if err := insertTransaction(ctx, tx, entry); err != nil {
			return err
		}

		purchasedDelta := int64(0)
		if entry.Type == TransactionTypePurchase {
			purchasedDelta = entry.AmountMinor
		}
		spentDelta := int64(0)
		if entry.AmountMinor < 0 {
			spentDelta = -entry.AmountMinor
		}
		if err := updateWalletBalance(ctx, tx, entry.CompanyID, entry.WalletID, entry.BalanceAfterMinor, purchasedDelta, spentDelta, entry.CreatedAt); err != nil {
			return err
		}

		out = entry
		wasNew = true
		return nil
	})

	return out, wasNew, err
}

/* ===================== TX HELPERS ===================== */

func lockWallet(ctx context.Context, tx *sql.Tx, companyID, walletID string) (Wallet, error) {
	// Lock the wallet row to serialize concurrent money operations per wallet.
	const q = `
SELECT id, company_id, currency, balance_minor, lifetime_purchased_minor, lifetime_spent_minor, status, created_at, updated_at
FROM wallets
WHERE company_id = $1 AND id = $2
FOR UPDATE
`
	var w Wallet
	if err := tx.QueryRowContext(ctx, q, companyID, walletID).Scan(
		&w.ID,
		&w.CompanyID,
		&w.Currency,
		&w.BalanceMinor,
		&w.LifetimePurchasedMinor,
		&w.LifetimeSpentMinor,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

func findByIdempotency(ctx context.Context, tx *sql.Tx, companyID, key string) (Transaction, bool, error) {
	const q = selectTransaction + `
WHERE company_id = $1 AND idempotency_key = $2
LIMIT 1
`
	t, err := scanTransaction(tx.QueryRowContext(ctx, q, companyID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}
	return t, true, nil
}

// refundTotals returns the original charged amount (positive) and the sum of
// refunds already posted against it.
func refundTotals(ctx context.Context, tx *sql.Tx, companyID, chargeID string) (int64, int64, error) {
	const qCharge = `
SELECT type, amount_minor
FROM wallet_transactions
WHERE company_id = $1 AND id = $2
`
	var typ TransactionType
	var amount int64
	if err := tx.QueryRowContext(ctx, qCharge, companyID, chargeID).Scan(&typ, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	if typ != TransactionTypeCharge {
		return 0, 0, ErrNotRefundable
	}

	const qSum = `
SELECT COALESCE(SUM(amount_minor), 0)
FROM wallet_transactions
WHERE company_id = $1 AND related_transaction_id = $2 AND type = $3
`
	var refunded int64
	if err := tx.QueryRowContext(ctx, qSum, companyID, chargeID, TransactionTypeRefund).Scan(&refunded); err != nil {
		return 0, 0, err
	}
	return -amount, refunded, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, e Transaction) error {
	const q = `
INSERT INTO wallet_transactions (
  id, company_id, wallet_id, type, amount_minor, currency,
  balance_before_minor, balance_after_minor, description,
  reference_type, reference_id, related_transaction_id, idempotency_key, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
`
	_, err := tx.ExecContext(ctx, q,
		e.ID,
		e.CompanyID,
		e.WalletID,
		e.Type,
		e.AmountMinor,
		e.Currency,
		e.BalanceBeforeMinor,
		e.BalanceAfterMinor,
		e.Description,
		e.ReferenceType,
		e.ReferenceID,
		nullIfEmpty(e.RelatedTransactionID),
		e.IdempotencyKey,
		e.CreatedAt,
	)
	return err
}

func updateWalletBalance(ctx context.Context, tx *sql.Tx, companyID, walletID string, balanceMinor, purchasedDelta, spentDelta int64, now time.Time) error {
	const q = `
UPDATE wallets
SET balance_minor = $3,
    lifetime_purchased_minor = lifetime_purchased_minor + $4,
    lifetime_spent_minor = lifetime_spent_minor + $5,
    updated_at = $6
WHERE company_id = $1 AND id = $2
`
	_, err := tx.ExecContext(ctx, q, companyID, walletID, balanceMinor, purchasedDelta, spentDelta, now)
	return err
}

const selectTransaction = `
SELECT id, company_id, wallet_id, type, amount_minor, currency,
       balance_before_minor, balance_after_minor, description,
       reference_type, reference_id, COALESCE(related_transaction_id, ''), idempotency_key, created_at
FROM wallet_transactions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.CompanyID,
		&t.WalletID,
		&t.Type,
		&t.AmountMinor,
		&t.Currency,
		&t.BalanceBeforeMinor,
		&t.BalanceAfterMinor,
		&t.Description,
		&t.ReferenceType,
		&t.ReferenceID,
		&t.RelatedTransactionID,
		&t.IdempotencyKey,
		&t.CreatedAt,
	)
	return t, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func limitOffset(argsSoFar, limit, offset int) string {
	_ = limit
	_ = offset
	switch argsSoFar {
	case 1:
		return ` LIMIT $2 OFFSET $3`
	default:
		return ` LIMIT $3 OFFSET $4`
	}
}
