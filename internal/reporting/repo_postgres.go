package reporting

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/wallet"
)

// PostgresRepo serves reporting queries from the domain tables. Rows are
// hydrated with only the columns the aggregations consume.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListCalls(ctx context.Context, companyID string, from, to time.Time) ([]calls.CallLog, error) {
	const q = `
SELECT id, company_id, billing_status, billed_at, created_at
FROM call_logs
WHERE company_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := r.db.QueryContext(ctx, q, companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calls.CallLog
	for rows.Next() {
		var c calls.CallLog
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.BillingStatus, &c.BilledAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListDisputes(ctx context.Context, companyID string, from, to time.Time) ([]disputes.Dispute, error) {
	const q = `
SELECT id, company_id, status, created_at
FROM call_disputes
WHERE company_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := r.db.QueryContext(ctx, q, companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []disputes.Dispute
	for rows.Next() {
		var d disputes.Dispute
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListTransactions(ctx context.Context, companyID string, from, to time.Time) ([]wallet.Transaction, error) {
	const q = `
SELECT id, company_id, type, amount_minor, created_at
FROM wallet_transactions
WHERE company_id = $1 AND created_at >= $2 AND created_at < $3
`
	rows, err := r.db.QueryContext(ctx, q, companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []wallet.Transaction
	for rows.Next() {
		var t wallet.Transaction
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Type, &t.AmountMinor, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListLeads(ctx context.Context, from, to time.Time) ([]leads.LeadRequest, error) {
	const q = `
SELECT id, service_id, status, created_at
FROM lead_requests
WHERE created_at >= $1 AND created_at < $2
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leads.LeadRequest
	for rows.Next() {
		var l leads.LeadRequest
		if err := rows.Scan(&l.ID, &l.ServiceID, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListMatches(ctx context.Context, from, to time.Time) ([]matches.Match, error) {
	const q = `
SELECT id, lead_id, status, lead_price_minor, created_at
FROM lead_matches
WHERE created_at >= $1 AND created_at < $2
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matches.Match
	for rows.Next() {
		var m matches.Match
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Status, &m.LeadPriceMinor, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetWallet(ctx context.Context, companyID string) (wallet.Wallet, error) {
	const q = `
SELECT id, company_id, currency, balance_minor
FROM wallets
WHERE company_id = $1
`
	var w wallet.Wallet
	err := r.db.QueryRowContext(ctx, q, companyID).Scan(&w.ID, &w.CompanyID, &w.Currency, &w.BalanceMinor)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.Wallet{}, wallet.ErrNotFound
	}
	if err != nil {
		return wallet.Wallet{}, err
	}
	return w, nil
}
