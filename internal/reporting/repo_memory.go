package reporting

import (
	"context"
	"sync"
	"time"

	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/wallet"
)

// MemoryRepo serves reporting queries from in-memory slices. Tests seed it
// directly.
type MemoryRepo struct {
	mu sync.Mutex

	Calls        []calls.CallLog
	Disputes     []disputes.Dispute
	Transactions []wallet.Transaction
	Leads        []leads.LeadRequest
	Matches      []matches.Match
	Wallets      map[string]wallet.Wallet
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Wallets: make(map[string]wallet.Wallet)}
}

func (r *MemoryRepo) ListCalls(ctx context.Context, companyID string, from, to time.Time) ([]calls.CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []calls.CallLog
	for _, c := range r.Calls {
		if c.CompanyID == companyID && inRange(c.CreatedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListDisputes(ctx context.Context, companyID string, from, to time.Time) ([]disputes.Dispute, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []disputes.Dispute
	for _, d := range r.Disputes {
		if d.CompanyID == companyID && inRange(d.CreatedAt, from, to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListTransactions(ctx context.Context, companyID string, from, to time.Time) ([]wallet.Transaction, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []wallet.Transaction
	for _, t := range r.Transactions {
		if t.CompanyID == companyID && inRange(t.CreatedAt, from, to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListLeads(ctx context.Context, from, to time.Time) ([]leads.LeadRequest, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []leads.LeadRequest
	for _, l := range r.Leads {
		if inRange(l.CreatedAt, from, to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListMatches(ctx context.Context, from, to time.Time) ([]matches.Match, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []matches.Match
	for _, m := range r.Matches {
		if inRange(m.CreatedAt, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemoryRepo) GetWallet(ctx context.Context, companyID string) (wallet.Wallet, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.Wallets[companyID]
	if !ok {
		return wallet.Wallet{}, wallet.ErrNotFound
	}
	return w, nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
