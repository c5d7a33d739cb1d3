package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
// A single mutex stands in for the Postgres row lock.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu      sync.Mutex
	wallets map[string]*Wallet // keyed by company_id
	ledger  []Transaction
	clock   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		wallets: make(map[string]*Wallet),
		clock:   time.Now,
	}
}

func (r *MemoryRepo) Ensure(ctx context.Context, companyID, currency string) (Wallet, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.wallets[companyID]; ok {
		return *w, nil
	}
	now := r.clock().UTC()
	w := &Wallet{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Currency:  currency,
		Status:    WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.wallets[companyID] = w
	return *w, nil
}

func (r *MemoryRepo) Get(ctx context.Context, companyID string) (Wallet, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wallets[companyID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return *w, nil
}

func (r *MemoryRepo) GetTransaction(ctx context.Context, companyID, transactionID string) (Transaction, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.ledger {
		if t.CompanyID == companyID && t.ID == transactionID {
			return t, nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (r *MemoryRepo) ListTransactions(ctx context.Context, companyID string, filter TransactionFilter) ([]Transaction, error) {
	_ = ctx
	filter = filter.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Transaction
	for _, t := range r.ledger {
		if t.CompanyID != companyID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Post(ctx context.Context, entry Transaction) (Transaction, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wallets[entry.CompanyID]
	if !ok || w.ID != entry.WalletID {
		return Transaction{}, false, ErrNotFound
	}
	if w.Currency != entry.Currency {
		return Transaction{}, false, ErrInvalidArgument
	}

	for _, t := range r.ledger {
		if t.CompanyID == entry.CompanyID && t.IdempotencyKey == entry.IdempotencyKey {
			return t, false, nil
		}
	}

	if entry.AmountMinor < 0 && w.BalanceMinor+entry.AmountMinor < 0 {
		return Transaction{}, false, ErrInsufficientFunds
	}

	if entry.Type == TransactionTypeRefund && entry.RelatedTransactionID != "" {
		var orig *Transaction
		for i := range r.ledger {
			t := &r.ledger[i]
			if t.CompanyID == entry.CompanyID && t.ID == entry.RelatedTransactionID {
				orig = t
				break
			}
		}
		if orig == nil {
			return Transaction{}, false, ErrNotFound
		}
		if orig.Type != TransactionTypeCharge {
			return Transaction{}, false, ErrNotRefundable
		}
		var refunded int64
		for _, t := range r.ledger {
			if t.CompanyID == entry.CompanyID && t.Type == TransactionTypeRefund && t.RelatedTransactionID == entry.RelatedTransactionID {
				refunded += t.AmountMinor
			}
		}
		if refunded+entry.AmountMinor > -orig.AmountMinor {
			return Transaction{}, false, ErrRefundExceedsCharge
		}
	}

	entry.BalanceBeforeMinor = w.BalanceMinor
	entry.BalanceAfterMinor = w.BalanceMinor + entry.AmountMinor
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock().UTC()
	}

	r.ledger = append(r.ledger, entry)
	w.BalanceMinor = entry.BalanceAfterMinor
	if entry.Type == TransactionTypePurchase {
		w.LifetimePurchasedMinor += entry.AmountMinor
	}
	if entry.AmountMinor < 0 {
		w.LifetimeSpentMinor += -entry.AmountMinor
	}
	w.UpdatedAt = entry.CreatedAt

	return entry, true, nil
}
