package wallet

import "context"

// Repository abstracts wallet persistence.
//
// Post is the only write path for money. Implementations MUST apply the entry
// atomically under a per-wallet lock:
//   - if an entry with the same (company_id, idempotency_key) exists, return it
//     unchanged with applied=false and make no other change
//   - reject debits that would drive the balance negative (ErrInsufficientFunds)
//     leaving no trace in the ledger
//   - for refunds with a RelatedTransactionID, reject amounts that would push
//     cumulative refunds past the original charge (ErrRefundExceedsCharge)
//   - stamp BalanceBeforeMinor/BalanceAfterMinor from the locked balance
type Repository interface {
	Ensure(ctx context.Context, companyID, currency string) (Wallet, error)
	Get(ctx context.Context, companyID string) (Wallet, error)
	GetTransaction(ctx context.Context, companyID, transactionID string) (Transaction, error)
	ListTransactions(ctx context.Context, companyID string, filter TransactionFilter) ([]Transaction, error)
	Post(ctx context.Context, entry Transaction) (applied Transaction, wasNew bool, err error)
}

// TransactionFilter narrows ListTransactions. Zero value lists everything,
// newest first, with a sane default page size.
type TransactionFilter struct {
	Type   TransactionType
	Limit  int
	Offset int
}

func (f TransactionFilter) withDefaults() TransactionFilter {
	out := f
	if out.Limit <= 0 || out.Limit > 200 {
		out.Limit = 50
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}
