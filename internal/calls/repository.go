package calls

import (
	"context"
	"time"
)

// Repository abstracts call log persistence.
type Repository interface {
	Create(ctx context.Context, c CallLog) error
	Get(ctx context.Context, companyID, id string) (CallLog, error)
	FindByProviderCallID(ctx context.Context, providerCallID string) (CallLog, bool, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]CallLog, error)
	Update(ctx context.Context, c CallLog) error

	// ListDisputeLockCandidates returns billed calls whose billed_at is before
	// cutoff and which have not been dispute-locked yet. Used by the sweep.
	ListDisputeLockCandidates(ctx context.Context, cutoff time.Time, limit int) ([]CallLog, error)
}

type ListFilter struct {
	BillingStatus BillingStatus
	Limit         int
	Offset        int
}

func (f ListFilter) withDefaults() ListFilter {
	out := f
	if out.Limit <= 0 || out.Limit > 200 {
		out.Limit = 50
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}
