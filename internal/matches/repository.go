package matches

import (
	"context"
	"time"
)

// Repository abstracts match persistence.
type Repository interface {
	Create(ctx context.Context, m Match) error
	Get(ctx context.Context, companyID, id string) (Match, error)
	Update(ctx context.Context, m Match) error

	// ClaimForAccept atomically transitions an open offer to accepted,
	// stamping accepted_at and the response time. Exactly one of any number
	// of concurrent claims succeeds; the rest get ErrNotOpen.
	ClaimForAccept(ctx context.Context, companyID, id string, at time.Time) (Match, error)

	ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Match, error)
	ListByLead(ctx context.Context, leadID string) ([]Match, error)

	// ExpireOpenSiblings expires every still-open offer for the lead except
	// keepID. Returns how many were expired.
	ExpireOpenSiblings(ctx context.Context, leadID, keepID string, at time.Time) (int, error)

	// ListExpiredOpen returns open offers whose expires_at has passed. Used by
	// the sweep.
	ListExpiredOpen(ctx context.Context, cutoff time.Time, limit int) ([]Match, error)
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
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
