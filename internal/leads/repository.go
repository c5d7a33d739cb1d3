package leads

import (
	"context"
	"time"
)

// Repository abstracts lead persistence.
type Repository interface {
	Create(ctx context.Context, l LeadRequest) error
	Get(ctx context.Context, id string) (LeadRequest, error)
	Update(ctx context.Context, l LeadRequest) error
	List(ctx context.Context, filter ListFilter) ([]LeadRequest, error)

	// FindRecentDuplicate looks for a lead with the same service and the same
	// phone or email submitted after since.
	FindRecentDuplicate(ctx context.Context, serviceID, phone, email string, since time.Time) (LeadRequest, bool, error)

	// ReserveSlot atomically claims one sale slot and advances the status to
	// partial or closed. Returns ErrSoldOut when no slots remain or the lead
	// is not sellable.
	ReserveSlot(ctx context.Context, id string) (LeadRequest, error)

	// ReleaseSlot returns a slot and restores routed or partial status.
	ReleaseSlot(ctx context.Context, id string) (LeadRequest, error)

	// ListExpirable returns still-open leads whose expires_at has passed.
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]LeadRequest, error)
}

type ListFilter struct {
	Status    Status
	ServiceID string
	Limit     int
	Offset    int
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
