package disputes

import "context"

// Repository abstracts dispute persistence.
type Repository interface {
	Create(ctx context.Context, d Dispute) error
	Get(ctx context.Context, companyID, id string) (Dispute, error)
	Update(ctx context.Context, d Dispute) error

	// HasOpen reports whether a non-terminal dispute exists for the call.
	HasOpen(ctx context.Context, callLogID string) (bool, error)

	List(ctx context.Context, companyID string, filter ListFilter) ([]Dispute, error)
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
