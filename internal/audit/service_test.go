package audit

import (
	"context"
	"errors"
	"testing"
)

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, e Event) error {
	_, _ = ctx, e
	return errors.New("storage down")
}

func (failingRepo) List(ctx context.Context, companyID string, limit int) ([]Event, error) {
	_, _, _ = ctx, companyID, limit
	return nil, errors.New("storage down")
}

func TestAppend_RequiresCompanyAndType(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)

	if err := svc.Append(context.Background(), Event{Type: EventLeadCreated}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing company, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{CompanyID: "company-1"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing type, got %v", err)
	}
}

func TestAppend_StampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	err := svc.Append(context.Background(), Event{
		CompanyID: "company-1",
		Type:      EventLeadAccepted,
		LeadID:    "lead-1",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := svc.List(context.Background(), "company-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" || events[0].CreatedAt.IsZero() {
		t.Fatalf("id or timestamp not stamped: %+v", events[0])
	}
}

func TestRecord_SwallowsStorageFailures(t *testing.T) {
	svc := NewService(failingRepo{}, nil)

	// Must not panic or propagate the error.
	svc.Record(context.Background(), Event{
		CompanyID: "company-1",
		Type:      EventDisputeOpened,
	})
}
