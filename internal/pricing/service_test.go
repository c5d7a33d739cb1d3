package pricing

import (
	"context"
	"errors"
	"testing"
)

func TestService_CreateRejectsMalformedRule(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.Create(context.Background(), Rule{BasePriceMinor: -100})
	if !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}

func TestService_CreateAssignsSequentialIDs(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	a, err := svc.Create(context.Background(), Rule{BasePriceMinor: 4000, Priority: 10, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := svc.Create(context.Background(), Rule{BasePriceMinor: 3000, Priority: 10, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID <= a.ID {
		t.Fatalf("expected increasing ids, got %d then %d", a.ID, b.ID)
	}
}

func TestService_ResolvePriceUsesActiveRulesOnly(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	active, err := svc.Create(context.Background(), Rule{ServiceID: "plumbing", BasePriceMinor: 4000, Priority: 1, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), Rule{ServiceID: "plumbing", BasePriceMinor: 9000, Priority: 100, IsActive: false}); err != nil {
		t.Fatalf("create: %v", err)
	}

	q, err := svc.ResolvePrice(context.Background(), LeadAttributes{ServiceID: "plumbing"}, defaultFallback())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.RuleID != active.ID {
		t.Fatalf("expected active rule %d, got %d", active.ID, q.RuleID)
	}
}

func TestService_UpdateValidatesAndPreservesCreatedAt(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	r, err := svc.Create(context.Background(), Rule{BasePriceMinor: 4000, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r.SurgeMultiplier = 0.5
	if _, err := svc.Update(context.Background(), r); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}

	r.SurgeMultiplier = 2.0
	updated, err := svc.Update(context.Background(), r)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(r.CreatedAt) {
		t.Fatalf("created_at changed on update")
	}
}

func TestService_DeleteMissingIsNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
