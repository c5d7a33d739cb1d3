package billing

import (
	"context"
	"errors"
	"testing"
)

func TestQualify_BoundaryInclusive(t *testing.T) {
	if Qualify(89, 90) {
		t.Fatalf("89s should not qualify against 90s minimum")
	}
	if !Qualify(90, 90) {
		t.Fatalf("90s should qualify against 90s minimum (inclusive)")
	}
	if !Qualify(91, 90) {
		t.Fatalf("91s should qualify")
	}
}

func TestQualify_ZeroMinimumQualifiesEverything(t *testing.T) {
	if !Qualify(0, 0) {
		t.Fatalf("zero duration against zero minimum should qualify")
	}
}

func TestClampPrice(t *testing.T) {
	s := DefaultSettings() // min 2500, max 12000

	if got := ClampPrice(s, 500); got != 2500 {
		t.Fatalf("expected clamp up to 2500, got %d", got)
	}
	if got := ClampPrice(s, 20000); got != 12000 {
		t.Fatalf("expected clamp down to 12000, got %d", got)
	}
	if got := ClampPrice(s, 4000); got != 4000 {
		t.Fatalf("in-range price changed: %d", got)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.MinDurationSeconds != 90 {
		t.Fatalf("expected 90s minimum, got %d", s.MinDurationSeconds)
	}
	if s.BasePriceMinor != 2500 {
		t.Fatalf("expected 2500 base price, got %d", s.BasePriceMinor)
	}
	if s.DisputeWindowHours != 72 {
		t.Fatalf("expected 72h dispute window, got %d", s.DisputeWindowHours)
	}
	if !s.AutoBillEnabled {
		t.Fatalf("expected auto bill enabled by default")
	}
}

func TestService_UpdateValidates(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	bad := DefaultSettings()
	bad.SurgeMultiplier = 0.5
	if _, err := svc.Update(context.Background(), bad); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}

	good := DefaultSettings()
	good.MinDurationSeconds = 60
	updated, err := svc.Update(context.Background(), good)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.MinDurationSeconds != 60 {
		t.Fatalf("update not applied")
	}

	stored, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.MinDurationSeconds != 60 {
		t.Fatalf("settings not persisted")
	}
}
