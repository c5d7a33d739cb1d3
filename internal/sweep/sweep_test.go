package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadmarket-platform/internal/billing"
)

type stubExpirer struct {
	n     int
	err   error
	calls int
	limit int
}

func (s *stubExpirer) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	_ = ctx
	s.calls++
	s.limit = limit
	return s.n, s.err
}

type stubLocker struct {
	window time.Duration
	n      int
}

func (s *stubLocker) LockExpiredDisputeWindows(ctx context.Context, window time.Duration, limit int) (int, error) {
	_, _ = ctx, limit
	s.window = window
	return s.n, nil
}

type stubSettings struct {
	s   billing.Settings
	err error
}

func (s stubSettings) Get(ctx context.Context) (billing.Settings, error) {
	_ = ctx
	return s.s, s.err
}

func TestExpireOffersUsesBatchLimit(t *testing.T) {
	offers := &stubExpirer{n: 3}
	r := NewRunner(offers, &stubExpirer{}, &stubLocker{}, stubSettings{s: billing.DefaultSettings()}, nil, nil)

	n, err := r.expireOffers(context.Background())
	if err != nil {
		t.Fatalf("expireOffers: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 expired, got %d", n)
	}
	if offers.limit != batchLimit {
		t.Fatalf("expected batch limit %d, got %d", batchLimit, offers.limit)
	}
}

func TestLockDisputeWindowsUsesCurrentSettings(t *testing.T) {
	settings := billing.DefaultSettings()
	settings.DisputeWindowHours = 48
	locker := &stubLocker{n: 2}
	r := NewRunner(&stubExpirer{}, &stubExpirer{}, locker, stubSettings{s: settings}, nil, nil)

	n, err := r.lockDisputeWindows(context.Background())
	if err != nil {
		t.Fatalf("lockDisputeWindows: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 locked, got %d", n)
	}
	if locker.window != 48*time.Hour {
		t.Fatalf("expected 48h window, got %v", locker.window)
	}
}

func TestLockDisputeWindowsPropagatesSettingsError(t *testing.T) {
	r := NewRunner(&stubExpirer{}, &stubExpirer{}, &stubLocker{}, stubSettings{err: errors.New("db down")}, nil, nil)

	if _, err := r.lockDisputeWindows(context.Background()); err == nil {
		t.Fatal("expected settings error to propagate")
	}
}

func TestRunJobSwallowsErrors(t *testing.T) {
	offers := &stubExpirer{err: errors.New("storage down")}
	r := NewRunner(offers, &stubExpirer{}, &stubLocker{}, stubSettings{s: billing.DefaultSettings()}, nil, nil)

	// Must log and return, never panic or stop the scheduler.
	r.runJob("expire_offers", r.expireOffers)
	if offers.calls != 1 {
		t.Fatalf("expected 1 call, got %d", offers.calls)
	}
}
