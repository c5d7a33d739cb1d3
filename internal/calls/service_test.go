package calls

import (
	"context"
	"testing"
	"time"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/pricing"
	"leadmarket-platform/internal/wallet"
)

type fixture struct {
	svc     *Service
	wallets *wallet.Service
	billing *billing.Service
	repo    *MemoryRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	wallets := wallet.NewService(wallet.NewMemoryRepo())
	if _, err := wallets.Ensure(context.Background(), "company-1", "USD"); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}

	billingSvc := billing.NewService(billing.NewMemoryRepo())
	pricer := pricing.NewService(pricing.NewMemoryRepo())
	repo := NewMemoryRepo()

	return fixture{
		svc:     NewService(repo, billingSvc, pricer, wallets),
		wallets: wallets,
		billing: billingSvc,
		repo:    repo,
	}
}

func (f fixture) fund(t *testing.T, amount int64) {
	t.Helper()
	if _, err := f.wallets.Credit(context.Background(), "company-1", wallet.CreditRequest{
		Type:           wallet.TransactionTypePurchase,
		AmountMinor:    amount,
		Currency:       "USD",
		IdempotencyKey: "fund-1",
	}); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func ingestReq(duration int) IngestRequest {
	return IngestRequest{
		CompanyID:       "company-1",
		ServiceID:       "plumbing",
		CallerNumber:    "+15550001111",
		TrackingNumber:  "+15550002222",
		DurationSeconds: duration,
		Region:          "CA",
		ProviderCallID:  "prov-1",
	}
}

func TestIngest_QualifiedCallIsBilled(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 100000)

	c, res, err := f.svc.Ingest(context.Background(), ingestReq(120))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.Qualified || !res.Billed {
		t.Fatalf("expected qualified+billed, got %+v", res)
	}
	if c.BillingStatus != BillingStatusBilled {
		t.Fatalf("expected billed status, got %s", c.BillingStatus)
	}
	if c.BillingPriceMinor == 0 || c.ChargeTransactionID == "" || c.BilledAt == nil {
		t.Fatalf("billing fields not stamped: %+v", c)
	}

	// Default settings surge the asap fallback: 2500 * 1.5 = 3750.
	if c.BillingPriceMinor != 3750 {
		t.Fatalf("expected 3750, got %d", c.BillingPriceMinor)
	}

	w, _ := f.wallets.GetBalance(context.Background(), "company-1")
	if w.BalanceMinor != 100000-3750 {
		t.Fatalf("wallet not debited: %d", w.BalanceMinor)
	}
}

func TestIngest_BelowMinDurationStaysPending(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 100000)

	c, res, err := f.svc.Ingest(context.Background(), ingestReq(89))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Qualified || res.Billed {
		t.Fatalf("89s call should not qualify, got %+v", res)
	}
	if res.Reason != "below_min_duration" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	if c.BillingStatus != BillingStatusPending {
		t.Fatalf("expected pending, got %s", c.BillingStatus)
	}
}

func TestIngest_BoundaryDurationQualifies(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 100000)

	_, res, err := f.svc.Ingest(context.Background(), ingestReq(90))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.Qualified {
		t.Fatalf("90s call must qualify against the 90s default")
	}
}

func TestIngest_InsufficientFundsLeavesCallPending(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 1000) // below the 3750 price

	c, res, err := f.svc.Ingest(context.Background(), ingestReq(120))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Billed {
		t.Fatalf("call billed despite empty wallet")
	}
	if res.Reason != "insufficient_funds" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	if c.BillingStatus != BillingStatusPending {
		t.Fatalf("expected pending, got %s", c.BillingStatus)
	}

	w, _ := f.wallets.GetBalance(context.Background(), "company-1")
	if w.BalanceMinor != 1000 {
		t.Fatalf("balance changed on failed billing: %d", w.BalanceMinor)
	}

	// Top up and retry.
	if _, err := f.wallets.Credit(context.Background(), "company-1", wallet.CreditRequest{
		Type:           wallet.TransactionTypePurchase,
		AmountMinor:    10000,
		Currency:       "USD",
		IdempotencyKey: "fund-2",
	}); err != nil {
		t.Fatalf("top up: %v", err)
	}
	retry, err := f.svc.ProcessForBilling(context.Background(), "company-1", c.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !retry.Billed {
		t.Fatalf("retry after top-up should bill, got %+v", retry)
	}
}

func TestIngest_RedeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 100000)

	first, _, err := f.svc.Ingest(context.Background(), ingestReq(120))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	second, _, err := f.svc.Ingest(context.Background(), ingestReq(120))
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("redelivery created a new call log")
	}

	w, _ := f.wallets.GetBalance(context.Background(), "company-1")
	if w.BalanceMinor != 100000-3750 {
		t.Fatalf("redelivery double-charged: %d", w.BalanceMinor)
	}
}

func TestIngest_AutoBillDisabledAccumulatesPending(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 100000)

	s, _ := f.billing.Get(context.Background())
	s.AutoBillEnabled = false
	if _, err := f.billing.Update(context.Background(), s); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	c, res, err := f.svc.Ingest(context.Background(), ingestReq(120))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Billed {
		t.Fatalf("billed despite auto-bill off")
	}
	if !res.Qualified {
		t.Fatalf("qualification flag should still be computed")
	}
	if c.BillingStatus != BillingStatusPending {
		t.Fatalf("expected pending, got %s", c.BillingStatus)
	}
}

func TestLockExpiredDisputeWindows(t *testing.T) {
	f := newFixture(t)
	f.fund(t, 100000)

	c, _, err := f.svc.Ingest(context.Background(), ingestReq(120))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// Age the billed_at stamp past the window.
	aged, _ := f.repo.Get(context.Background(), "company-1", c.ID)
	old := time.Now().UTC().Add(-100 * time.Hour)
	aged.BilledAt = &old
	if err := f.repo.Update(context.Background(), aged); err != nil {
		t.Fatalf("age call: %v", err)
	}

	n, err := f.svc.LockExpiredDisputeWindows(context.Background(), 72*time.Hour, 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 locked call, got %d", n)
	}

	locked, _ := f.repo.Get(context.Background(), "company-1", c.ID)
	if locked.DisputeLockedAt == nil {
		t.Fatalf("dispute_locked_at not stamped")
	}

	// Second sweep is a no-op.
	n, err = f.svc.LockExpiredDisputeWindows(context.Background(), 72*time.Hour, 100)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("sweep not idempotent: %d", n)
	}
}
