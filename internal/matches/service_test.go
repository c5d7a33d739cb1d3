package matches

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadmarket-platform/internal/wallet"
)

// stubLeadStore tracks slot occupancy for a single lead.
type stubLeadStore struct {
	mu      sync.Mutex
	leadID  string
	price   int64
	sold    int
	maxSold int
}

func (s *stubLeadStore) Info(ctx context.Context, leadID string) (LeadInfo, error) {
	_ = ctx
	if leadID != s.leadID {
		return LeadInfo{}, errors.New("unknown lead")
	}
	return LeadInfo{ID: s.leadID, PriceMinor: s.price, Status: "routed"}, nil
}

func (s *stubLeadStore) ReserveSlot(ctx context.Context, leadID string) (SlotState, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if leadID != s.leadID {
		return SlotState{}, errors.New("unknown lead")
	}
	if s.sold >= s.maxSold {
		return SlotState{}, ErrLeadSoldOut
	}
	s.sold++
	return SlotState{SoldCount: s.sold, MaxSoldCount: s.maxSold}, nil
}

func (s *stubLeadStore) ReleaseSlot(ctx context.Context, leadID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if leadID != s.leadID {
		return errors.New("unknown lead")
	}
	if s.sold > 0 {
		s.sold--
	}
	return nil
}

type matchFixture struct {
	svc     *Service
	wallets *wallet.Service
	store   *stubLeadStore
}

func newMatchFixture(t *testing.T, companyFunds int64, maxSold int) matchFixture {
	t.Helper()
	ctx := context.Background()

	wallets := wallet.NewService(wallet.NewMemoryRepo())
	for _, company := range []string{"company-a", "company-b", "company-c"} {
		if _, err := wallets.Ensure(ctx, company, "USD"); err != nil {
			t.Fatalf("ensure wallet: %v", err)
		}
		if companyFunds > 0 {
			if _, err := wallets.Credit(ctx, company, wallet.CreditRequest{
				Type:           wallet.TransactionTypePurchase,
				AmountMinor:    companyFunds,
				Currency:       "USD",
				IdempotencyKey: "fund-" + company,
			}); err != nil {
				t.Fatalf("fund %s: %v", company, err)
			}
		}
	}

	store := &stubLeadStore{leadID: "lead-1", price: 4500, maxSold: maxSold}
	return matchFixture{
		svc:     NewService(NewMemoryRepo(), store, wallets),
		wallets: wallets,
		store:   store,
	}
}

func (f matchFixture) offer(t *testing.T, company string) Match {
	t.Helper()
	m, err := f.svc.Offer(context.Background(), "lead-1", company, 4500, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	return m
}

func TestAccept_ChargesWalletOnce(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")

	accepted, err := f.svc.Accept(context.Background(), "company-a", m.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if accepted.ChargeTransactionID == "" {
		t.Fatalf("charge transaction not recorded")
	}

	w, _ := f.wallets.GetBalance(context.Background(), "company-a")
	if w.BalanceMinor != 5500 {
		t.Fatalf("expected balance 5500 after 4500 charge, got %d", w.BalanceMinor)
	}

	// Accepting again is a no-op, not a second charge.
	again, err := f.svc.Accept(context.Background(), "company-a", m.ID)
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if again.ChargeTransactionID != accepted.ChargeTransactionID {
		t.Fatalf("second accept produced a new charge")
	}
	w, _ = f.wallets.GetBalance(context.Background(), "company-a")
	if w.BalanceMinor != 5500 {
		t.Fatalf("second accept moved money: %d", w.BalanceMinor)
	}
}

func TestAccept_InsufficientFundsReleasesSlot(t *testing.T) {
	f := newMatchFixture(t, 1000, 1)
	m := f.offer(t, "company-a")

	_, err := f.svc.Accept(context.Background(), "company-a", m.ID)
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if f.store.sold != 0 {
		t.Fatalf("slot not released after failed charge: sold=%d", f.store.sold)
	}

	got, _ := f.svc.Get(context.Background(), "company-a", m.ID)
	if got.Status != StatusOffered {
		t.Fatalf("match should remain offered, got %s", got.Status)
	}
}

func TestAccept_SoldOutReturnsConflict(t *testing.T) {
	f := newMatchFixture(t, 10000, 1)
	first := f.offer(t, "company-a")
	second := f.offer(t, "company-b")

	if _, err := f.svc.Accept(context.Background(), "company-a", first.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	// The last slot is gone; the sibling offer was expired on sell-out.
	got, _ := f.svc.Get(context.Background(), "company-b", second.ID)
	if got.Status != StatusExpired {
		t.Fatalf("sibling offer should be expired after sell-out, got %s", got.Status)
	}
}

func TestAccept_SiblingsSurviveWhenSlotsRemain(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	first := f.offer(t, "company-a")
	second := f.offer(t, "company-b")

	if _, err := f.svc.Accept(context.Background(), "company-a", first.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got, _ := f.svc.Get(context.Background(), "company-b", second.ID)
	if got.Status != StatusOffered {
		t.Fatalf("sibling offer should stay open, got %s", got.Status)
	}
}

func TestAccept_ExpiredOfferRejected(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m, err := f.svc.Offer(context.Background(), "lead-1", "company-a", 4500, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("offer: %v", err)
	}

	_, err = f.svc.Accept(context.Background(), "company-a", m.ID)
	if !errors.Is(err, ErrOfferExpired) {
		t.Fatalf("expected ErrOfferExpired, got %v", err)
	}

	// The rejection is persisted, not just reported; the sweep must not find
	// this offer still open.
	got, _ := f.svc.Get(context.Background(), "company-a", m.ID)
	if got.Status != StatusExpired {
		t.Fatalf("expired offer should be stored as expired, got %s", got.Status)
	}
}

func TestAccept_ConcurrentAcceptsReserveOneSlot(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(context.Background(), "company-a", m.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("accept %d: %v", i, err)
		}
	}
	if f.store.sold != 1 {
		t.Fatalf("expected 1 reserved slot, got %d", f.store.sold)
	}
	w, _ := f.wallets.GetBalance(context.Background(), "company-a")
	if w.BalanceMinor != 5500 {
		t.Fatalf("expected exactly one 4500 charge, balance %d", w.BalanceMinor)
	}
}

func TestClaimForAccept_SecondClaimLoses(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), Match{
		ID:        "m-1",
		LeadID:    "lead-1",
		CompanyID: "company-a",
		Status:    StatusOffered,
		OfferedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := repo.ClaimForAccept(context.Background(), "company-a", "m-1", now)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if first.Status != StatusAccepted || first.AcceptedAt == nil {
		t.Fatalf("claim did not transition the match: %+v", first)
	}

	if _, err := repo.ClaimForAccept(context.Background(), "company-a", "m-1", now); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen on second claim, got %v", err)
	}
}

func TestAccept_FailedChargeLeavesOfferClaimable(t *testing.T) {
	f := newMatchFixture(t, 1000, 1)
	m := f.offer(t, "company-a")

	if _, err := f.svc.Accept(context.Background(), "company-a", m.ID); !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// After the claim is rolled back, topping up and retrying succeeds.
	if _, err := f.wallets.Credit(context.Background(), "company-a", wallet.CreditRequest{
		Type:           wallet.TransactionTypePurchase,
		AmountMinor:    5000,
		Currency:       "USD",
		IdempotencyKey: "topup-company-a",
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}
	accepted, err := f.svc.Accept(context.Background(), "company-a", m.ID)
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if accepted.Status != StatusAccepted || accepted.ChargeTransactionID == "" {
		t.Fatalf("retry did not complete the accept: %+v", accepted)
	}
}

func TestDecline_NoMoneyMoves(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")

	declined, err := f.svc.Decline(context.Background(), "company-a", m.ID, "too far away")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != StatusDeclined {
		t.Fatalf("expected declined, got %s", declined.Status)
	}

	w, _ := f.wallets.GetBalance(context.Background(), "company-a")
	if w.BalanceMinor != 10000 {
		t.Fatalf("decline moved money: %d", w.BalanceMinor)
	}

	// A declined offer cannot be accepted afterwards.
	if _, err := f.svc.Accept(context.Background(), "company-a", m.ID); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestMarkViewed_RecordsFirstViewOnly(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")

	viewed, err := f.svc.MarkViewed(context.Background(), "company-a", m.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if viewed.Status != StatusViewed || viewed.ViewedAt == nil {
		t.Fatalf("view not recorded: %+v", viewed)
	}
	first := *viewed.ViewedAt

	again, err := f.svc.MarkViewed(context.Background(), "company-a", m.ID)
	if err != nil {
		t.Fatalf("second view: %v", err)
	}
	if !again.ViewedAt.Equal(first) {
		t.Fatalf("second view overwrote viewed_at")
	}
}

func TestReportOutcome_WonAndLost(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")
	if _, err := f.svc.Accept(context.Background(), "company-a", m.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	won, err := f.svc.ReportOutcome(context.Background(), "company-a", m.ID, OutcomeRequest{
		Outcome:       StatusWon,
		WonValueMinor: 250000,
	})
	if err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if won.Status != StatusWon || won.WonValueMinor != 250000 {
		t.Fatalf("won outcome not recorded: %+v", won)
	}

	// Outcome on a non-accepted match is rejected.
	other := f.offer(t, "company-b")
	_, err = f.svc.ReportOutcome(context.Background(), "company-b", other.ID, OutcomeRequest{
		Outcome:    StatusLost,
		LostReason: "went with a competitor",
	})
	if !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("expected ErrNotAccepted, got %v", err)
	}
}

func TestRefund_CappedByOriginalCharge(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")
	if _, err := f.svc.Accept(context.Background(), "company-a", m.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := f.svc.Refund(context.Background(), "company-a", m.ID, 99999, "goodwill")
	if !errors.Is(err, wallet.ErrRefundExceedsCharge) {
		t.Fatalf("expected ErrRefundExceedsCharge, got %v", err)
	}

	refunded, err := f.svc.Refund(context.Background(), "company-a", m.ID, 0, "bad contact info")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != StatusRefunded || refunded.RefundTransactionID == "" {
		t.Fatalf("refund not recorded: %+v", refunded)
	}

	w, _ := f.wallets.GetBalance(context.Background(), "company-a")
	if w.BalanceMinor != 10000 {
		t.Fatalf("full refund should restore balance, got %d", w.BalanceMinor)
	}
}

func TestRefund_RequiresCharge(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	m := f.offer(t, "company-a")

	_, err := f.svc.Refund(context.Background(), "company-a", m.ID, 0, "never accepted")
	if !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
}

func TestExpireOverdue_SweepsOpenOffers(t *testing.T) {
	f := newMatchFixture(t, 10000, 3)
	stale, err := f.svc.Offer(context.Background(), "lead-1", "company-a", 4500, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	fresh := f.offer(t, "company-b")

	n, err := f.svc.ExpireOverdue(context.Background(), 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	got, _ := f.svc.Get(context.Background(), "company-a", stale.ID)
	if got.Status != StatusExpired {
		t.Fatalf("stale offer not expired: %s", got.Status)
	}
	got, _ = f.svc.Get(context.Background(), "company-b", fresh.ID)
	if got.Status != StatusOffered {
		t.Fatalf("fresh offer should stay open: %s", got.Status)
	}
}
