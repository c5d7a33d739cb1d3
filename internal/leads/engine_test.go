package leads

import (
	"context"
	"errors"
	"testing"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/pricing"
	"leadmarket-platform/internal/wallet"
)

// staticDirectory serves a fixed candidate list for any service.
type staticDirectory struct {
	candidates []Candidate
}

func (d staticDirectory) ListCandidates(ctx context.Context, serviceID string) ([]Candidate, error) {
	_, _ = ctx, serviceID
	return d.candidates, nil
}

type engineFixture struct {
	engine  *Engine
	leads   *Service
	matches *matches.Service
	wallets *wallet.Service
}

func newEngineFixture(t *testing.T, candidates []Candidate, funds map[string]int64) engineFixture {
	t.Helper()
	ctx := context.Background()

	wallets := wallet.NewService(wallet.NewMemoryRepo())
	for company, amount := range funds {
		if _, err := wallets.Ensure(ctx, company, "USD"); err != nil {
			t.Fatalf("ensure wallet: %v", err)
		}
		if amount > 0 {
			if _, err := wallets.Credit(ctx, company, wallet.CreditRequest{
				Type:           wallet.TransactionTypePurchase,
				AmountMinor:    amount,
				Currency:       "USD",
				IdempotencyKey: "fund-" + company,
			}); err != nil {
				t.Fatalf("fund %s: %v", company, err)
			}
		}
	}

	billingSvc := billing.NewService(billing.NewMemoryRepo())
	pricer := pricing.NewService(pricing.NewMemoryRepo())
	leadSvc := NewService(NewMemoryRepo(), billingSvc, pricer, nil)
	matchSvc := matches.NewService(matches.NewMemoryRepo(), leadSvc, wallets)

	return engineFixture{
		engine:  NewEngine(leadSvc, staticDirectory{candidates: candidates}, wallets, matchSvc),
		leads:   leadSvc,
		matches: matchSvc,
		wallets: wallets,
	}
}

func (f engineFixture) newLead(t *testing.T) LeadRequest {
	t.Helper()
	l, err := f.leads.Create(context.Background(), goodIntake())
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return l
}

func f64(v float64) *float64 { return &v }

func TestRoute_TopScorersGetOffers(t *testing.T) {
	// Four funded candidates, three slots. The most distant one misses out.
	candidates := []Candidate{
		{CompanyID: "near", Lat: f64(37.77), Lng: f64(-122.42), ServiceRadiusKm: 50},
		{CompanyID: "mid", Lat: f64(37.90), Lng: f64(-122.30), ServiceRadiusKm: 50},
		{CompanyID: "far", Lat: f64(37.95), Lng: f64(-122.02), ServiceRadiusKm: 80},
		{CompanyID: "farther", Lat: f64(38.10), Lng: f64(-121.90), ServiceRadiusKm: 120},
	}
	funds := map[string]int64{"near": 5000, "mid": 5000, "far": 5000, "farther": 5000}
	f := newEngineFixture(t, candidates, funds)

	l := f.newLead(t)
	lead, _ := f.leads.Get(context.Background(), l.ID)
	lead.Lat, lead.Lng = f64(37.7749), f64(-122.4194)
	if err := f.leads.repo.Update(context.Background(), lead); err != nil {
		t.Fatalf("set geo: %v", err)
	}

	res, err := f.engine.Route(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.Status != StatusRouted {
		t.Fatalf("expected routed, got %s", res.Status)
	}
	if len(res.Offered) != 3 {
		t.Fatalf("expected 3 offers, got %d: %v", len(res.Offered), res.Offered)
	}
	for _, id := range res.Offered {
		if id == "farther" {
			t.Fatalf("lowest scorer should not receive an offer")
		}
	}
	if res.Offered[0] != "near" {
		t.Fatalf("closest provider should rank first, got %s", res.Offered[0])
	}

	offers, err := f.matches.ListForLead(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	if len(offers) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(offers))
	}
	for _, m := range offers {
		if m.LeadPriceMinor != l.PriceMinor {
			t.Fatalf("offer price %d does not match lead price %d", m.LeadPriceMinor, l.PriceMinor)
		}
	}
}

func TestRoute_EligibilityGates(t *testing.T) {
	candidates := []Candidate{
		{CompanyID: "paused", PauseWhenBalanceZero: true},
		{CompanyID: "funded-no-pause", PauseWhenBalanceZero: false},
		{CompanyID: "picky", MinBudgetMinor: 100000},
		{CompanyID: "remote", Lat: f64(40.0), Lng: f64(-100.0), ServiceRadiusKm: 10},
	}
	funds := map[string]int64{"paused": 0, "funded-no-pause": 0, "picky": 5000, "remote": 5000}
	f := newEngineFixture(t, candidates, funds)

	l := f.newLead(t)
	lead, _ := f.leads.Get(context.Background(), l.ID)
	lead.Lat, lead.Lng = f64(37.7749), f64(-122.4194)
	budget := int64(50000)
	lead.BudgetMaxMinor = &budget
	if err := f.leads.repo.Update(context.Background(), lead); err != nil {
		t.Fatalf("set lead: %v", err)
	}

	res, err := f.engine.Route(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}

	reasons := map[string]Evaluation{}
	for _, ev := range res.Considered {
		reasons[ev.CompanyID] = ev
	}
	if ev := reasons["paused"]; ev.Eligible || ev.Reason != ReasonBalancePaused {
		t.Fatalf("paused provider: %+v", ev)
	}
	if ev := reasons["picky"]; ev.Eligible || ev.Reason != ReasonBelowMinBudget {
		t.Fatalf("picky provider: %+v", ev)
	}
	if ev := reasons["remote"]; ev.Eligible || ev.Reason != ReasonOutOfArea {
		t.Fatalf("remote provider: %+v", ev)
	}
	// Zero balance without pause still routes.
	if ev := reasons["funded-no-pause"]; !ev.Eligible {
		t.Fatalf("no-pause provider should be eligible: %+v", ev)
	}
	if len(res.Offered) != 1 || res.Offered[0] != "funded-no-pause" {
		t.Fatalf("unexpected offers: %v", res.Offered)
	}
}

func TestRoute_NoEligibleProvidersClosesLead(t *testing.T) {
	f := newEngineFixture(t, nil, nil)
	l := f.newLead(t)

	res, err := f.engine.Route(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.Status != StatusClosed {
		t.Fatalf("expected closed, got %s", res.Status)
	}
	if len(res.Offered) != 0 {
		t.Fatalf("unexpected offers: %v", res.Offered)
	}
}

func TestRoute_NonRoutableLeadRejected(t *testing.T) {
	f := newEngineFixture(t, nil, nil)
	l := f.newLead(t)

	if _, err := f.engine.Route(context.Background(), l.ID); err != nil {
		t.Fatalf("first route: %v", err)
	}
	_, err := f.engine.Route(context.Background(), l.ID)
	if !errors.Is(err, ErrNotRoutable) {
		t.Fatalf("expected ErrNotRoutable, got %v", err)
	}
}

func TestForceRoute_BypassesEligibility(t *testing.T) {
	candidates := []Candidate{{CompanyID: "paused", PauseWhenBalanceZero: true}}
	f := newEngineFixture(t, candidates, map[string]int64{"paused": 0})
	l := f.newLead(t)

	res, err := f.engine.ForceRoute(context.Background(), l.ID, "paused")
	if err != nil {
		t.Fatalf("force route: %v", err)
	}
	if res.Status != StatusRouted {
		t.Fatalf("expected routed, got %s", res.Status)
	}
	if len(res.Offered) != 1 || res.Offered[0] != "paused" {
		t.Fatalf("unexpected offers: %v", res.Offered)
	}
}

func TestRoute_AcceptedOfferEndToEnd(t *testing.T) {
	candidates := []Candidate{{CompanyID: "pro"}}
	f := newEngineFixture(t, candidates, map[string]int64{"pro": 10000})
	l := f.newLead(t)

	res, err := f.engine.Route(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	offers, _ := f.matches.ListForLead(context.Background(), l.ID)
	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}

	m, err := f.matches.Accept(context.Background(), "pro", offers[0].ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if m.Status != matches.StatusAccepted {
		t.Fatalf("expected accepted, got %s", m.Status)
	}

	w, _ := f.wallets.GetBalance(context.Background(), "pro")
	if w.BalanceMinor != 10000-l.PriceMinor {
		t.Fatalf("wallet not charged lead price: %d", w.BalanceMinor)
	}

	got, _ := f.leads.Get(context.Background(), l.ID)
	if got.CurrentSoldCount != 1 {
		t.Fatalf("slot not consumed: %d", got.CurrentSoldCount)
	}
	if got.Status != StatusPartial {
		t.Fatalf("expected partial, got %s", got.Status)
	}
	_ = res
}
