package leads

import (
	"context"
	"sort"
	"time"

	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/wallet"
)

// Engine routes a lead to the best-fitting providers.
//
// Evaluation runs in stages per candidate: wallet gate, budget gate, service
// area gate, then scoring. The top scorers up to the lead's remaining slots
// receive offers.
type Engine struct {
	leads     *Service
	directory Directory
	balances  BalanceSource
	offers    MatchCreator
	clock     func() time.Time
}

// Directory lists provider companies that offer a service.
type Directory interface {
	ListCandidates(ctx context.Context, serviceID string) ([]Candidate, error)
}

// BalanceSource is the slice of the wallet API routing needs.
type BalanceSource interface {
	GetBalance(ctx context.Context, companyID string) (wallet.Wallet, error)
}

// MatchCreator creates offers. Satisfied by matches.Service.
type MatchCreator interface {
	Offer(ctx context.Context, leadID, companyID string, priceMinor int64, expiresAt time.Time) (matches.Match, error)
}

// Candidate is a provider company under consideration for a lead.
type Candidate struct {
	CompanyID string

	Lat             *float64
	Lng             *float64
	ServiceRadiusKm float64

	// MinBudgetMinor filters out leads below the provider's floor. Zero means
	// no floor.
	MinBudgetMinor int64

	// PauseWhenBalanceZero stops offers when the wallet is empty.
	PauseWhenBalanceZero bool
}

func NewEngine(leads *Service, directory Directory, balances BalanceSource, offers MatchCreator) *Engine {
	return &Engine{
		leads:     leads,
		directory: directory,
		balances:  balances,
		offers:    offers,
		clock:     time.Now,
	}
}

// Skip reasons, recorded per excluded candidate for routing diagnostics.
const (
	ReasonWalletUnavailable = "wallet_unavailable"
	ReasonWalletDisabled    = "wallet_disabled"
	ReasonBalancePaused     = "balance_paused"
	ReasonBelowMinBudget    = "below_min_budget"
	ReasonOutOfArea         = "out_of_area"
)

// Evaluation is the per-candidate routing verdict.
type Evaluation struct {
	CompanyID string  `json:"company_id"`
	Eligible  bool    `json:"eligible"`
	Reason    string  `json:"reason,omitempty"`
	Score     float64 `json:"score"`
}

// Result summarizes one routing run.
type Result struct {
	LeadID     string       `json:"lead_id"`
	Status     Status       `json:"status"`
	Offered    []string     `json:"offered,omitempty"`
	Considered []Evaluation `json:"considered,omitempty"`
}

// Route evaluates all candidates for the lead and sends offers to the top
// scorers. The lead ends routed (offers out) or closed (nobody eligible).
func (e *Engine) Route(ctx context.Context, leadID string) (Result, error) {
	l, err := e.leads.MarkRouting(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	candidates, err := e.directory.ListCandidates(ctx, l.ServiceID)
	if err != nil {
		return Result{}, err
	}

	evals := make([]Evaluation, 0, len(candidates))
	for _, c := range candidates {
		evals = append(evals, e.evaluate(ctx, l, c))
	}

	eligible := make([]Evaluation, 0, len(evals))
	for _, ev := range evals {
		if ev.Eligible {
			eligible = append(eligible, ev)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].CompanyID < eligible[j].CompanyID
	})

	slots := l.MaxSoldCount - l.CurrentSoldCount
	if slots < 0 {
		slots = 0
	}
	if len(eligible) > slots {
		eligible = eligible[:slots]
	}

	now := e.clock().UTC()
	offered := make([]string, 0, len(eligible))
	for _, ev := range eligible {
		if _, err := e.offers.Offer(ctx, l.ID, ev.CompanyID, l.PriceMinor, now.Add(OfferTTL)); err != nil {
			return Result{}, err
		}
		offered = append(offered, ev.CompanyID)
	}

	l, err = e.leads.FinishRouting(ctx, l.ID, len(offered))
	if err != nil {
		return Result{}, err
	}

	return Result{
		LeadID:     l.ID,
		Status:     l.Status,
		Offered:    offered,
		Considered: evals,
	}, nil
}

// ForceRoute offers the lead to a specific company, bypassing eligibility.
// Admin escape hatch for manual placements.
func (e *Engine) ForceRoute(ctx context.Context, leadID, companyID string) (Result, error) {
	if companyID == "" {
		return Result{}, ErrInvalidArgument
	}
	l, err := e.leads.Get(ctx, leadID)
	if err != nil {
		return Result{}, err
	}
	if !l.Status.IsRoutable() && !l.Status.IsSellable() {
		return Result{}, ErrNotRoutable
	}

	now := e.clock().UTC()
	if _, err := e.offers.Offer(ctx, l.ID, companyID, l.PriceMinor, now.Add(OfferTTL)); err != nil {
		return Result{}, err
	}

	if l.Status.IsRoutable() {
		if l, err = e.leads.FinishRouting(ctx, l.ID, 1); err != nil {
			return Result{}, err
		}
	}
	return Result{
		LeadID:  l.ID,
		Status:  l.Status,
		Offered: []string{companyID},
	}, nil
}

func (e *Engine) evaluate(ctx context.Context, l LeadRequest, c Candidate) Evaluation {
	ev := Evaluation{CompanyID: c.CompanyID}

	w, err := e.balances.GetBalance(ctx, c.CompanyID)
	if err != nil {
		ev.Reason = ReasonWalletUnavailable
		return ev
	}
	if w.Status != wallet.WalletStatusActive {
		ev.Reason = ReasonWalletDisabled
		return ev
	}
	if c.PauseWhenBalanceZero && w.BalanceMinor <= 0 {
		ev.Reason = ReasonBalancePaused
		return ev
	}

	if c.MinBudgetMinor > 0 && l.BudgetMaxMinor != nil && *l.BudgetMaxMinor < c.MinBudgetMinor {
		ev.Reason = ReasonBelowMinBudget
		return ev
	}

	score := 0.0
	if l.Lat != nil && l.Lng != nil && c.Lat != nil && c.Lng != nil {
		d := HaversineKm(*l.Lat, *l.Lng, *c.Lat, *c.Lng)
		if c.ServiceRadiusKm > 0 && d > c.ServiceRadiusKm {
			ev.Reason = ReasonOutOfArea
			return ev
		}
		if s := 50 - 2*d; s > 0 {
			score += s
		}
	} else {
		// No geo data on either side: neutral proximity credit.
		score += 10
	}

	if s := float64(w.BalanceMinor) / 100; s < 30 {
		score += s
	} else {
		score += 30
	}

	if s := 20 - float64(c.MinBudgetMinor)/10000; s > 0 {
		score += s
	}

	ev.Eligible = true
	ev.Score = score
	return ev
}
