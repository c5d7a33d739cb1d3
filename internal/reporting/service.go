package reporting

import (
	"context"
	"errors"
	"time"

	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/wallet"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// Implementations must enforce company filtering and should read from
// immutable sources where possible (the wallet ledger, call records).
type Repository interface {
	ListCalls(ctx context.Context, companyID string, from, to time.Time) ([]calls.CallLog, error)
	ListDisputes(ctx context.Context, companyID string, from, to time.Time) ([]disputes.Dispute, error)
	ListTransactions(ctx context.Context, companyID string, from, to time.Time) ([]wallet.Transaction, error)
	ListLeads(ctx context.Context, from, to time.Time) ([]leads.LeadRequest, error)
	ListMatches(ctx context.Context, from, to time.Time) ([]matches.Match, error)
	GetWallet(ctx context.Context, companyID string) (wallet.Wallet, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// BillingSummary aggregates call billing, dispute and ledger activity for one
// company over a window.
func (s *Service) BillingSummary(ctx context.Context, req BillingSummaryRequest) (BillingSummary, error) {
	if req.CompanyID == "" || !req.Range.Valid() {
		return BillingSummary{}, ErrInvalidRequest
	}

	out := BillingSummary{CompanyID: req.CompanyID, Range: req.Range}

	callRows, err := s.repo.ListCalls(ctx, req.CompanyID, req.Range.From, req.Range.To)
	if err != nil {
		return BillingSummary{}, err
	}
	for _, c := range callRows {
		out.TotalCalls++
		switch c.BillingStatus {
		case calls.BillingStatusBilled:
			out.BilledCalls++
		case calls.BillingStatusDisputed:
			out.DisputedCalls++
		case calls.BillingStatusRefunded:
			out.RefundedCalls++
		case calls.BillingStatusWaived:
			out.WaivedCalls++
		}
		if c.BilledAt != nil {
			out.QualifiedCalls++
		}
	}

	disputeRows, err := s.repo.ListDisputes(ctx, req.CompanyID, req.Range.From, req.Range.To)
	if err != nil {
		return BillingSummary{}, err
	}
	for _, d := range disputeRows {
		out.DisputesOpened++
		switch d.Status {
		case disputes.StatusApproved, disputes.StatusPartialRefund:
			out.DisputesApproved++
		case disputes.StatusRejected:
			out.DisputesRejected++
		}
	}

	txns, err := s.repo.ListTransactions(ctx, req.CompanyID, req.Range.From, req.Range.To)
	if err != nil {
		return BillingSummary{}, err
	}
	for _, t := range txns {
		switch t.Type {
		case wallet.TransactionTypeCharge:
			out.BilledAmountMinor += -t.AmountMinor
		case wallet.TransactionTypeRefund:
			out.RefundedAmountMinor += t.AmountMinor
		}
	}

	w, err := s.repo.GetWallet(ctx, req.CompanyID)
	if err != nil && !errors.Is(err, wallet.ErrNotFound) {
		return BillingSummary{}, err
	}
	out.WalletBalanceMinor = w.BalanceMinor

	return out, nil
}

// LeadStats aggregates marketplace lead and offer activity over a window.
func (s *Service) LeadStats(ctx context.Context, req LeadStatsRequest) (LeadStats, error) {
	if !req.Range.Valid() {
		return LeadStats{}, ErrInvalidRequest
	}

	out := LeadStats{Range: req.Range, ServiceID: req.ServiceID, ByStatus: make(map[string]int)}

	leadRows, err := s.repo.ListLeads(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return LeadStats{}, err
	}
	leadService := make(map[string]string, len(leadRows))
	for _, l := range leadRows {
		if req.ServiceID != "" && l.ServiceID != req.ServiceID {
			continue
		}
		leadService[l.ID] = l.ServiceID
		out.TotalLeads++
		out.ByStatus[string(l.Status)]++
		switch l.Status {
		case leads.StatusSpam:
			out.SpamLeads++
		case leads.StatusDuplicate:
			out.DuplicateLeads++
		}
	}

	matchRows, err := s.repo.ListMatches(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return LeadStats{}, err
	}
	for _, m := range matchRows {
		if req.ServiceID != "" {
			if _, ok := leadService[m.LeadID]; !ok {
				continue
			}
		}
		out.OffersSent++
		switch m.Status {
		case matches.StatusAccepted, matches.StatusWon, matches.StatusLost:
			out.OffersAccepted++
			out.RevenueMinor += m.LeadPriceMinor
		case matches.StatusRefunded:
			out.OffersAccepted++
		case matches.StatusDeclined:
			out.OffersDeclined++
		case matches.StatusExpired:
			out.OffersExpired++
		}
	}
	if out.OffersSent > 0 {
		out.AcceptanceRate = float64(out.OffersAccepted) / float64(out.OffersSent)
	}

	return out, nil
}
