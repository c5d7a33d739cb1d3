package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/wallet"
)

var (
	windowFrom = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	windowTo   = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
)

func inWindow(d time.Duration) time.Time { return windowFrom.Add(d) }

func TestBillingSummary(t *testing.T) {
	repo := NewMemoryRepo()
	billed := inWindow(24 * time.Hour)

	repo.Calls = []calls.CallLog{
		{ID: "c1", CompanyID: "acme", BillingStatus: calls.BillingStatusBilled, BilledAt: &billed, CreatedAt: inWindow(time.Hour)},
		{ID: "c2", CompanyID: "acme", BillingStatus: calls.BillingStatusRefunded, BilledAt: &billed, CreatedAt: inWindow(2 * time.Hour)},
		{ID: "c3", CompanyID: "acme", BillingStatus: calls.BillingStatusPending, CreatedAt: inWindow(3 * time.Hour)},
		{ID: "c4", CompanyID: "acme", BillingStatus: calls.BillingStatusWaived, CreatedAt: inWindow(4 * time.Hour)},
		// Other tenant, must not leak in.
		{ID: "c5", CompanyID: "rival", BillingStatus: calls.BillingStatusBilled, CreatedAt: inWindow(5 * time.Hour)},
		// Outside the window.
		{ID: "c6", CompanyID: "acme", BillingStatus: calls.BillingStatusBilled, CreatedAt: windowTo.Add(time.Hour)},
	}
	repo.Disputes = []disputes.Dispute{
		{ID: "d1", CompanyID: "acme", Status: disputes.StatusApproved, CreatedAt: inWindow(6 * time.Hour)},
		{ID: "d2", CompanyID: "acme", Status: disputes.StatusRejected, CreatedAt: inWindow(7 * time.Hour)},
		{ID: "d3", CompanyID: "acme", Status: disputes.StatusPending, CreatedAt: inWindow(8 * time.Hour)},
	}
	repo.Transactions = []wallet.Transaction{
		{ID: "t1", CompanyID: "acme", Type: wallet.TransactionTypeCharge, AmountMinor: -2500, CreatedAt: inWindow(time.Hour)},
		{ID: "t2", CompanyID: "acme", Type: wallet.TransactionTypeCharge, AmountMinor: -4000, CreatedAt: inWindow(2 * time.Hour)},
		{ID: "t3", CompanyID: "acme", Type: wallet.TransactionTypeRefund, AmountMinor: 2500, CreatedAt: inWindow(3 * time.Hour)},
		{ID: "t4", CompanyID: "acme", Type: wallet.TransactionTypePurchase, AmountMinor: 10000, CreatedAt: inWindow(4 * time.Hour)},
	}
	repo.Wallets["acme"] = wallet.Wallet{CompanyID: "acme", BalanceMinor: 6000}

	svc := NewService(repo)
	got, err := svc.BillingSummary(context.Background(), BillingSummaryRequest{
		CompanyID: "acme",
		Range:     Range{From: windowFrom, To: windowTo},
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if got.TotalCalls != 4 {
		t.Fatalf("expected 4 calls, got %d", got.TotalCalls)
	}
	if got.QualifiedCalls != 2 {
		t.Fatalf("expected 2 qualified calls, got %d", got.QualifiedCalls)
	}
	if got.BilledCalls != 1 || got.RefundedCalls != 1 || got.WaivedCalls != 1 {
		t.Fatalf("unexpected status split: %+v", got)
	}
	if got.BilledAmountMinor != 6500 {
		t.Fatalf("expected billed 6500, got %d", got.BilledAmountMinor)
	}
	if got.RefundedAmountMinor != 2500 {
		t.Fatalf("expected refunded 2500, got %d", got.RefundedAmountMinor)
	}
	if got.DisputesOpened != 3 || got.DisputesApproved != 1 || got.DisputesRejected != 1 {
		t.Fatalf("unexpected dispute counts: %+v", got)
	}
	if got.WalletBalanceMinor != 6000 {
		t.Fatalf("expected balance 6000, got %d", got.WalletBalanceMinor)
	}
}

func TestBillingSummary_NoWalletYet(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	got, err := svc.BillingSummary(context.Background(), BillingSummaryRequest{
		CompanyID: "fresh",
		Range:     Range{From: windowFrom, To: windowTo},
	})
	if err != nil {
		t.Fatalf("summary for company without wallet: %v", err)
	}
	if got.WalletBalanceMinor != 0 {
		t.Fatalf("expected zero balance, got %d", got.WalletBalanceMinor)
	}
}

func TestBillingSummary_RejectsInvalidRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.BillingSummary(context.Background(), BillingSummaryRequest{
		CompanyID: "acme",
		Range:     Range{From: windowTo, To: windowFrom},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	_, err = svc.BillingSummary(context.Background(), BillingSummaryRequest{
		Range: Range{From: windowFrom, To: windowTo},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing company, got %v", err)
	}
}

func TestLeadStats(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Leads = []leads.LeadRequest{
		{ID: "l1", ServiceID: "plumbing", Status: leads.StatusRouted, CreatedAt: inWindow(time.Hour)},
		{ID: "l2", ServiceID: "plumbing", Status: leads.StatusSpam, CreatedAt: inWindow(2 * time.Hour)},
		{ID: "l3", ServiceID: "plumbing", Status: leads.StatusDuplicate, CreatedAt: inWindow(3 * time.Hour)},
		{ID: "l4", ServiceID: "roofing", Status: leads.StatusRouted, CreatedAt: inWindow(4 * time.Hour)},
	}
	repo.Matches = []matches.Match{
		{ID: "m1", LeadID: "l1", Status: matches.StatusAccepted, LeadPriceMinor: 2500, CreatedAt: inWindow(time.Hour)},
		{ID: "m2", LeadID: "l1", Status: matches.StatusWon, LeadPriceMinor: 2500, CreatedAt: inWindow(time.Hour)},
		{ID: "m3", LeadID: "l1", Status: matches.StatusDeclined, CreatedAt: inWindow(time.Hour)},
		{ID: "m4", LeadID: "l1", Status: matches.StatusExpired, CreatedAt: inWindow(time.Hour)},
		{ID: "m5", LeadID: "l1", Status: matches.StatusRefunded, LeadPriceMinor: 2500, CreatedAt: inWindow(time.Hour)},
		// Belongs to the roofing lead, filtered out below.
		{ID: "m6", LeadID: "l4", Status: matches.StatusAccepted, LeadPriceMinor: 9000, CreatedAt: inWindow(time.Hour)},
	}

	svc := NewService(repo)
	got, err := svc.LeadStats(context.Background(), LeadStatsRequest{
		Range:     Range{From: windowFrom, To: windowTo},
		ServiceID: "plumbing",
	})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if got.TotalLeads != 3 {
		t.Fatalf("expected 3 plumbing leads, got %d", got.TotalLeads)
	}
	if got.SpamLeads != 1 || got.DuplicateLeads != 1 {
		t.Fatalf("unexpected quality counts: %+v", got)
	}
	if got.OffersSent != 5 {
		t.Fatalf("expected 5 offers, got %d", got.OffersSent)
	}
	if got.OffersAccepted != 3 || got.OffersDeclined != 1 || got.OffersExpired != 1 {
		t.Fatalf("unexpected offer split: %+v", got)
	}
	// Refunded offers count as accepted but contribute no revenue.
	if got.RevenueMinor != 5000 {
		t.Fatalf("expected revenue 5000, got %d", got.RevenueMinor)
	}
	if got.AcceptanceRate != 0.6 {
		t.Fatalf("expected acceptance rate 0.6, got %v", got.AcceptanceRate)
	}
}
