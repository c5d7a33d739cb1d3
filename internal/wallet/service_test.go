package wallet

import (
	"context"
	"errors"
	"testing"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo)

	companyID := "company-1"
	if _, err := svc.Ensure(context.Background(), companyID, "USD"); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	return svc, companyID
}

func fund(t *testing.T, svc *Service, companyID string, amount int64) Transaction {
	t.Helper()
	txn, err := svc.Credit(context.Background(), companyID, CreditRequest{
		Type:           TransactionTypePurchase,
		AmountMinor:    amount,
		Currency:       "USD",
		IdempotencyKey: "fund-" + companyID,
	})
	if err != nil {
		t.Fatalf("fund wallet: %v", err)
	}
	return txn
}

func TestCharge_RecordsBalanceSnapshots(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 10000)

	txn, err := svc.Charge(context.Background(), companyID, ChargeRequest{
		AmountMinor:    2500,
		Currency:       "USD",
		ReferenceType:  "lead_match",
		ReferenceID:    "match-1",
		IdempotencyKey: "charge-1",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if txn.AmountMinor != -2500 {
		t.Fatalf("expected signed amount -2500, got %d", txn.AmountMinor)
	}
	if txn.BalanceBeforeMinor != 10000 || txn.BalanceAfterMinor != 7500 {
		t.Fatalf("unexpected snapshots: before=%d after=%d", txn.BalanceBeforeMinor, txn.BalanceAfterMinor)
	}

	w, err := svc.GetBalance(context.Background(), companyID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if w.BalanceMinor != 7500 {
		t.Fatalf("expected balance 7500, got %d", w.BalanceMinor)
	}
}

func TestCharge_InsufficientFundsHasNoSideEffects(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 1000)

	_, err := svc.Charge(context.Background(), companyID, ChargeRequest{
		AmountMinor:    2500,
		Currency:       "USD",
		ReferenceType:  "lead_match",
		ReferenceID:    "match-1",
		IdempotencyKey: "charge-1",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	w, err := svc.GetBalance(context.Background(), companyID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if w.BalanceMinor != 1000 {
		t.Fatalf("balance changed after failed charge: %d", w.BalanceMinor)
	}

	txns, err := svc.ListTransactions(context.Background(), companyID, TransactionFilter{Type: TransactionTypeCharge})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("failed charge left %d ledger entries", len(txns))
	}
}

func TestCharge_ExactBalanceSucceeds(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 2500)

	txn, err := svc.Charge(context.Background(), companyID, ChargeRequest{
		AmountMinor:    2500,
		Currency:       "USD",
		ReferenceType:  "call_log",
		ReferenceID:    "call-1",
		IdempotencyKey: "charge-1",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if txn.BalanceAfterMinor != 0 {
		t.Fatalf("expected zero balance after, got %d", txn.BalanceAfterMinor)
	}
}

func TestCharge_IdempotentRetryReturnsOriginal(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 10000)

	req := ChargeRequest{
		AmountMinor:    2500,
		Currency:       "USD",
		ReferenceType:  "lead_match",
		ReferenceID:    "match-1",
		IdempotencyKey: "charge-1",
	}
	first, err := svc.Charge(context.Background(), companyID, req)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	second, err := svc.Charge(context.Background(), companyID, req)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("retry created a new entry: %s vs %s", second.ID, first.ID)
	}

	w, _ := svc.GetBalance(context.Background(), companyID)
	if w.BalanceMinor != 7500 {
		t.Fatalf("retry double-charged: balance %d", w.BalanceMinor)
	}
}

func TestRefund_FullRestoresBalance(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 10000)

	charge, err := svc.Charge(context.Background(), companyID, ChargeRequest{
		AmountMinor:    2500,
		Currency:       "USD",
		ReferenceType:  "lead_match",
		ReferenceID:    "match-1",
		IdempotencyKey: "charge-1",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	refund, err := svc.Refund(context.Background(), companyID, RefundRequest{
		ChargeTransactionID: charge.ID,
		IdempotencyKey:      "refund-1",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.AmountMinor != 2500 {
		t.Fatalf("expected full refund 2500, got %d", refund.AmountMinor)
	}
	if refund.RelatedTransactionID != charge.ID {
		t.Fatalf("refund not linked to charge")
	}

	w, _ := svc.GetBalance(context.Background(), companyID)
	if w.BalanceMinor != 10000 {
		t.Fatalf("expected restored balance 10000, got %d", w.BalanceMinor)
	}
}

func TestRefund_CumulativeCapEnforced(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 10000)

	charge, err := svc.Charge(context.Background(), companyID, ChargeRequest{
		AmountMinor:    2500,
		Currency:       "USD",
		ReferenceType:  "lead_match",
		ReferenceID:    "match-1",
		IdempotencyKey: "charge-1",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	if _, err := svc.Refund(context.Background(), companyID, RefundRequest{
		ChargeTransactionID: charge.ID,
		AmountMinor:         1500,
		IdempotencyKey:      "refund-1",
	}); err != nil {
		t.Fatalf("partial refund: %v", err)
	}

	// 1500 already refunded; another 1500 would exceed the 2500 charge.
	_, err = svc.Refund(context.Background(), companyID, RefundRequest{
		ChargeTransactionID: charge.ID,
		AmountMinor:         1500,
		IdempotencyKey:      "refund-2",
	})
	if !errors.Is(err, ErrRefundExceedsCharge) {
		t.Fatalf("expected ErrRefundExceedsCharge, got %v", err)
	}

	// The remainder is still refundable.
	if _, err := svc.Refund(context.Background(), companyID, RefundRequest{
		ChargeTransactionID: charge.ID,
		AmountMinor:         1000,
		IdempotencyKey:      "refund-3",
	}); err != nil {
		t.Fatalf("remainder refund: %v", err)
	}
}

func TestRefund_RejectsNonChargeTarget(t *testing.T) {
	svc, companyID := newTestService(t)
	credit := fund(t, svc, companyID, 10000)

	_, err := svc.Refund(context.Background(), companyID, RefundRequest{
		ChargeTransactionID: credit.ID,
		IdempotencyKey:      "refund-1",
	})
	if !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("expected ErrNotRefundable, got %v", err)
	}
}

func TestAdjust_NegativeIsFundsChecked(t *testing.T) {
	svc, companyID := newTestService(t)
	fund(t, svc, companyID, 500)

	_, err := svc.Adjust(context.Background(), companyID, AdjustRequest{
		AmountMinor:    -1000,
		Currency:       "USD",
		Reason:         "correction",
		AdminUserID:    "admin-1",
		AdminRole:      "super_admin",
		IdempotencyKey: "adj-1",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCredit_RejectsChargeType(t *testing.T) {
	svc, companyID := newTestService(t)

	_, err := svc.Credit(context.Background(), companyID, CreditRequest{
		Type:           TransactionTypeCharge,
		AmountMinor:    1000,
		Currency:       "USD",
		IdempotencyKey: "bad-1",
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
