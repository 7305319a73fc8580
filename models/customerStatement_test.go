package models_test

import (
	"testing"
	"time"

	"github.com/salepilot/salepilot_backend/models"
)

func day(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildStatementLines_RunningBalance(t *testing.T) {
	sales := []*models.Sale{
		{TransactionId: "TXN-000001", TotalAmount: dec("100"), SaleDate: day(1)},
		{TransactionId: "TXN-000002", TotalAmount: dec("50"), SaleDate: day(3)},
	}
	payments := []*models.Payment{
		{Amount: dec("60"), PaymentDate: day(2), PaymentMethod: &models.PaymentMethod{Name: "Transfer"}},
	}

	lines := models.BuildStatementLines(sales, payments)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	// chronological: invoice 100, payment -60, invoice 50
	if lines[0].Description != "Invoice #TXN-000001" {
		t.Fatalf("line 0 = %q", lines[0].Description)
	}
	if lines[1].Description != "Payment Received - Transfer" {
		t.Fatalf("line 1 = %q", lines[1].Description)
	}
	if lines[2].Description != "Invoice #TXN-000002" {
		t.Fatalf("line 2 = %q", lines[2].Description)
	}

	wantBalances := []string{"100", "40", "90"}
	for i, w := range wantBalances {
		if !lines[i].Balance.Equal(dec(w)) {
			t.Fatalf("line %d balance = %s, want %s", i, lines[i].Balance, w)
		}
	}

	// closing balance reconciles with invoiced minus paid
	closing := lines[len(lines)-1].Balance
	if !closing.Equal(dec("150").Sub(dec("60"))) {
		t.Fatalf("closing balance = %s, want 90", closing)
	}
}

func TestBuildStatementLines_DefaultsMethodToCash(t *testing.T) {
	payments := []*models.Payment{
		{Amount: dec("10"), PaymentDate: day(1)},
	}
	lines := models.BuildStatementLines(nil, payments)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Description != "Payment Received - Cash" {
		t.Fatalf("description = %q", lines[0].Description)
	}
	if !lines[0].Balance.Equal(dec("-10")) {
		t.Fatalf("balance = %s, want -10", lines[0].Balance)
	}
}

func TestBuildStatementLines_StableWithinSameDate(t *testing.T) {
	// an invoice and its same-day payment keep insertion order:
	// invoices are merged in before payments
	sales := []*models.Sale{
		{TransactionId: "TXN-000009", TotalAmount: dec("25"), SaleDate: day(5)},
	}
	payments := []*models.Payment{
		{Amount: dec("25"), PaymentDate: day(5)},
	}

	lines := models.BuildStatementLines(sales, payments)
	if lines[0].Type != models.StatementLineInvoice || lines[1].Type != models.StatementLinePayment {
		t.Fatalf("same-day order = %s, %s; want invoice then payment", lines[0].Type, lines[1].Type)
	}
	if !lines[1].Balance.IsZero() {
		t.Fatalf("closing balance = %s, want 0", lines[1].Balance)
	}
}

func TestBuildStatementLines_Empty(t *testing.T) {
	lines := models.BuildStatementLines(nil, nil)
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(lines))
	}
}
