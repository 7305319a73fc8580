package models_test

import (
	"encoding/json"
	"testing"

	"github.com/salepilot/salepilot_backend/models"
	"github.com/shopspring/decimal"
)

// POS clients send money as numbers or formatted strings; the input
// structs must absorb both.
func TestNewPaymentAcceptsFormattedAmount(t *testing.T) {
	var input models.NewPayment
	if err := json.Unmarshal([]byte(`{"amount":"20,000"}`), &input); err != nil {
		t.Fatalf("unmarshal formatted amount: %v", err)
	}
	if !input.Amount.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("amount = %s, want 20000", input.Amount)
	}

	if err := json.Unmarshal([]byte(`{"amount":50.25}`), &input); err != nil {
		t.Fatalf("unmarshal numeric amount: %v", err)
	}
	if !input.Amount.Equal(decimal.RequireFromString("50.25")) {
		t.Fatalf("amount = %s, want 50.25", input.Amount)
	}
}

func TestNewSaleAcceptsFormattedAmounts(t *testing.T) {
	payload := `{"total":"NGN 1,500.50","amount_paid":"250","date":"2026-02-01T00:00:00Z"}`
	var input models.NewSale
	if err := json.Unmarshal([]byte(payload), &input); err != nil {
		t.Fatalf("unmarshal sale: %v", err)
	}
	if !input.Total.Equal(decimal.RequireFromString("1500.50")) {
		t.Fatalf("total = %s, want 1500.50", input.Total)
	}
	if !input.AmountPaid.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("amount_paid = %s, want 250", input.AmountPaid)
	}
}
