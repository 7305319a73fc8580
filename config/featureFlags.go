package config

import (
	"os"
	"strings"
)

// OverpaymentToStoreCredit controls what happens when a recorded payment
// exceeds the invoice's remaining balance.
//
// Off (default): the excess is accepted and the displayed balance clamps to
// zero, matching the POS client's historical behavior.
// On: the excess is credited to the customer's store_credit balance.
//
// Set via env:
// - OVERPAYMENT_TO_STORE_CREDIT=true
func OverpaymentToStoreCredit() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OVERPAYMENT_TO_STORE_CREDIT")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// BalanceAuditEnabled gates the periodic customer-balance reconciliation
// worker. The audit also runs on demand via the internal ops endpoint and
// the reconcile-customer-balances CLI regardless of this flag.
//
// Set via env:
// - BALANCE_AUDIT_ENABLED=true
func BalanceAuditEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("BALANCE_AUDIT_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
