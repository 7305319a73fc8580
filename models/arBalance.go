package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
	InvoiceStatusPending InvoiceStatus = "Pending"
)

type ReceivableFilter string

const (
	ReceivableFilterOpen    ReceivableFilter = "open"
	ReceivableFilterOverdue ReceivableFilter = "overdue"
	ReceivableFilterPaid    ReceivableFilter = "paid"
	ReceivableFilterAll     ReceivableFilter = "all"
)

func ParseReceivableFilter(s string) ReceivableFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overdue":
		return ReceivableFilterOverdue
	case "paid":
		return ReceivableFilterPaid
	case "all":
		return ReceivableFilterAll
	default:
		return ReceivableFilterOpen
	}
}

// CalculatedAmountPaid returns the sum of the sale's recorded payments.
// The stored amount_paid column is only trusted when no payment rows
// exist at all (legacy sales imported before per-payment tracking).
func CalculatedAmountPaid(sale *Sale) decimal.Decimal {
	if len(sale.Payments) == 0 {
		return sale.AmountPaid
	}
	total := decimal.Zero
	for _, p := range sale.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// BalanceCents computes the outstanding balance in integer cents.
// Comparing in cents after rounding absorbs float artifacts from
// upstream clients that send amounts like 99.99000000000001.
func BalanceCents(sale *Sale) int64 {
	balance := sale.TotalAmount.Sub(CalculatedAmountPaid(sale)).Round(2)
	return balance.Mul(decimal.NewFromInt(100)).IntPart()
}

// IsPaid reports whether a sale is settled. A sale explicitly marked
// paid stays paid even if its payment rows no longer sum to the total.
func IsPaid(sale *Sale) bool {
	if strings.EqualFold(sale.PaymentStatus, PaymentStatusPaid) {
		return true
	}
	return BalanceCents(sale) <= 0
}

// BalanceDue is the collectible amount, never negative. Overpaid sales
// report zero here; the surplus is handled at payment recording time.
func BalanceDue(sale *Sale) decimal.Decimal {
	cents := BalanceCents(sale)
	if cents <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

// IsOverdue reports whether an unpaid sale's due date has passed.
// Paid sales are never overdue regardless of due date.
func IsOverdue(sale *Sale, asOf time.Time) bool {
	if IsPaid(sale) {
		return false
	}
	if sale.DueDate == nil {
		return false
	}
	return sale.DueDate.Before(asOf)
}

// DisplayStatus resolves the badge shown to collectors.
// Precedence: Paid beats Overdue beats Pending.
func DisplayStatus(sale *Sale, asOf time.Time) InvoiceStatus {
	if IsPaid(sale) {
		return InvoiceStatusPaid
	}
	if IsOverdue(sale, asOf) {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusPending
}

func MatchesFilter(sale *Sale, filter ReceivableFilter, asOf time.Time) bool {
	switch filter {
	case ReceivableFilterOpen:
		return !IsPaid(sale)
	case ReceivableFilterOverdue:
		return IsOverdue(sale, asOf)
	case ReceivableFilterPaid:
		return IsPaid(sale)
	default:
		return true
	}
}

func FilterSales(sales []*Sale, filter ReceivableFilter, asOf time.Time) []*Sale {
	result := make([]*Sale, 0, len(sales))
	for _, sale := range sales {
		if MatchesFilter(sale, filter, asOf) {
			result = append(result, sale)
		}
	}
	return result
}

// SortByDueDate orders sales most-urgent first. Sales with no due date
// sort as epoch zero, surfacing incomplete records at the top of the
// worklist instead of burying them at the end.
func SortByDueDate(sales []*Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		return dueDateOrZero(sales[i]).Before(dueDateOrZero(sales[j]))
	})
}

func dueDateOrZero(sale *Sale) time.Time {
	if sale.DueDate == nil {
		return time.Unix(0, 0).UTC()
	}
	return *sale.DueDate
}

// TotalOutstanding sums balance due across the full set of sales.
// Callers must pass the unfiltered set: the headline figure does not
// move when the collector switches list filters.
func TotalOutstanding(sales []*Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(BalanceDue(sale))
	}
	return total
}
