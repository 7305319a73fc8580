package models_test

import (
	"testing"
	"time"

	"github.com/salepilot/salepilot_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func timePtr(t time.Time) *time.Time { return &t }

func saleWithPayments(total string, paymentAmounts ...string) *models.Sale {
	sale := &models.Sale{
		TotalAmount:   dec(total),
		PaymentStatus: models.PaymentStatusUnpaid,
	}
	for _, a := range paymentAmounts {
		sale.Payments = append(sale.Payments, &models.Payment{Amount: dec(a)})
	}
	return sale
}

func TestCalculatedAmountPaid_PaymentRowsWin(t *testing.T) {
	sale := saleWithPayments("100", "40", "25")
	sale.AmountPaid = dec("99") // stale legacy column

	got := models.CalculatedAmountPaid(sale)
	if !got.Equal(dec("65")) {
		t.Fatalf("CalculatedAmountPaid = %s, want 65", got)
	}
}

func TestCalculatedAmountPaid_FallsBackToStoredColumn(t *testing.T) {
	sale := saleWithPayments("100")
	sale.AmountPaid = dec("30")

	got := models.CalculatedAmountPaid(sale)
	if !got.Equal(dec("30")) {
		t.Fatalf("CalculatedAmountPaid = %s, want 30", got)
	}
}

func TestBalanceDue_NeverNegative(t *testing.T) {
	sale := saleWithPayments("100", "150")

	if got := models.BalanceDue(sale); !got.IsZero() {
		t.Fatalf("BalanceDue = %s, want 0 for overpaid sale", got)
	}
	if !models.IsPaid(sale) {
		t.Fatal("overpaid sale should be settled")
	}
}

func TestBalanceCents_AbsorbsFloatArtifacts(t *testing.T) {
	// totals arriving as 9.999999 from float-happy clients settle
	// cleanly against a 10.00 payment
	sale := saleWithPayments("9.999999", "10")

	if got := models.BalanceCents(sale); got != 0 {
		t.Fatalf("BalanceCents = %d, want 0", got)
	}
	if !models.IsPaid(sale) {
		t.Fatal("sale within half a cent of settled should be paid")
	}
}

func TestIsPaid_StatusOverridesBalance(t *testing.T) {
	sale := saleWithPayments("100", "20")
	sale.PaymentStatus = models.PaymentStatusPaid

	if !models.IsPaid(sale) {
		t.Fatal("payment_status 'paid' must settle the sale regardless of rows")
	}
	if got := models.BalanceDue(sale); !got.IsZero() {
		t.Fatalf("BalanceDue = %s, want 0 when marked paid", got)
	}
}

func TestDisplayStatus_Precedence(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := timePtr(now.AddDate(0, 0, -5))
	future := timePtr(now.AddDate(0, 0, 5))

	overdue := saleWithPayments("100", "20")
	overdue.DueDate = past
	if got := models.DisplayStatus(overdue, now); got != models.InvoiceStatusOverdue {
		t.Fatalf("DisplayStatus = %s, want Overdue", got)
	}

	// paid beats overdue
	paidLate := saleWithPayments("100", "100")
	paidLate.DueDate = past
	if got := models.DisplayStatus(paidLate, now); got != models.InvoiceStatusPaid {
		t.Fatalf("DisplayStatus = %s, want Paid", got)
	}

	pending := saleWithPayments("100", "20")
	pending.DueDate = future
	if got := models.DisplayStatus(pending, now); got != models.InvoiceStatusPending {
		t.Fatalf("DisplayStatus = %s, want Pending", got)
	}

	// no due date is never overdue
	noDue := saleWithPayments("100")
	if got := models.DisplayStatus(noDue, now); got != models.InvoiceStatusPending {
		t.Fatalf("DisplayStatus = %s, want Pending for missing due date", got)
	}
}

func TestFilterSales(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	open := saleWithPayments("100", "40")
	open.DueDate = timePtr(now.AddDate(0, 0, 3))
	overdue := saleWithPayments("200")
	overdue.DueDate = timePtr(now.AddDate(0, 0, -3))
	paid := saleWithPayments("50", "50")

	all := []*models.Sale{open, overdue, paid}

	if got := len(models.FilterSales(all, models.ReceivableFilterOpen, now)); got != 2 {
		t.Fatalf("open filter kept %d sales, want 2", got)
	}
	if got := len(models.FilterSales(all, models.ReceivableFilterOverdue, now)); got != 1 {
		t.Fatalf("overdue filter kept %d sales, want 1", got)
	}
	if got := len(models.FilterSales(all, models.ReceivableFilterPaid, now)); got != 1 {
		t.Fatalf("paid filter kept %d sales, want 1", got)
	}
	if got := len(models.FilterSales(all, models.ReceivableFilterAll, now)); got != 3 {
		t.Fatalf("all filter kept %d sales, want 3", got)
	}
}

func TestTotalOutstanding_IgnoresFilter(t *testing.T) {
	now := time.Now()

	open := saleWithPayments("100", "40")
	overdue := saleWithPayments("200")
	overdue.DueDate = timePtr(now.AddDate(0, 0, -3))
	paid := saleWithPayments("50", "50")
	overpaid := saleWithPayments("80", "90")

	all := []*models.Sale{open, overdue, paid, overpaid}

	// 60 + 200, paid and overpaid contribute nothing
	want := dec("260")
	if got := models.TotalOutstanding(all); !got.Equal(want) {
		t.Fatalf("TotalOutstanding = %s, want %s", got, want)
	}

	// the same figure regardless of which filter the view applies
	filtered := models.FilterSales(all, models.ReceivableFilterOverdue, now)
	if got := models.TotalOutstanding(all); !got.Equal(want) {
		t.Fatalf("TotalOutstanding after filtering = %s, want %s", got, want)
	}
	if len(filtered) != 1 {
		t.Fatalf("overdue filter kept %d sales, want 1", len(filtered))
	}
}

func TestSortByDueDate_MissingDatesFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	a := saleWithPayments("10")
	a.TransactionId = "TXN-000001"
	a.DueDate = timePtr(now.AddDate(0, 0, 10))
	b := saleWithPayments("10")
	b.TransactionId = "TXN-000002"
	b.DueDate = timePtr(now.AddDate(0, 0, 1))
	c := saleWithPayments("10")
	c.TransactionId = "TXN-000003" // no due date

	sales := []*models.Sale{a, b, c}
	models.SortByDueDate(sales)

	want := []string{"TXN-000003", "TXN-000002", "TXN-000001"}
	for i, w := range want {
		if sales[i].TransactionId != w {
			t.Fatalf("position %d = %s, want %s", i, sales[i].TransactionId, w)
		}
	}
}

func TestBalanceFunctions_DoNotMutateSale(t *testing.T) {
	sale := saleWithPayments("100", "40")
	sale.DueDate = timePtr(time.Now().AddDate(0, 0, -1))
	before := sale.TotalAmount.String() + "|" + sale.AmountPaid.String() + "|" + sale.PaymentStatus

	_ = models.CalculatedAmountPaid(sale)
	_ = models.BalanceDue(sale)
	_ = models.DisplayStatus(sale, time.Now())
	_ = models.TotalOutstanding([]*models.Sale{sale})

	after := sale.TotalAmount.String() + "|" + sale.AmountPaid.String() + "|" + sale.PaymentStatus
	if before != after {
		t.Fatalf("derivation mutated the sale: %s -> %s", before, after)
	}
	if len(sale.Payments) != 1 {
		t.Fatalf("derivation changed payment rows: %d", len(sale.Payments))
	}
}

func TestParseReceivableFilter(t *testing.T) {
	cases := map[string]models.ReceivableFilter{
		"open":    models.ReceivableFilterOpen,
		"OVERDUE": models.ReceivableFilterOverdue,
		" paid ":  models.ReceivableFilterPaid,
		"all":     models.ReceivableFilterAll,
		"":        models.ReceivableFilterOpen,
		"bogus":   models.ReceivableFilterOpen,
	}
	for in, want := range cases {
		if got := models.ParseReceivableFilter(in); got != want {
			t.Fatalf("ParseReceivableFilter(%q) = %s, want %s", in, got, want)
		}
	}
}
