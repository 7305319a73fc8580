package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
)

type StatementLineType string

const (
	StatementLineInvoice StatementLineType = "invoice"
	StatementLinePayment StatementLineType = "payment"
)

type StatementLine struct {
	Date        time.Time         `json:"date"`
	Type        StatementLineType `json:"type"`
	Description string            `json:"description"`
	Reference   string            `json:"reference"`
	// Amount is signed: invoices increase the balance, payments
	// decrease it.
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

type CustomerStatement struct {
	Customer       *Customer        `json:"customer"`
	From           *time.Time       `json:"from"`
	To             *time.Time       `json:"to"`
	Lines          []*StatementLine `json:"lines"`
	TotalInvoiced  decimal.Decimal  `json:"total_invoiced"`
	TotalPaid      decimal.Decimal  `json:"total_paid"`
	ClosingBalance decimal.Decimal  `json:"closing_balance"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

func paymentMethodLabel(p *Payment) string {
	if p.PaymentMethod == nil || p.PaymentMethod.Name == "" {
		return "Cash"
	}
	return p.PaymentMethod.Name
}

// BuildStatementLines merges a customer's sales and payments into a
// single chronological ledger with a running balance. The running
// balance after the last line equals total invoiced minus total paid.
func BuildStatementLines(sales []*Sale, payments []*Payment) []*StatementLine {
	lines := make([]*StatementLine, 0, len(sales)+len(payments))

	for _, sale := range sales {
		lines = append(lines, &StatementLine{
			Date:        sale.SaleDate,
			Type:        StatementLineInvoice,
			Description: fmt.Sprintf("Invoice #%s", sale.TransactionId),
			Reference:   sale.TransactionId,
			Amount:      sale.TotalAmount,
		})
	}
	for _, payment := range payments {
		lines = append(lines, &StatementLine{
			Date:        payment.PaymentDate,
			Type:        StatementLinePayment,
			Description: fmt.Sprintf("Payment Received - %s", paymentMethodLabel(payment)),
			Reference:   payment.ReferenceNumber,
			Amount:      payment.Amount.Neg(),
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Date.Before(lines[j].Date)
	})

	balance := decimal.Zero
	for _, line := range lines {
		balance = balance.Add(line.Amount)
		line.Balance = balance
	}
	return lines
}

func GetCustomerStatement(ctx context.Context, customerId int, from, to *time.Time) (*CustomerStatement, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, fmt.Errorf("store id is required")
	}

	customer, err := utils.FetchModel[Customer](ctx, storeId, customerId)
	if err != nil {
		return nil, err
	}

	dbCtx := db.WithContext(ctx).Model(&Sale{}).
		Where("store_id = ? AND customer_id = ?", storeId, customerId)
	if from != nil {
		dbCtx = dbCtx.Where("sale_date >= ?", *from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("sale_date <= ?", *to)
	}
	sales := make([]*Sale, 0)
	if err := dbCtx.Find(&sales).Error; err != nil {
		return nil, err
	}

	payments, err := ListPaymentsForCustomer(ctx, customerId, from, to)
	if err != nil {
		return nil, err
	}

	statement := CustomerStatement{
		Customer:    customer,
		From:        from,
		To:          to,
		Lines:       BuildStatementLines(sales, payments),
		GeneratedAt: time.Now(),
	}
	for _, sale := range sales {
		statement.TotalInvoiced = statement.TotalInvoiced.Add(sale.TotalAmount)
	}
	for _, payment := range payments {
		statement.TotalPaid = statement.TotalPaid.Add(payment.Amount)
	}
	statement.ClosingBalance = statement.TotalInvoiced.Sub(statement.TotalPaid)
	return &statement, nil
}
