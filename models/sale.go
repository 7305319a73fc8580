package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPartial = "partial"
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusCredit  = "credit"
)

type Sale struct {
	ID            int             `gorm:"primary_key" json:"id"`
	StoreId       string          `gorm:"index;not null;uniqueIndex:idx_store_txn,priority:1" json:"store_id" binding:"required"`
	TransactionId string          `gorm:"size:64;not null;uniqueIndex:idx_store_txn,priority:2" json:"transaction_id"`
	SequenceNo    decimal.Decimal `gorm:"type:decimal(15);not null" json:"sequence_no"`
	CustomerId    int             `gorm:"index;default:0" json:"customer_id"`
	Customer      *Customer       `json:"customer"`
	// CustomerName snapshots the name at sale time for walk-ins and for
	// sales whose customer row was later deactivated.
	CustomerName  string          `gorm:"size:100" json:"customer_name"`
	Channel       string          `gorm:"size:20;default:'pos'" json:"channel"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total" binding:"required"`
	// AmountPaid is a legacy snapshot kept for sales imported without
	// payment rows. Once payments exist, the payment rows win.
	AmountPaid    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_paid"`
	PaymentStatus string          `gorm:"type:enum('paid','partial','unpaid','credit');default:'unpaid'" json:"payment_status"`
	SaleDate      time.Time       `gorm:"index;not null" json:"date"`
	DueDate       *time.Time      `gorm:"index" json:"due_date"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Payments      []*Payment      `gorm:"foreignKey:SaleId" json:"payments"`
	Documents     []*Document     `gorm:"polymorphic:Reference" json:"documents"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSale struct {
	CustomerId   int            `json:"customer_id"`
	CustomerName string         `json:"customer_name"`
	Channel      string         `json:"channel"`
	Total        utils.Amount   `json:"total" binding:"required"`
	AmountPaid   utils.Amount   `json:"amount_paid"`
	SaleDate     time.Time      `json:"date" binding:"required"`
	DueDate      *time.Time     `json:"due_date"`
	Notes        string         `json:"notes"`
	Documents    []*NewDocument `json:"documents"`
}

type SalesEdge Edge[Sale]
type SalesConnection struct {
	Edges    []*SalesEdge `json:"edges"`
	PageInfo *PageInfo    `json:"pageInfo"`
}

// returns decoded cursor string
func (s Sale) GetCursor() string {
	return s.CreatedAt.String()
}

func (s Sale) GetId() int {
	return s.ID
}

// InvoiceView is a Sale decorated with the derived receivable fields
// the collections screen displays.
type InvoiceView struct {
	TransactionId string          `json:"transaction_id"`
	CustomerId    int             `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	SaleDate      time.Time       `json:"date"`
	DueDate       *time.Time      `json:"due_date"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	Status        InvoiceStatus   `json:"status"`
}

type ReceivablesResult struct {
	Invoices         []*InvoiceView  `json:"invoices"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	OpenCount        int             `json:"open_count"`
	OverdueCount     int             `json:"overdue_count"`
}

const unknownCustomerName = "Unknown Customer"

func (s *Sale) customerName() string {
	if s.Customer != nil && s.Customer.Name != "" {
		return s.Customer.Name
	}
	if s.CustomerName != "" {
		return s.CustomerName
	}
	return unknownCustomerName
}

func NewInvoiceView(sale *Sale, asOf time.Time) *InvoiceView {
	return &InvoiceView{
		TransactionId: sale.TransactionId,
		CustomerId:    sale.CustomerId,
		CustomerName:  sale.customerName(),
		SaleDate:      sale.SaleDate,
		DueDate:       sale.DueDate,
		Total:         sale.TotalAmount,
		AmountPaid:    CalculatedAmountPaid(sale),
		BalanceDue:    BalanceDue(sale),
		Status:        DisplayStatus(sale, asOf),
	}
}

func (input *NewSale) validate(ctx context.Context, storeId string) error {
	if input.Total.IsNegative() {
		return utils.ErrorInvalidAmount
	}
	if input.AmountPaid.IsNegative() {
		return utils.ErrorInvalidAmount
	}
	if input.CustomerId > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, storeId, input.CustomerId); err != nil {
			return errors.New("customer not found")
		}
	}
	if input.DueDate != nil && input.DueDate.Before(input.SaleDate) {
		return errors.New("due date is before sale date")
	}
	return nil
}

func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(ctx, storeId); err != nil {
		return nil, err
	}

	documents, err := mapNewDocuments(input.Documents, "sales", 0)
	if err != nil {
		return nil, err
	}

	channel := input.Channel
	if channel == "" {
		channel = "pos"
	}
	sale := Sale{
		StoreId:      storeId,
		CustomerId:   input.CustomerId,
		CustomerName: input.CustomerName,
		Channel:      channel,
		TotalAmount:  input.Total.Decimal,
		AmountPaid:   input.AmountPaid.Decimal,
		SaleDate:     input.SaleDate,
		DueDate:      input.DueDate,
		Notes:        input.Notes,
		Documents:    documents,
	}

	seqNo, err := utils.GetSequence[Sale](ctx, storeId)
	if err != nil {
		return nil, err
	}
	sale.SequenceNo = decimal.NewFromInt(seqNo)
	sale.TransactionId = fmt.Sprintf("TXN-%06d", seqNo)

	balance := input.Total.Sub(input.AmountPaid.Decimal).Round(2)
	switch {
	case balance.Sign() <= 0:
		sale.PaymentStatus = PaymentStatusPaid
	case input.AmountPaid.Sign() > 0:
		sale.PaymentStatus = PaymentStatusPartial
	default:
		sale.PaymentStatus = PaymentStatusUnpaid
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if sale.CustomerId > 0 && balance.Sign() > 0 {
		if err := adjustCustomerBalance(tx, ctx, storeId, sale.CustomerId, balance); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.InvalidateReceivableCache(storeId)
	return &sale, nil
}

func GetSaleByTransactionId(ctx context.Context, transactionId string) (*Sale, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	var sale Sale
	err := db.WithContext(ctx).Model(&Sale{}).
		Preload("Customer").Preload("Payments").
		Where("store_id = ? AND transaction_id = ?", storeId, transactionId).
		First(&sale).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &sale, nil
}

// ListReceivables fetches the store's credit-relevant sales and
// classifies them in memory. TotalOutstanding is computed over the
// whole set before the filter is applied, so the headline figure is
// stable across filter switches. Customer names are left to the
// caller to resolve (request-scoped loaders batch them).
func ListReceivables(ctx context.Context, filter ReceivableFilter, search string, customerId int) (*ReceivablesResult, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	dbCtx := db.WithContext(ctx).Model(&Sale{}).
		Preload("Payments").
		Where("store_id = ?", storeId)
	if customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", customerId)
	}
	if search != "" {
		pattern := "%" + search + "%"
		dbCtx = dbCtx.Where(
			"transaction_id LIKE ? OR customer_id IN (SELECT id FROM customers WHERE store_id = ? AND name LIKE ?)",
			pattern, storeId, pattern)
	}

	sales := make([]*Sale, 0)
	if err := dbCtx.Find(&sales).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	result := ReceivablesResult{
		TotalOutstanding: TotalOutstanding(sales),
	}
	for _, sale := range sales {
		if !IsPaid(sale) {
			result.OpenCount++
		}
		if IsOverdue(sale, now) {
			result.OverdueCount++
		}
	}

	filtered := FilterSales(sales, filter, now)
	SortByDueDate(filtered)

	result.Invoices = make([]*InvoiceView, 0, len(filtered))
	for _, sale := range filtered {
		result.Invoices = append(result.Invoices, NewInvoiceView(sale, now))
	}
	return &result, nil
}

// PaginateSales is the raw cursor-paginated listing used by exports
// and admin tooling, ordered by creation time.
func PaginateSales(ctx context.Context, limit int, after *string) (*SalesConnection, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	dbCtx := db.WithContext(ctx).Model(&Sale{}).
		Preload("Customer").Preload("Payments").
		Where("store_id = ?", storeId)

	edges, pageInfo, err := FetchPagePureCursor[Sale](dbCtx, limit, after, "created_at", ">")
	if err != nil {
		return nil, err
	}

	connection := SalesConnection{PageInfo: pageInfo}
	connection.Edges = make([]*SalesEdge, 0, len(edges))
	for i := range edges {
		edge := SalesEdge(edges[i])
		connection.Edges = append(connection.Edges, &edge)
	}
	return &connection, nil
}
