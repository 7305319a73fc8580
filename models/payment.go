package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	StoreId         string          `gorm:"index;not null" json:"store_id" binding:"required"`
	SaleId          int             `gorm:"index;not null" json:"sale_id" binding:"required"`
	CustomerId      int             `gorm:"index;default:0" json:"customer_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	PaymentMethodId int             `gorm:"default:null" json:"payment_method_id"`
	PaymentMethod   *PaymentMethod  `json:"payment_method"`
	PaymentDate     time.Time       `gorm:"index;not null" json:"payment_date"`
	ReferenceNumber string          `gorm:"size:255;default:null" json:"reference_number"`
	Notes           string          `gorm:"type:text;default:null" json:"notes"`
	RecordedBy      int             `gorm:"default:0" json:"recorded_by"`
	Documents       []*Document     `gorm:"polymorphic:Reference" json:"documents"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	Amount          utils.Amount   `json:"amount" binding:"required"`
	PaymentMethodId int            `json:"payment_method_id"`
	PaymentDate     *time.Time     `json:"payment_date"`
	ReferenceNumber string         `json:"reference_number"`
	Notes           string         `json:"notes"`
	Documents       []*NewDocument `json:"documents"`
}

func (p Payment) GetCursor() string {
	return p.CreatedAt.String()
}

func (p Payment) GetId() int {
	return p.ID
}

func (input *NewPayment) validate(ctx context.Context, storeId string) error {
	if !input.Amount.IsPositive() {
		return utils.ErrorInvalidAmount
	}
	if input.PaymentMethodId > 0 {
		if err := utils.ValidateResourceId[PaymentMethod](ctx, storeId, input.PaymentMethodId); err != nil {
			return errors.New("payment method not found")
		}
	}
	return nil
}

// RecordPayment applies a payment against a sale and recomputes the
// receivable state in one transaction. A per-invoice redis lock
// serialises concurrent cashiers hitting the same transaction id so
// the settled/overpaid decision is made against fresh payment rows.
func RecordPayment(ctx context.Context, transactionId string, input *NewPayment) (*Payment, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(ctx, storeId); err != nil {
		return nil, err
	}

	locker := config.GetRedisLock()
	if locker != nil {
		lockKey := fmt.Sprintf("PaymentLock:%s:%s", storeId, transactionId)
		lock, err := locker.Obtain(ctx, lockKey, 10*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 25),
		})
		if err != nil {
			return nil, errors.New("payment in progress for this invoice, try again")
		}
		defer lock.Release(ctx)
	}

	sale, err := GetSaleByTransactionId(ctx, transactionId)
	if err != nil {
		return nil, err
	}

	balanceBefore := BalanceDue(sale)

	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	documents, err := mapNewDocuments(input.Documents, "payments", 0)
	if err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	payment := Payment{
		StoreId:         storeId,
		SaleId:          sale.ID,
		CustomerId:      sale.CustomerId,
		Amount:          input.Amount.Decimal,
		PaymentMethodId: input.PaymentMethodId,
		PaymentDate:     paymentDate,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		RecordedBy:      userId,
		Documents:       documents,
	}

	tx := db.Begin()

	// Imported sales carry their paid total only in the amount_paid
	// column. Materialize it as a payment row before the first real
	// payment lands; otherwise the recomputation below would count just
	// the new row and the balance would grow.
	if len(sale.Payments) == 0 && sale.AmountPaid.IsPositive() {
		legacy := Payment{
			StoreId:     storeId,
			SaleId:      sale.ID,
			CustomerId:  sale.CustomerId,
			Amount:      sale.AmountPaid,
			PaymentDate: sale.SaleDate,
			Notes:       "opening paid amount from import",
		}
		if err := tx.WithContext(ctx).Create(&legacy).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		sale.Payments = append(sale.Payments, &legacy)
	}

	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	sale.Payments = append(sale.Payments, &payment)
	newPaid := CalculatedAmountPaid(sale)
	newBalanceCents := BalanceCents(sale)

	status := PaymentStatusPartial
	if newBalanceCents <= 0 {
		status = PaymentStatusPaid
	}
	err = tx.WithContext(ctx).Model(&Sale{}).
		Where("store_id = ? AND id = ?", storeId, sale.ID).
		Updates(map[string]interface{}{
			"amount_paid":    newPaid,
			"payment_status": status,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if sale.CustomerId > 0 {
		// the receivable can only shrink by what was actually owed
		applied := decimal.Min(input.Amount.Decimal, balanceBefore)
		if applied.IsPositive() {
			if err := adjustCustomerBalance(tx, ctx, storeId, sale.CustomerId, applied.Neg()); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		if overpaid := input.Amount.Sub(applied); overpaid.IsPositive() && config.OverpaymentToStoreCredit() {
			if err := creditStoreBalance(tx, ctx, storeId, sale.CustomerId, overpaid); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := EnqueuePaymentEvent(tx, ctx, storeId, sale, &payment, PaymentEventActionCreate); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	utils.InvalidateReceivableCache(storeId)
	return &payment, nil
}

// ListPaymentsForSale returns the payment rows behind a sale, newest
// last, for the invoice drill-down view.
func ListPaymentsForSale(ctx context.Context, transactionId string) ([]*Payment, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	sale, err := GetSaleByTransactionId(ctx, transactionId)
	if err != nil {
		return nil, err
	}

	payments := make([]*Payment, 0)
	err = db.WithContext(ctx).Model(&Payment{}).
		Preload("PaymentMethod").Preload("Documents").
		Where("store_id = ? AND sale_id = ?", storeId, sale.ID).
		Order("payment_date, id").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListPaymentsForCustomer feeds the statement builder.
func ListPaymentsForCustomer(ctx context.Context, customerId int, from, to *time.Time) ([]*Payment, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	dbCtx := db.WithContext(ctx).Model(&Payment{}).
		Preload("PaymentMethod").
		Where("store_id = ? AND customer_id = ?", storeId, customerId)
	if from != nil {
		dbCtx = dbCtx.Where("payment_date >= ?", *from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("payment_date <= ?", *to)
	}

	payments := make([]*Payment, 0)
	if err := dbCtx.Order("payment_date, id").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
