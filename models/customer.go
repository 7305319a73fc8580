package models

import (
	"context"
	"errors"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID      int    `gorm:"primary_key" json:"id"`
	StoreId string `gorm:"index;not null" json:"store_id" binding:"required"`
	Name    string `gorm:"size:100;not null" json:"name" binding:"required"`
	Email   string `gorm:"size:100" json:"email"`
	Phone   string `gorm:"size:20" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
	// AccountBalance mirrors the sum of the customer's open invoice
	// balances. The balance audit worker reconciles drift.
	AccountBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"account_balance"`
	StoreCredit    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"store_credit"`
	Notes          string          `gorm:"type:text" json:"notes"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	Documents      []*Document     `gorm:"polymorphic:Reference" json:"documents"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name      string         `json:"name" binding:"required"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address"`
	Notes     string         `json:"notes"`
	Documents []*NewDocument `json:"documents"`
}

type CustomersEdge Edge[Customer]
type CustomersConnection struct {
	Edges    []*CustomersEdge `json:"edges"`
	PageInfo *PageInfo        `json:"pageInfo"`
}

// returns decoded cursor string
func (c Customer) GetCursor() string {
	return c.CreatedAt.String()
}

func (c Customer) GetId() int {
	return c.ID
}

func (input *NewCustomer) validate(ctx context.Context, storeId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, storeId, id); err != nil {
			return err
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Customer](ctx, storeId, "name", input.Name, id); err != nil {
		return err
	}
	// validate email
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return errors.New("invalid email")
		}
		if err := utils.ValidateUnique[Customer](ctx, storeId, "email", input.Email, id); err != nil {
			return err
		}
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
		if err := utils.ValidateUnique[Customer](ctx, storeId, "phone", input.Phone, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(ctx, storeId, 0); err != nil {
		return nil, err
	}

	documents, err := mapNewDocuments(input.Documents, "customers", 0)
	if err != nil {
		return nil, err
	}

	customer := Customer{
		StoreId:   storeId,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		Notes:     input.Notes,
		IsActive:  utils.NewTrue(),
		Documents: documents,
	}

	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(ctx, storeId, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.Notes = input.Notes

	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}
	return utils.FetchModel[Customer](ctx, storeId, id, "Documents")
}

func ListCustomers(ctx context.Context, name string) ([]*Customer, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	dbCtx := db.WithContext(ctx).Model(&Customer{}).Where("store_id = ?", storeId)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+name+"%")
	}

	customers := make([]*Customer, 0)
	if err := dbCtx.Order("name").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func ToggleActiveCustomer(ctx context.Context, id int, isActive bool) (*Customer, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	customer, err := utils.FetchModel[Customer](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	customer.IsActive = &isActive
	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// adjustCustomerBalance shifts the cached receivable balance inside an
// open transaction. Positive delta for new credit sales, negative when
// payments land.
func adjustCustomerBalance(tx *gorm.DB, ctx context.Context, storeId string, customerId int, delta decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&Customer{}).
		Where("store_id = ? AND id = ?", storeId, customerId).
		Update("account_balance", gorm.Expr("account_balance + ?", delta)).Error
}

func creditStoreBalance(tx *gorm.DB, ctx context.Context, storeId string, customerId int, amount decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&Customer{}).
		Where("store_id = ? AND id = ?", storeId, customerId).
		Update("store_credit", gorm.Expr("store_credit + ?", amount)).Error
}
