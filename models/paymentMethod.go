package models

import (
	"context"
	"errors"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
)

type PaymentMethod struct {
	ID        int       `gorm:"primary_key" json:"id"`
	StoreId   string    `gorm:"index;not null" json:"store_id" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPaymentMethod struct {
	Name string `json:"name" binding:"required"`
}

func (pm PaymentMethod) GetId() int {
	return pm.ID
}

func (input *NewPaymentMethod) validate(ctx context.Context, storeId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[PaymentMethod](ctx, storeId, id); err != nil {
			return err
		}
	}
	return utils.ValidateUnique[PaymentMethod](ctx, storeId, "name", input.Name, id)
}

func CreatePaymentMethod(ctx context.Context, input *NewPaymentMethod) (*PaymentMethod, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(ctx, storeId, 0); err != nil {
		return nil, err
	}

	paymentMethod := PaymentMethod{
		StoreId:  storeId,
		Name:     input.Name,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&paymentMethod).Error; err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[PaymentMethod](storeId)
	return &paymentMethod, nil
}

func UpdatePaymentMethod(ctx context.Context, id int, input *NewPaymentMethod) (*PaymentMethod, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(ctx, storeId, id); err != nil {
		return nil, err
	}

	paymentMethod, err := utils.FetchModel[PaymentMethod](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	paymentMethod.Name = input.Name
	if err := db.WithContext(ctx).Save(paymentMethod).Error; err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[PaymentMethod](storeId)
	return paymentMethod, nil
}

// ListPaymentMethods serves from the per-store cached list when warm;
// mutations clear the cache.
func ListPaymentMethods(ctx context.Context) ([]*PaymentMethod, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	if cached, err := utils.RetrieveRedisList[PaymentMethod](storeId); err == nil && cached != nil {
		return cached, nil
	}

	methods, err := utils.FetchAllModels[PaymentMethod](ctx, storeId)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedisList(methods, storeId)
	return methods, nil
}

func TogglePaymentMethod(ctx context.Context, id int, isActive bool) (*PaymentMethod, error) {
	db := config.GetDB()

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	paymentMethod, err := utils.FetchModel[PaymentMethod](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	paymentMethod.IsActive = &isActive
	if err := db.WithContext(ctx).Save(paymentMethod).Error; err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[PaymentMethod](storeId)
	return paymentMethod, nil
}
