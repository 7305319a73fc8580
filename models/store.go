package models

import (
	"context"
	"errors"
	"time"

	"github.com/salepilot/salepilot_backend/config"
)

type Store struct {
	ID             string    `gorm:"primary_key;size:64" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name" binding:"required"`
	CurrencyCode   string    `gorm:"size:3;not null;default:'NGN'" json:"currency_code"`
	CurrencySymbol string    `gorm:"size:8;not null;default:'₦'" json:"currency_symbol"`
	Timezone       string    `gorm:"size:64;not null;default:'Africa/Lagos'" json:"timezone"`
	// DefaultCreditDays seeds a due date for credit sales created
	// without one.
	DefaultCreditDays int       `gorm:"default:30" json:"default_credit_days"`
	IsActive          *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	Store:$storeId
*/

func GetStoreById(ctx context.Context, storeId string) (*Store, error) {
	db := config.GetDB()

	var store Store
	exists, err := config.GetRedisObject("Store:"+storeId, &store)
	if err == nil && exists {
		return &store, nil
	}

	if err := db.WithContext(ctx).Model(&Store{}).Where("id = ?", storeId).First(&store).Error; err != nil {
		return nil, errors.New("store not found")
	}

	_ = config.SetRedisObject("Store:"+storeId, &store, time.Hour)
	return &store, nil
}

func (store Store) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("Store:" + store.ID)
}
