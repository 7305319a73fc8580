package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/salepilot/salepilot_backend/models"
	"gorm.io/gorm"
)

type salePaymentsReader struct {
	db *gorm.DB
}

func (r *salePaymentsReader) getPayments(ctx context.Context, saleIds []int) []*dataloader.Result[[]*models.Payment] {
	var results []models.Payment
	err := r.db.WithContext(ctx).
		Where("sale_id IN ?", saleIds).
		Order("payment_date, id").
		Find(&results).Error
	if err != nil {
		return handleError[[]*models.Payment](len(saleIds), err)
	}

	return generateLoaderArrayResults(results, saleIds)
}

func GetSalePayments(ctx context.Context, saleId int) ([]*models.Payment, error) {
	loaders := For(ctx)
	return loaders.salePaymentsLoader.Load(ctx, saleId)()
}
