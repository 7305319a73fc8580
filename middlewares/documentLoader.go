package middlewares

import (
	"context"
	"errors"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/salepilot/salepilot_backend/models"
	"gorm.io/gorm"
)

type documentReader struct {
	db            *gorm.DB
	referenceType string
}

func (r *documentReader) getDocuments(ctx context.Context, referenceIds []int) []*dataloader.Result[[]*models.Document] {
	var results []models.Document
	err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id IN ?", r.referenceType, referenceIds).
		Find(&results).Error
	if err != nil {
		return handleError[[]*models.Document](len(referenceIds), err)
	}

	return generateLoaderArrayResults(results, referenceIds)
}

func GetDocuments(ctx context.Context, referenceType string, referenceId int) ([]*models.Document, error) {
	loaders := For(ctx)
	loader, ok := loaders.documentLoaders[referenceType]
	if !ok {
		return nil, errors.New("unknown document reference type")
	}
	return loader.Load(ctx, referenceId)()
}
