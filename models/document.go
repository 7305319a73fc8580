package models

import (
	"context"
	"errors"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"gorm.io/gorm"
)

// Document is a stored receipt or attachment linked polymorphically to
// a sale, payment or customer.
type Document struct {
	ID            int    `gorm:"primary_key" json:"id"`
	DocumentUrl   string `json:"document_url"`
	ThumbnailUrl  string `json:"thumbnail_url"`
	ReferenceType string `gorm:"index:idx_document_ref,priority:1" json:"reference_type"`
	ReferenceID   int    `gorm:"index:idx_document_ref,priority:2" json:"reference_id"`
}

type NewDocument struct {
	DocumentUrl  string `json:"document_url" binding:"required"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

func mapNewDocuments(input []*NewDocument, referenceType string, referenceId int) ([]*Document, error) {
	var documents []*Document
	for _, i := range input {
		d, err := i.MapInput(referenceType, referenceId)
		if err != nil {
			return nil, err
		}
		documents = append(documents, d)
	}
	return documents, nil
}

// for create
func (input NewDocument) MapInput(referenceType string, referenceId int) (*Document, error) {
	if input.DocumentUrl == "" {
		return nil, errors.New("document url is required")
	}
	return &Document{
		DocumentUrl:   input.DocumentUrl,
		ThumbnailUrl:  input.ThumbnailUrl,
		ReferenceType: referenceType,
		ReferenceID:   referenceId,
	}, nil
}

func (d *Document) Store(tx *gorm.DB, ctx context.Context) error {
	return tx.WithContext(ctx).Create(&d).Error
}

func (d *Document) Delete(tx *gorm.DB, ctx context.Context) error {
	if err := tx.WithContext(ctx).Delete(&d).Error; err != nil {
		return err
	}
	if key := utils.ExtractObjectKeyFromURL(d.DocumentUrl); key != "" {
		if err := utils.DeleteObjectFromGCS(ctx, key); err != nil {
			return err
		}
	}
	if key := utils.ExtractObjectKeyFromURL(d.ThumbnailUrl); key != "" {
		if err := utils.DeleteObjectFromGCS(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func GetDocument(ctx context.Context, id int) (*Document, error) {
	db := config.GetDB()

	var result Document
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if skip, ok := utils.GetSkipStoreScopeFromContext(ctx); ok && skip {
		return &result, nil
	}
	if isAdmin, ok := utils.GetIsAdminFromContext(ctx); ok && isAdmin {
		return &result, nil
	}

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}
	if result.ReferenceType == "" || result.ReferenceID <= 0 {
		return nil, errors.New("unauthorized")
	}

	// Validate the referenced record belongs to this store.
	tableByRefType := map[string]string{
		"customers": "customers",
		"sales":     "sales",
		"payments":  "payments",
	}
	table, known := tableByRefType[result.ReferenceType]
	if !known {
		return nil, errors.New("unauthorized")
	}

	var count int64
	err := db.WithContext(ctx).Table(table).
		Where("id = ? AND store_id = ?", result.ReferenceID, storeId).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("unauthorized")
	}
	return &result, nil
}

// DeleteDocument removes the row and the backing objects. Store
// ownership is enforced through GetDocument.
func DeleteDocument(ctx context.Context, id int) error {
	db := config.GetDB()

	document, err := GetDocument(ctx, id)
	if err != nil {
		return err
	}
	return document.Delete(db, ctx)
}

// AttachDocument links an already-uploaded object to a record after
// the upload handler confirms it exists in the bucket.
func AttachDocument(ctx context.Context, referenceType string, referenceId int, input *NewDocument) (*Document, error) {
	db := config.GetDB()

	document, err := input.MapInput(referenceType, referenceId)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Create(document).Error; err != nil {
		return nil, err
	}
	return document, nil
}
