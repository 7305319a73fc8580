package models

import (
	"context"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"gorm.io/gorm"
)

// Outbox publish statuses for OutboxMessageRecord.PublishStatus.
// Keep these as strings (DB values) for backwards compatibility.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

const (
	PaymentEventActionCreate = "C"
	PaymentEventActionVoid   = "D"
)

// OutboxMessageRecord is the transactional outbox row for payment
// events. Rows are written inside the payment transaction and pushed
// to Pub/Sub after commit by the dispatcher.
type OutboxMessageRecord struct {
	ID               int        `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	StoreId          string     `gorm:"size:64;not null;index" json:"store_id"`
	TransactionId    string     `gorm:"size:64;not null;index" json:"transaction_id"`
	PaymentId        int        `gorm:"index" json:"payment_id"`
	Action           string     `gorm:"type:enum('C','D')" json:"action"`
	Payload          []byte     `gorm:"type:blob" json:"payload"`
	OccurredAt       time.Time  `gorm:"index;not null" json:"occurred_at"`
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToPaymentEvent(record OutboxMessageRecord) config.PaymentEvent {
	return config.PaymentEvent{
		ID:            record.ID,
		StoreId:       record.StoreId,
		TransactionId: record.TransactionId,
		PaymentId:     record.PaymentId,
		Action:        record.Action,
		Payload:       record.Payload,
		OccurredAt:    record.OccurredAt,
		CorrelationId: record.CorrelationId,
	}
}

// EnqueuePaymentEvent writes the outbox row inside the caller's open
// transaction so the event exists iff the payment commits.
func EnqueuePaymentEvent(tx *gorm.DB, ctx context.Context, storeId string, sale *Sale, payment *Payment, action string) error {
	payload, err := utils.MarshalToJSON(payment)
	if err != nil {
		return err
	}
	body := []byte(payload)

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	record := OutboxMessageRecord{
		StoreId:       storeId,
		TransactionId: sale.TransactionId,
		PaymentId:     payment.ID,
		Action:        action,
		Payload:       body,
		OccurredAt:    payment.PaymentDate,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.WithContext(ctx).Create(&record).Error
}
