package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceAuditReport records one run of the customer balance audit.
// A run recomputes every customer's outstanding balance from their
// invoice and payment rows and compares it to the cached
// account_balance column.
type BalanceAuditReport struct {
	ID              int             `gorm:"primary_key" json:"id"`
	StoreId         string          `gorm:"size:64;not null;index" json:"store_id"`
	RunAt           time.Time       `gorm:"index;not null" json:"run_at"`
	CustomersTotal  int             `gorm:"not null;default:0" json:"customers_total"`
	CustomersDrift  int             `gorm:"not null;default:0" json:"customers_drift"`
	DriftAbsTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"drift_abs_total"`
	Repaired        bool            `gorm:"not null;default:false" json:"repaired"`
	DurationMs      int64           `gorm:"not null;default:0" json:"duration_ms"`
	Details         []byte          `gorm:"type:blob" json:"details"`
	TriggeredBy     string          `gorm:"size:100" json:"triggered_by"`
	CorrelationId   string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// BalanceDrift is one customer whose cached balance disagrees with
// the recomputed figure. Serialized into BalanceAuditReport.Details.
type BalanceDrift struct {
	CustomerId int             `json:"customer_id"`
	Name       string          `json:"name"`
	Cached     decimal.Decimal `json:"cached"`
	Computed   decimal.Decimal `json:"computed"`
	Delta      decimal.Decimal `json:"delta"`
}
