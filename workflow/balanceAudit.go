package workflow

import (
	"context"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/models"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Cached balances within half a cent of the recomputed figure are
// considered clean.
var driftTolerance = decimal.New(5, -3)

type computedBalance struct {
	CustomerId int             `gorm:"column:customer_id"`
	Name       string          `gorm:"column:name"`
	Cached     decimal.Decimal `gorm:"column:cached"`
	Computed   decimal.Decimal `gorm:"column:computed"`
}

// RunBalanceAudit recomputes every customer's outstanding receivable
// from sale and payment rows and compares it against the cached
// account_balance column. When repair is set, drifted rows are
// rewritten to the recomputed figure. A report row is persisted per
// run either way.
func RunBalanceAudit(ctx context.Context, db *gorm.DB, logger *logrus.Logger, storeId string, repair bool, triggeredBy string) (*models.BalanceAuditReport, error) {
	started := time.Now()

	sql := `
SELECT
    c.id AS customer_id,
    c.name,
    c.account_balance AS cached,
    COALESCE(ob.outstanding, 0) AS computed
FROM
    customers c
    LEFT JOIN (
        SELECT
            s.customer_id,
            SUM(GREATEST(ROUND(s.total_amount - COALESCE(pt.paid_total, s.amount_paid), 2), 0)) AS outstanding
        FROM
            sales s
            LEFT JOIN (
                SELECT sale_id, SUM(amount) AS paid_total
                FROM payments
                WHERE store_id = @storeId
                GROUP BY sale_id
            ) pt ON pt.sale_id = s.id
        WHERE
            s.store_id = @storeId
            AND s.payment_status <> 'paid'
        GROUP BY
            s.customer_id
    ) ob ON ob.customer_id = c.id
WHERE
    c.store_id = @storeId;
`

	var rows []computedBalance
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{"storeId": storeId}).Scan(&rows).Error; err != nil {
		return nil, err
	}

	drifts := make([]models.BalanceDrift, 0)
	driftAbsTotal := decimal.Zero
	for _, row := range rows {
		delta := row.Cached.Sub(row.Computed)
		if delta.Abs().LessThanOrEqual(driftTolerance) {
			continue
		}
		drifts = append(drifts, models.BalanceDrift{
			CustomerId: row.CustomerId,
			Name:       row.Name,
			Cached:     row.Cached,
			Computed:   row.Computed,
			Delta:      delta,
		})
		driftAbsTotal = driftAbsTotal.Add(delta.Abs())
	}

	if repair && len(drifts) > 0 {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, d := range drifts {
				err := tx.Model(&models.Customer{}).
					Where("store_id = ? AND id = ?", storeId, d.CustomerId).
					Update("account_balance", d.Computed).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	details, err := utils.MarshalToJSON(drifts)
	if err != nil {
		return nil, err
	}

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	report := models.BalanceAuditReport{
		StoreId:        storeId,
		RunAt:          started.UTC(),
		CustomersTotal: len(rows),
		CustomersDrift: len(drifts),
		DriftAbsTotal:  driftAbsTotal,
		Repaired:       repair && len(drifts) > 0,
		DurationMs:     time.Since(started).Milliseconds(),
		Details:        []byte(details),
		TriggeredBy:    triggeredBy,
		CorrelationId:  correlationId,
	}
	if err := db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}

	if logger != nil && len(drifts) > 0 {
		logger.WithFields(logrus.Fields{
			"field":           "BalanceAudit",
			"store_id":        storeId,
			"customers_total": len(rows),
			"customers_drift": len(drifts),
			"drift_abs_total": driftAbsTotal.String(),
			"repaired":        report.Repaired,
		}).Warn("customer balance drift detected")
	}
	return &report, nil
}

type BalanceAuditWorker struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	Interval time.Duration
	Repair   bool
}

func NewBalanceAuditWorker(db *gorm.DB, logger *logrus.Logger) *BalanceAuditWorker {
	return &BalanceAuditWorker{
		DB:       db,
		Logger:   logger,
		Interval: time.Hour,
		Repair:   false,
	}
}

// Run audits every active store on a fixed interval until the context
// is cancelled.
func (w *BalanceAuditWorker) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Interval):
		}
		w.auditOnce(ctx)
	}
}

func (w *BalanceAuditWorker) auditOnce(ctx context.Context) {
	if w.DB == nil {
		return
	}
	var storeIds []string
	err := w.DB.WithContext(ctx).Model(&models.Store{}).
		Where("is_active = 1").
		Pluck("id", &storeIds).Error
	if err != nil {
		config.LogError(w.Logger, "workflow", "auditOnce", "list stores", nil, err)
		return
	}
	for _, storeId := range storeIds {
		if _, err := RunBalanceAudit(ctx, w.DB, w.Logger, storeId, w.Repair, "scheduler"); err != nil {
			config.LogError(w.Logger, "workflow", "auditOnce", storeId, nil, err)
		}
	}
}
