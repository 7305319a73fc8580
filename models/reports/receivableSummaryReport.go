package reports

import (
	"context"
	"errors"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
)

type ReceivableSummaryResponse struct {
	SaleDate          time.Time       `json:"saleDate"`
	ReceivableStatus  string          `json:"receivableStatus"`
	TransactionId     string          `json:"transactionId"`
	CustomerID        *int            `json:"customerId,omitempty"`
	CustomerName      *string         `json:"customerName,omitempty"`
	ReceivableAmount  decimal.Decimal `json:"receivableAmount"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	ReceivableBalance decimal.Decimal `json:"receivableBalance"`
}

// GetReceivableSummaryReport lists every credit-relevant sale in the
// window with its balance, computed from payment rows with the stored
// amount_paid as fallback for sales that have none.
func GetReceivableSummaryReport(ctx context.Context, startDate, endDate time.Time, customerID *int) ([]*ReceivableSummaryResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "receivable-summary", started)

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	cacheKey := "report:receivable-summary:" + storeId
	useCache := reportCacheEnabled() && customerID == nil
	var results []*ReceivableSummaryResponse
	if useCache {
		if hit, err := cacheGet(cacheKey, &results); err == nil && hit {
			return results, nil
		}
	}

	sqlT := `
WITH PaymentTotals AS (
    SELECT
        sale_id,
        COUNT(*) AS payment_count,
        SUM(amount) AS paid_total
    FROM
        payments
    WHERE
        store_id = @storeId
    GROUP BY
        sale_id
),
SaleBalances AS (
    SELECT
        s.sale_date,
        s.transaction_id,
        s.customer_id,
        s.payment_status,
        s.due_date,
        s.total_amount AS receivable_amount,
        COALESCE(pt.paid_total, s.amount_paid) AS amount_paid,
        ROUND(s.total_amount - COALESCE(pt.paid_total, s.amount_paid), 2) AS receivable_balance
    FROM
        sales s
        LEFT JOIN PaymentTotals pt ON pt.sale_id = s.id
    WHERE
        s.store_id = @storeId
        AND s.sale_date BETWEEN @fromDate AND @toDate
        {{- if .customerId }} AND s.customer_id = @customerId {{- end }}
)
SELECT
    sb.sale_date,
    sb.transaction_id,
    sb.customer_id,
    customers.name AS customer_name,
    sb.receivable_amount,
    sb.amount_paid,
    GREATEST(sb.receivable_balance, 0) AS receivable_balance,
    (CASE
        WHEN sb.payment_status = 'paid' OR sb.receivable_balance <= 0 THEN 'Paid'
        WHEN sb.due_date IS NOT NULL AND sb.due_date < UTC_TIMESTAMP() THEN 'Overdue'
        ELSE 'Pending'
    END) AS receivable_status
FROM
    SaleBalances sb
    LEFT JOIN customers ON customers.id = sb.customer_id AND customers.store_id = @storeId
ORDER BY
    sb.sale_date, sb.transaction_id;
`

	db := config.GetDB()
	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"customerId": utils.DereferencePtr(customerID, 0),
	})
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"storeId":    storeId,
		"fromDate":   startDate,
		"toDate":     endDate,
		"customerId": customerID,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	if useCache {
		_ = cacheSet(cacheKey, results, reportCacheTTL())
	}
	return results, nil
}
