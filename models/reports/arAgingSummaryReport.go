package reports

import (
	"context"
	"errors"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/shopspring/decimal"
)

type ARAgingSummaryResponse struct {
	CustomerID   int             `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Current      decimal.Decimal `json:"currentDate"`
	Int1to15     decimal.Decimal `json:"int1to15"`
	Int16to30    decimal.Decimal `json:"int16to30"`
	Int31to45    decimal.Decimal `json:"int31to45"`
	Int46plus    decimal.Decimal `json:"int46plus"`
	InvoiceCount int             `json:"invoiceCount"`
}

// GetARAgingSummaryReport buckets each customer's open balances by how
// far past due they are. Sales with no due date count as current.
func GetARAgingSummaryReport(ctx context.Context, currentDate time.Time, customerID *int) ([]*ARAgingSummaryResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "ar-aging", started)

	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == "" {
		return nil, errors.New("store id is required")
	}

	cacheKey := "report:ar-aging:" + storeId
	useCache := reportCacheEnabled() && customerID == nil
	var results []*ARAgingSummaryResponse
	if useCache {
		if hit, err := cacheGet(cacheKey, &results); err == nil && hit {
			return results, nil
		}
	}

	sqlTemplate := `
WITH PaymentTotals AS (
    SELECT
        sale_id,
        SUM(amount) AS paid_total
    FROM
        payments
    WHERE
        store_id = @storeId
    GROUP BY
        sale_id
),
InvoiceAging AS (
    SELECT
        s.customer_id,
        ROUND(s.total_amount - COALESCE(pt.paid_total, s.amount_paid), 2) AS remaining_balance,
        CASE
            WHEN s.due_date IS NOT NULL THEN DATEDIFF(@currentDate, s.due_date)
            ELSE 0
        END AS days_overdue
    FROM
        sales s
        LEFT JOIN PaymentTotals pt ON pt.sale_id = s.id
    WHERE
        s.store_id = @storeId
        AND s.sale_date < @currentDate
        AND s.payment_status <> 'paid'
        {{- if .customerId }} AND s.customer_id = @customerId {{- end }}
)
SELECT
    customer_id,
    customers.name AS customer_name,
    COUNT(*) AS invoice_count,
    SUM(remaining_balance) AS total,
    SUM(
        CASE
            WHEN days_overdue <= 0 THEN remaining_balance
            ELSE 0
        END
    ) AS current,
    SUM(
        CASE
            WHEN days_overdue BETWEEN 1
            AND 15 THEN remaining_balance
            ELSE 0
        END
    ) AS int1to15,
    SUM(
        CASE
            WHEN days_overdue BETWEEN 16
            AND 30 THEN remaining_balance
            ELSE 0
        END
    ) AS int16to30,
    SUM(
        CASE
            WHEN days_overdue BETWEEN 31
            AND 45 THEN remaining_balance
            ELSE 0
        END
    ) AS int31to45,
    SUM(
        CASE
            WHEN days_overdue > 45 THEN remaining_balance
            ELSE 0
        END
    ) AS int46plus
FROM
    InvoiceAging
    LEFT JOIN customers ON customers.id = InvoiceAging.customer_id AND customers.store_id = @storeId
WHERE
    InvoiceAging.remaining_balance > 0
GROUP BY
    InvoiceAging.customer_id
ORDER BY
    InvoiceAging.customer_id;
`

	db := config.GetDB()
	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"customerId": utils.DereferencePtr(customerID, 0),
	})
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"currentDate": currentDate,
		"storeId":     storeId,
		"customerId":  customerID,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	if useCache {
		_ = cacheSet(cacheKey, results, reportCacheTTL())
	}
	return results, nil
}
