package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/middlewares"
	"github.com/salepilot/salepilot_backend/models"
	"github.com/salepilot/salepilot_backend/models/reports"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/salepilot/salepilot_backend/workflow"
)

// bindingError answers a failed JSON bind with per-field tags when the
// failure came from struct validation.
func bindingError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.GetTokenFromContext(c.Request.Context())
		if !ok || token == "" {
			c.Status(http.StatusNoContent)
			return
		}
		if err := models.Logout(token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listReceivablesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "listReceivables")
		defer span.End()

		filter := models.ParseReceivableFilter(c.Query("status"))
		search := strings.TrimSpace(c.Query("search"))
		customerId, _ := strconv.Atoi(c.Query("customer_id"))

		result, err := models.ListReceivables(ctx, filter, search, customerId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resolveCustomerNames(ctx, result.Invoices)
		c.JSON(http.StatusOK, result)
	}
}

// resolveCustomerNames fills in customer names through the request-scoped
// loader so one batched query covers the whole page.
func resolveCustomerNames(ctx context.Context, invoices []*models.InvoiceView) {
	ids := make([]int, 0, len(invoices))
	for _, inv := range invoices {
		if inv.CustomerId > 0 {
			ids = append(ids, inv.CustomerId)
		}
	}
	ids = utils.UniqueSlice(ids)
	if len(ids) == 0 {
		return
	}

	customers, _ := middlewares.GetCustomers(ctx, ids)
	nameById := make(map[int]string, len(customers))
	for _, customer := range customers {
		if customer != nil && customer.ID > 0 {
			nameById[customer.ID] = customer.Name
		}
	}
	for _, inv := range invoices {
		if name, ok := nameById[inv.CustomerId]; ok && name != "" {
			inv.CustomerName = name
		}
	}
}

func createSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSale
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		sale, err := models.CreateSale(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, sale)
	}
}

type salePaymentView struct {
	*models.Payment
	Method string `json:"method"`
}

type saleDetailResponse struct {
	Invoice   *models.InvoiceView `json:"invoice"`
	Payments  []salePaymentView   `json:"payments"`
	Documents []*models.Document  `json:"documents"`
}

func getSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sale, err := models.GetSaleByTransactionId(ctx, c.Param("transactionId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "sale not found"})
			return
		}

		payments, err := middlewares.GetSalePayments(ctx, sale.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]salePaymentView, 0, len(payments))
		for _, p := range payments {
			method, _ := middlewares.GetPaymentMethod(ctx, p.PaymentMethodId)
			name := "Cash"
			if method != nil && method.Name != "" {
				name = method.Name
			}
			views = append(views, salePaymentView{Payment: p, Method: name})
		}

		documents, _ := middlewares.GetDocuments(ctx, "sales", sale.ID)

		c.JSON(http.StatusOK, saleDetailResponse{
			Invoice:   models.NewInvoiceView(sale, time.Now()),
			Payments:  views,
			Documents: documents,
		})
	}
}

func listSalePaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := models.ListPaymentsForSale(c.Request.Context(), c.Param("transactionId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func recordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "recordPayment")
		defer span.End()

		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		payment, err := models.RecordPayment(ctx, c.Param("transactionId"), &input)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if err == utils.ErrorRecordNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := models.ListCustomers(c.Request.Context(), strings.TrimSpace(c.Query("name")))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		customer, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

type toggleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}

		customer, err := models.ToggleActiveCustomer(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func updatePaymentMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method id"})
			return
		}
		var input models.NewPaymentMethod
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		method, err := models.UpdatePaymentMethod(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, method)
	}
}

func togglePaymentMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method id"})
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}

		method, err := models.TogglePaymentMethod(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, method)
	}
}

func getDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
			return
		}
		document, err := models.GetDocument(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusOK, document)
	}
}

func deleteDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
			return
		}
		if err := models.DeleteDocument(c.Request.Context(), id); err != nil {
			if err == utils.ErrorRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

const salesExportPageSize = 500

func salesExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()

		invoices := make([]*models.InvoiceView, 0)
		var after *string
		for {
			page, err := models.PaginateSales(ctx, salesExportPageSize, after)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			for _, edge := range page.Edges {
				invoices = append(invoices, models.NewInvoiceView(edge.Node, now))
			}
			if page.PageInfo == nil || page.PageInfo.HasNextPage == nil || !*page.PageInfo.HasNextPage {
				break
			}
			cursor := page.PageInfo.EndCursor
			after = &cursor
		}

		filename := fmt.Sprintf("invoices-%s.xlsx", now.Format("20060102"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := reports.WriteSalesXLSX(invoices, c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write spreadsheet"})
		}
	}
}

// parseDateRange reads optional ?from= and ?to= (YYYY-MM-DD). The end
// of range is inclusive through end of day.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from date: %s", v)
		}
		from = &t
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to date: %s", v)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

func customerStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		from, to, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		statement, err := models.GetCustomerStatement(c.Request.Context(), id, from, to)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, statement)
	}
}

func customerStatementExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
			return
		}
		from, to, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		statement, err := models.GetCustomerStatement(c.Request.Context(), id, from, to)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("statement-%d-%s.xlsx", id, time.Now().Format("20060102"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := reports.WriteStatementXLSX(statement, c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write spreadsheet"})
		}
	}
}

func listPaymentMethodsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		methods, err := models.ListPaymentMethods(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, methods)
	}
}

func createPaymentMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPaymentMethod
		if err := c.ShouldBindJSON(&input); err != nil {
			bindingError(c, err)
			return
		}

		method, err := models.CreatePaymentMethod(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, method)
	}
}

func receivableSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start := time.Now().AddDate(0, -1, 0)
		end := time.Now()
		if from != nil {
			start = *from
		}
		if to != nil {
			end = *to
		}

		var customerID *int
		if v := strings.TrimSpace(c.Query("customer_id")); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
				return
			}
			customerID = &id
		}

		rows, err := reports.GetReceivableSummaryReport(c.Request.Context(), start, end, customerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func arAgingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf := time.Now()
		if v := strings.TrimSpace(c.Query("as_of")); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of date"})
				return
			}
			asOf = t.Add(24*time.Hour - time.Nanosecond)
		}

		var customerID *int
		if v := strings.TrimSpace(c.Query("customer_id")); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
				return
			}
			customerID = &id
		}

		rows, err := reports.GetARAgingSummaryReport(c.Request.Context(), asOf, customerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

type reconcileRequest struct {
	StoreId string `json:"store_id" binding:"required"`
	Repair  bool   `json:"repair"`
}

func reconcileBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "store_id is required"})
			return
		}

		ctx := utils.SetSkipStoreScopeInContext(c.Request.Context(), true)
		triggeredBy := "api"
		if name, ok := utils.GetUserNameFromContext(ctx); ok && name != "" {
			triggeredBy = "api:" + name
		}
		report, err := workflow.RunBalanceAudit(ctx, config.GetDB(), config.GetLogger(), req.StoreId, req.Repair, triggeredBy)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

type outboxReplayRequest struct {
	StoreId string `json:"store_id" binding:"required"`
	Ids     []int  `json:"ids"`
}

func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req outboxReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "store_id is required"})
			return
		}

		affected, err := workflow.ReplayDeadMessages(c.Request.Context(), config.GetDB(), req.StoreId, req.Ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"replayed": affected})
	}
}

func requireAdmin(c *gin.Context) bool {
	isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context())
	if !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return false
	}
	return true
}
