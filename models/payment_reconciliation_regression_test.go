package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/models"
	"github.com/salepilot/salepilot_backend/utils"
	"github.com/salepilot/salepilot_backend/workflow"
	"github.com/shopspring/decimal"
)

// Full payment lifecycle against real MySQL and Redis:
// credit sale -> partial payment -> settling payment, with the cached
// customer balance checked at each step and drift repair at the end.
func TestRecordPayment_SettlesInvoiceAndReconcilesBalance(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "salepilot_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()

	store := models.Store{
		ID:       "store-ar-regression",
		Name:     "AR Regression Store",
		IsActive: utils.NewTrue(),
	}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	ctx = utils.SetStoreIdInContext(ctx, store.ID)

	cust, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Smile Traders"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	saleDate := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	dueDate := saleDate.AddDate(0, 0, 14)
	sale, err := models.CreateSale(ctx, &models.NewSale{
		CustomerId: cust.ID,
		Total:      utils.Amount{Decimal: decimal.NewFromInt(150)},
		SaleDate:   saleDate,
		DueDate:    &dueDate,
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.PaymentStatus != models.PaymentStatusUnpaid {
		t.Fatalf("new credit sale status = %q, want unpaid", sale.PaymentStatus)
	}

	assertCustomerBalance(t, ctx, cust.ID, "150")

	// Partial payment leaves the invoice open.
	if _, err := models.RecordPayment(ctx, sale.TransactionId, &models.NewPayment{
		Amount: utils.Amount{Decimal: decimal.NewFromInt(60)},
	}); err != nil {
		t.Fatalf("RecordPayment(60): %v", err)
	}

	after, err := models.GetSaleByTransactionId(ctx, sale.TransactionId)
	if err != nil {
		t.Fatalf("GetSaleByTransactionId: %v", err)
	}
	if after.PaymentStatus != models.PaymentStatusPartial {
		t.Fatalf("status after partial payment = %q, want partial", after.PaymentStatus)
	}
	if got := models.BalanceDue(after); !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("balance after partial payment = %s, want 90", got)
	}
	assertCustomerBalance(t, ctx, cust.ID, "90")

	// Second payment settles it.
	if _, err := models.RecordPayment(ctx, sale.TransactionId, &models.NewPayment{
		Amount: utils.Amount{Decimal: decimal.NewFromInt(90)},
	}); err != nil {
		t.Fatalf("RecordPayment(90): %v", err)
	}

	settled, err := models.GetSaleByTransactionId(ctx, sale.TransactionId)
	if err != nil {
		t.Fatalf("GetSaleByTransactionId: %v", err)
	}
	if settled.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("status after settlement = %q, want paid", settled.PaymentStatus)
	}
	if !models.IsPaid(settled) {
		t.Fatalf("IsPaid = false after settlement")
	}
	assertCustomerBalance(t, ctx, cust.ID, "0")

	// Both payments must have left outbox rows behind the same commit.
	var outboxCount int64
	err = db.Model(&models.OutboxMessageRecord{}).
		Where("store_id = ?", store.ID).
		Count(&outboxCount).Error
	if err != nil {
		t.Fatalf("count outbox rows: %v", err)
	}
	if outboxCount != 2 {
		t.Fatalf("outbox rows = %d, want 2", outboxCount)
	}

	// Corrupt the cached balance and let the audit repair it.
	err = db.Model(&models.Customer{}).
		Where("store_id = ? AND id = ?", store.ID, cust.ID).
		Update("account_balance", decimal.NewFromInt(25)).Error
	if err != nil {
		t.Fatalf("inject drift: %v", err)
	}

	report, err := workflow.RunBalanceAudit(ctx, db, config.GetLogger(), store.ID, true, "test")
	if err != nil {
		t.Fatalf("RunBalanceAudit: %v", err)
	}
	if report.CustomersDrift != 1 {
		t.Fatalf("customers_drift = %d, want 1", report.CustomersDrift)
	}
	if !report.Repaired {
		t.Fatalf("audit did not repair")
	}
	assertCustomerBalance(t, ctx, cust.ID, "0")

	// A clean follow-up run reports no drift.
	clean, err := workflow.RunBalanceAudit(ctx, db, config.GetLogger(), store.ID, false, "test")
	if err != nil {
		t.Fatalf("RunBalanceAudit (clean): %v", err)
	}
	if clean.CustomersDrift != 0 {
		t.Fatalf("customers_drift after repair = %d, want 0", clean.CustomersDrift)
	}
}

// Sales imported with a paid total but no payment rows must not lose
// that total when the first real payment posts.
func TestRecordPayment_LegacySaleKeepsImportedPaidTotal(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "salepilot_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()

	store := models.Store{
		ID:       "store-legacy-regression",
		Name:     "Legacy Import Store",
		IsActive: utils.NewTrue(),
	}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	ctx = utils.SetStoreIdInContext(ctx, store.ID)

	cust, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Legacy Books Ltd"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// Imported sale: 100 total, 40 already paid, no payment rows.
	saleDate := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	sale, err := models.CreateSale(ctx, &models.NewSale{
		CustomerId: cust.ID,
		Total:      utils.Amount{Decimal: decimal.NewFromInt(100)},
		AmountPaid: utils.Amount{Decimal: decimal.NewFromInt(40)},
		SaleDate:   saleDate,
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.PaymentStatus != models.PaymentStatusPartial {
		t.Fatalf("imported sale status = %q, want partial", sale.PaymentStatus)
	}
	assertCustomerBalance(t, ctx, cust.ID, "60")

	// First real payment: balance must shrink from 60 to 20, never grow.
	if _, err := models.RecordPayment(ctx, sale.TransactionId, &models.NewPayment{
		Amount: utils.Amount{Decimal: decimal.NewFromInt(40)},
	}); err != nil {
		t.Fatalf("RecordPayment(40): %v", err)
	}

	after, err := models.GetSaleByTransactionId(ctx, sale.TransactionId)
	if err != nil {
		t.Fatalf("GetSaleByTransactionId: %v", err)
	}
	if got := models.CalculatedAmountPaid(after); !got.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("amount paid after first payment = %s, want 80", got)
	}
	if got := models.BalanceDue(after); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("balance after first payment = %s, want 20", got)
	}
	if after.PaymentStatus != models.PaymentStatusPartial {
		t.Fatalf("status = %q, want partial", after.PaymentStatus)
	}
	// The imported 40 now exists as a payment row beside the new one.
	if len(after.Payments) != 2 {
		t.Fatalf("payment rows = %d, want 2", len(after.Payments))
	}
	assertCustomerBalance(t, ctx, cust.ID, "20")

	// The audit must agree with what the write path just produced.
	report, err := workflow.RunBalanceAudit(ctx, db, config.GetLogger(), store.ID, false, "test")
	if err != nil {
		t.Fatalf("RunBalanceAudit: %v", err)
	}
	if report.CustomersDrift != 0 {
		t.Fatalf("customers_drift = %d, want 0", report.CustomersDrift)
	}

	// Settle the remainder.
	if _, err := models.RecordPayment(ctx, sale.TransactionId, &models.NewPayment{
		Amount: utils.Amount{Decimal: decimal.NewFromInt(20)},
	}); err != nil {
		t.Fatalf("RecordPayment(20): %v", err)
	}
	settled, err := models.GetSaleByTransactionId(ctx, sale.TransactionId)
	if err != nil {
		t.Fatalf("GetSaleByTransactionId: %v", err)
	}
	if settled.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("status after settlement = %q, want paid", settled.PaymentStatus)
	}
	assertCustomerBalance(t, ctx, cust.ID, "0")
}

func assertCustomerBalance(t *testing.T, ctx context.Context, customerId int, want string) {
	t.Helper()
	cust, err := models.GetCustomer(ctx, customerId)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	expected, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expected balance %q: %v", want, err)
	}
	if !cust.AccountBalance.Equal(expected) {
		t.Fatalf("account_balance = %s, want %s", cust.AccountBalance, want)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("salepilot-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("salepilot-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=salepilot_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
