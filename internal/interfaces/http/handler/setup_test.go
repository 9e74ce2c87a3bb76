package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/buildledger/backend/internal/infrastructure/cache"
	"github.com/buildledger/backend/internal/infrastructure/persistence"
	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/buildledger/backend/internal/infrastructure/storage"
	"github.com/buildledger/backend/internal/interfaces/http/dto"
	"github.com/buildledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testStack wires real services over an in-memory SQLite database so the
// handlers are exercised end to end through the router.
type testStack struct {
	db       *gorm.DB
	engine   *gin.Engine
	receipts *storage.StubReceiptStorage
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.InvoiceProjectLinkModel{},
		&models.InvoiceExpenseLinkModel{},
		&models.ExpenseModel{},
		&models.RecurringExpenseModel{},
		&models.FundingAccountModel{},
		&models.BankTransactionModel{},
		&models.ProjectModel{},
		&models.SubProjectModel{},
	)
	require.NoError(t, err)

	uow := persistence.NewGormUnitOfWork(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	expenseRepo := persistence.NewGormExpenseRepository(db)
	recurringRepo := persistence.NewGormRecurringExpenseRepository(db)
	projectRepo := persistence.NewGormProjectRepository(db)
	subProjectRepo := persistence.NewGormSubProjectRepository(db)

	reportCache := cache.NewInMemoryReportCache(time.Minute)
	receipts := storage.NewStubReceiptStorage()

	invoiceService := financeapp.NewInvoiceService(uow, invoiceRepo, expenseRepo, reportCache, nil)
	expenseService := financeapp.NewExpenseService(uow, expenseRepo, recurringRepo, reportCache, nil)
	settlementService := financeapp.NewSettlementService(uow, projectRepo, subProjectRepo, receipts, reportCache, nil)
	reportService := financeapp.NewSpendReportService(expenseRepo, invoiceRepo, reportCache, nil)

	r := router.NewRouter(gin.New())
	r.Mount("/finance",
		NewInvoiceHandler(invoiceService, settlementService),
		NewExpenseHandler(expenseService),
		NewReportHandler(reportService),
	)
	r.Setup()

	return &testStack{db: db, engine: r.Engine(), receipts: receipts}
}

// envelope mirrors the response wrapper for decoding in tests
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// do performs a JSON request against the test router and decodes the envelope
func (s *testStack) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// decimalFromString parses an amount literal, failing the test on bad input
func decimalFromString(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return d
}

// decodeData unmarshals the envelope data into out
func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, out))
}
