package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredExpense(t *testing.T, repo *GormExpenseRepository, number, amount string, incurredAt time.Time) *finance.Expense {
	t.Helper()

	e, err := finance.NewExpense(number, "Test expense "+number, finance.ExpenseCategoryMaterials,
		decimal.RequireFromString(amount), "Acme Concrete", incurredAt, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestGormExpenseRepository_CreateAndFindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	e := newStoredExpense(t, repo, "EXP-T-1", "125.50", time.Now())

	found, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "EXP-T-1", found.ExpenseNumber)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("125.50")))
	assert.Equal(t, finance.ExpensePaymentStatusUnpaid, found.PaymentStatus)
}

func TestGormExpenseRepository_FindByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	a := newStoredExpense(t, repo, "EXP-IDS-1", "100.00", time.Now())
	b := newStoredExpense(t, repo, "EXP-IDS-2", "200.00", time.Now())

	t.Run("returns expenses in request order", func(t *testing.T) {
		expenses, err := repo.FindByIDs(ctx, []uuid.UUID{b.ID, a.ID})
		require.NoError(t, err)
		require.Len(t, expenses, 2)
		assert.Equal(t, b.ID, expenses[0].ID)
		assert.Equal(t, a.ID, expenses[1].ID)
	})

	t.Run("missing reference is NOT_FOUND with detail", func(t *testing.T) {
		missing := uuid.New()
		_, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, missing})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
		assert.Contains(t, domainErr.Details["missing_expense_ids"], missing.String())
	})

	t.Run("empty input returns nothing", func(t *testing.T) {
		expenses, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})
}

func TestGormExpenseRepository_FindBySettlingInvoice(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	invoiceID := uuid.New()
	settled, err := finance.NewExpenseSettledByInvoice("EXP-INV-1", "Spawned at ingestion",
		finance.ExpenseCategoryMaterials, decimal.RequireFromString("300.00"),
		"Acme Concrete", time.Now(), nil, nil, invoiceID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, settled))

	newStoredExpense(t, repo, "EXP-INV-2", "50.00", time.Now())

	expenses, err := repo.FindBySettlingInvoice(ctx, invoiceID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "EXP-INV-1", expenses[0].ExpenseNumber)
	assert.Equal(t, finance.ExpensePaymentStatusPaidViaInvoice, expenses[0].PaymentStatus)
}

func TestGormExpenseRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	e := newStoredExpense(t, repo, "EXP-LOCK-1", "80.00", time.Now())

	stale, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)

	require.NoError(t, e.MarkPaid(finance.PaymentMethodCash, time.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, e))

	require.NoError(t, stale.MarkPaid(finance.PaymentMethodCash, time.Now()))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

	found, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.ExpensePaymentStatusPaid, found.PaymentStatus)
}

func TestGormExpenseRepository_Sums(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	window := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	// General spend inside the window
	newStoredExpense(t, repo, "EXP-SUM-1", "3250.50", window)
	// Invoice-settled entry inside the window, excluded from general spend
	settled, err := finance.NewExpenseSettledByInvoice("EXP-SUM-2", "Absorbed into invoice",
		finance.ExpenseCategoryMaterials, decimal.RequireFromString("1200.00"),
		"Acme Concrete", window, nil, nil, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, settled))
	// Outside the window entirely
	newStoredExpense(t, repo, "EXP-SUM-3", "999.99", window.AddDate(0, 3, 0))

	from := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 8, 31, 23, 59, 59, 0, time.UTC)

	general, err := repo.SumUnsettledBetween(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, general.Equal(decimal.RequireFromString("3250.50")), "got %s", general)

	all, err := repo.SumBetween(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, all.Equal(decimal.RequireFromString("4450.50")), "got %s", all)
}

func TestGormExpenseRepository_FindAllFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	newStoredExpense(t, repo, "EXP-FIL-1", "100.00", time.Now())
	settled, err := finance.NewExpenseSettledByInvoice("EXP-FIL-2", "Absorbed",
		finance.ExpenseCategoryMaterials, decimal.RequireFromString("200.00"),
		"Acme Concrete", time.Now(), nil, nil, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, settled))

	t.Run("only unsettled excludes invoice-settled entries", func(t *testing.T) {
		expenses, err := repo.FindAll(ctx, finance.ExpenseFilter{OnlyUnsettled: true, Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, "EXP-FIL-1", expenses[0].ExpenseNumber)
	})

	t.Run("payment status filter", func(t *testing.T) {
		status := finance.ExpensePaymentStatusPaidViaInvoice
		expenses, err := repo.FindAll(ctx, finance.ExpenseFilter{PaymentStatus: &status, Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, "EXP-FIL-2", expenses[0].ExpenseNumber)
	})

	t.Run("count matches filter", func(t *testing.T) {
		count, err := repo.Count(ctx, finance.ExpenseFilter{OnlyUnsettled: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormExpenseRepository_GenerateExpenseNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExpenseRepository(db)
	ctx := context.Background()

	yearMonth := time.Now().Format("200601")

	first, err := repo.GenerateExpenseNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EXP-"+yearMonth+"-00001", first)

	newStoredExpense(t, repo, first, "10.00", time.Now())

	second, err := repo.GenerateExpenseNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EXP-"+yearMonth+"-00002", second)
}
