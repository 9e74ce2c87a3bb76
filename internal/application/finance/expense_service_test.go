package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type expenseFixture struct {
	expenses  *MockExpenseRepository
	recurring *MockRecurringExpenseRepository
	accounts  *MockFundingAccountRepository
	bankTxs   *MockBankTransactionRepository
	cache     *MockReportCache
	service   *ExpenseService
}

func newExpenseFixture() *expenseFixture {
	f := &expenseFixture{
		expenses:  new(MockExpenseRepository),
		recurring: new(MockRecurringExpenseRepository),
		accounts:  new(MockFundingAccountRepository),
		bankTxs:   new(MockBankTransactionRepository),
		cache:     new(MockReportCache),
	}
	uow := &fakeUnitOfWork{repos: finance.Repositories{
		Expenses:          f.expenses,
		RecurringExpenses: f.recurring,
		Accounts:          f.accounts,
		BankTransactions:  f.bankTxs,
	}}
	f.service = NewExpenseService(uow, f.expenses, f.recurring, f.cache, nil)
	return f
}

func unpaidTestExpense(t *testing.T, amount string) *finance.Expense {
	t.Helper()
	e, err := finance.NewExpense("EXP-2026-0042", "Rebar delivery",
		finance.ExpenseCategoryMaterials, decimal.RequireFromString(amount),
		"Apex Steel Supply", time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), nil, nil)
	require.NoError(t, err)
	return e
}

func TestCreateExpense(t *testing.T) {
	f := newExpenseFixture()
	f.expenses.On("GenerateExpenseNumber", mock.Anything).Return("EXP-2026-0050", nil)
	f.expenses.On("Create", mock.Anything, mock.AnythingOfType("*finance.Expense")).Return(nil)
	f.cache.On("Invalidate", mock.Anything).Return(nil)

	resp, err := f.service.CreateExpense(context.Background(), CreateExpenseRequest{
		Description: "Diesel for the grader",
		Category:    "FUEL",
		Amount:      decimal.RequireFromString("180.40"),
		IncurredAt:  time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "EXP-2026-0050", resp.ExpenseNumber)
	assert.Equal(t, "UNPAID", resp.PaymentStatus)
	assert.Nil(t, resp.SettledByInvoiceID)
	f.expenses.AssertExpectations(t)
}

func TestCreateExpense_UnknownCategory(t *testing.T) {
	f := newExpenseFixture()
	f.expenses.On("GenerateExpenseNumber", mock.Anything).Return("EXP-2026-0051", nil)

	_, err := f.service.CreateExpense(context.Background(), CreateExpenseRequest{
		Description: "Mystery purchase",
		Category:    "GADGETS",
		Amount:      decimal.NewFromInt(10),
		IncurredAt:  time.Now(),
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION", domainErr.Code)
	f.expenses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPayExpense(t *testing.T) {
	f := newExpenseFixture()
	expense := unpaidTestExpense(t, "450.00")
	paidAt := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	account, err := finance.NewFundingAccount("Operating Checking", finance.AccountKindBank,
		decimal.NewFromInt(1000), []finance.PaymentMethod{finance.PaymentMethodCheck})
	require.NoError(t, err)

	f.expenses.On("FindByID", mock.Anything, expense.ID).Return(expense, nil)
	f.expenses.On("SaveWithLock", mock.Anything, expense).Return(nil)
	f.accounts.On("ResolveByPaymentMethod", mock.Anything, finance.PaymentMethodCheck).Return(account, nil)
	f.bankTxs.On("Create", mock.Anything, mock.AnythingOfType("*finance.BankTransaction")).Return(nil)
	f.accounts.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.cache.On("Invalidate", mock.Anything).Return(nil)

	resp, err := f.service.PayExpense(context.Background(), expense.ID, PayExpenseRequest{
		PaymentMethod: "CHECK",
		PaidAt:        paidAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "PAID", resp.PaymentStatus)
	require.NotNil(t, resp.PaymentMethod)
	assert.Equal(t, "CHECK", *resp.PaymentMethod)
	assert.True(t, decimal.NewFromInt(550).Equal(account.Balance), "balance: %s", account.Balance)
	f.bankTxs.AssertExpectations(t)
}

func TestPayExpense_UntrackedMethodSkipsBankLedger(t *testing.T) {
	f := newExpenseFixture()
	expense := unpaidTestExpense(t, "75.00")

	f.expenses.On("FindByID", mock.Anything, expense.ID).Return(expense, nil)
	f.expenses.On("SaveWithLock", mock.Anything, expense).Return(nil)
	f.accounts.On("ResolveByPaymentMethod", mock.Anything, finance.PaymentMethodPersonalCard).Return(nil, nil)
	f.cache.On("Invalidate", mock.Anything).Return(nil)

	resp, err := f.service.PayExpense(context.Background(), expense.ID, PayExpenseRequest{
		PaymentMethod: "PERSONAL_CARD",
		PaidAt:        time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "PAID", resp.PaymentStatus)
	f.bankTxs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPayExpense_AlreadySettled(t *testing.T) {
	f := newExpenseFixture()
	expense := unpaidTestExpense(t, "120.00")
	require.NoError(t, expense.MarkPaid(finance.PaymentMethodCash, time.Now()))

	f.expenses.On("FindByID", mock.Anything, expense.ID).Return(expense, nil)

	_, err := f.service.PayExpense(context.Background(), expense.ID, PayExpenseRequest{
		PaymentMethod: "CASH",
		PaidAt:        time.Now(),
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ALREADY_SETTLED", domainErr.Code)
	f.expenses.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestPayExpense_UnknownMethod(t *testing.T) {
	f := newExpenseFixture()

	_, err := f.service.PayExpense(context.Background(), uuid.New(), PayExpenseRequest{
		PaymentMethod: "BARTER",
		PaidAt:        time.Now(),
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION", domainErr.Code)
}

func TestCreateRecurringExpense(t *testing.T) {
	f := newExpenseFixture()
	f.recurring.On("Create", mock.Anything, mock.AnythingOfType("*finance.RecurringExpense")).Return(nil)

	resp, err := f.service.CreateRecurringExpense(context.Background(), CreateRecurringExpenseRequest{
		Description: "Yard electricity",
		Category:    "UTILITIES",
		Amount:      decimal.RequireFromString("310.00"),
		DueDay:      15,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "UNPAID", resp.PaymentStatus)
	assert.Equal(t, 15, resp.DueDay)
	f.recurring.AssertExpectations(t)
}

func TestCreateRecurringExpense_DueDayOutOfRange(t *testing.T) {
	f := newExpenseFixture()

	_, err := f.service.CreateRecurringExpense(context.Background(), CreateRecurringExpenseRequest{
		Description: "Yard electricity",
		Category:    "UTILITIES",
		Amount:      decimal.NewFromInt(310),
		DueDay:      40,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION", domainErr.Code)
	f.recurring.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListExpenses(t *testing.T) {
	f := newExpenseFixture()
	filter := finance.ExpenseFilter{Page: 2, PageSize: 10}

	entries := []finance.Expense{*unpaidTestExpense(t, "450.00")}
	f.expenses.On("FindAll", mock.Anything, filter).Return(entries, nil)
	f.expenses.On("Count", mock.Anything, filter).Return(int64(23), nil)

	page, err := f.service.ListExpenses(context.Background(), filter)
	require.NoError(t, err)
	require.NotNil(t, page)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Rebar delivery", page.Items[0].Description)
	assert.Equal(t, int64(23), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListExpenses_NormalizesPagination(t *testing.T) {
	f := newExpenseFixture()
	normalized := finance.ExpenseFilter{Page: 1, PageSize: 20}

	f.expenses.On("FindAll", mock.Anything, normalized).Return([]finance.Expense{}, nil)
	f.expenses.On("Count", mock.Anything, normalized).Return(int64(0), nil)

	page, err := f.service.ListExpenses(context.Background(), finance.ExpenseFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Empty(t, page.Items)
	f.expenses.AssertExpectations(t)
}
