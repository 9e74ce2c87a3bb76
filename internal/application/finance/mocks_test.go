package finance

import (
	"context"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/project"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter finance.InvoiceFilter) ([]finance.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter finance.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *finance.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*finance.Expense, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Count(ctx context.Context, filter finance.ExpenseFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) FindBySettlingInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.Expense, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) SaveWithLock(ctx context.Context, expense *finance.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) GenerateExpenseNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockExpenseRepository) SumUnsettledBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockExpenseRepository) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockRecurringExpenseRepository struct {
	mock.Mock
}

func (m *MockRecurringExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.RecurringExpense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.RecurringExpense), args.Error(1)
}

func (m *MockRecurringExpenseRepository) FindBySettlingInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.RecurringExpense, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.RecurringExpense), args.Error(1)
}

func (m *MockRecurringExpenseRepository) Create(ctx context.Context, recurring *finance.RecurringExpense) error {
	args := m.Called(ctx, recurring)
	return args.Error(0)
}

func (m *MockRecurringExpenseRepository) SaveWithLock(ctx context.Context, recurring *finance.RecurringExpense) error {
	args := m.Called(ctx, recurring)
	return args.Error(0)
}

type MockFundingAccountRepository struct {
	mock.Mock
}

func (m *MockFundingAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FundingAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FundingAccount), args.Error(1)
}

func (m *MockFundingAccountRepository) ResolveByPaymentMethod(ctx context.Context, method finance.PaymentMethod) (*finance.FundingAccount, error) {
	args := m.Called(ctx, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FundingAccount), args.Error(1)
}

func (m *MockFundingAccountRepository) FindCreditLineByVendor(ctx context.Context, vendor string) (*finance.FundingAccount, error) {
	args := m.Called(ctx, vendor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FundingAccount), args.Error(1)
}

func (m *MockFundingAccountRepository) Create(ctx context.Context, account *finance.FundingAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockFundingAccountRepository) SaveWithLock(ctx context.Context, account *finance.FundingAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MockBankTransactionRepository struct {
	mock.Mock
}

func (m *MockBankTransactionRepository) Create(ctx context.Context, tx *finance.BankTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBankTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]finance.BankTransaction, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindBySource(ctx context.Context, sourceType finance.TransactionSourceType, sourceID uuid.UUID) ([]finance.BankTransaction, error) {
	args := m.Called(ctx, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.BankTransaction), args.Error(1)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*project.Project, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*project.Project), args.Error(1)
}

func (m *MockProjectRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockSubProjectRepository struct {
	mock.Mock
}

func (m *MockSubProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.SubProject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.SubProject), args.Error(1)
}

func (m *MockSubProjectRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*project.SubProject, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*project.SubProject), args.Error(1)
}

func (m *MockSubProjectRepository) Save(ctx context.Context, sp *project.SubProject) error {
	args := m.Called(ctx, sp)
	return args.Error(0)
}

func (m *MockSubProjectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockReceiptStorage struct {
	mock.Mock
}

func (m *MockReceiptStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, storageKey, data, contentType)
	return args.String(0), args.Error(1)
}

type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) GetSummary(ctx context.Context, key string) (*SpendSummary, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SpendSummary), args.Error(1)
}

func (m *MockReportCache) SetSummary(ctx context.Context, key string, summary *SpendSummary) error {
	args := m.Called(ctx, key, summary)
	return args.Error(0)
}

func (m *MockReportCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// fakeUnitOfWork runs the transactional function against the given mock
// repositories without any real transaction
type fakeUnitOfWork struct {
	repos finance.Repositories
}

func (u *fakeUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos finance.Repositories) error) error {
	return fn(ctx, u.repos)
}
