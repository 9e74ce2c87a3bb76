package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter holds list/query options for invoices
type InvoiceFilter struct {
	Search   string
	Vendor   string
	Status   *InvoiceStatus
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// ExpenseFilter holds list/query options for expenses
type ExpenseFilter struct {
	Search        string
	Category      *ExpenseCategory
	PaymentStatus *ExpensePaymentStatus
	ProjectID     *uuid.UUID
	OnlyUnsettled bool // Excludes invoice-settled entries (double-count guard)
	FromDate      *time.Time
	ToDate        *time.Time
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
}

// InvoiceRepository persists the Invoice aggregate with its items and links
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)
	Create(ctx context.Context, invoice *Invoice) error
	// SaveWithLock persists the aggregate using its optimistic version
	// counter; concurrent settlements of the same invoice conflict here.
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	GenerateInvoiceNumber(ctx context.Context) (string, error)
	// SumPaidBetween totals invoice paid amounts whose most recent payment
	// date falls in the reporting window, partial settlements included
	SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// ExpenseRepository persists the expense ledger
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	// FindByIDs returns the expenses for all given IDs; a missing ID is a
	// NOT_FOUND error naming the missing references.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Expense, error)
	FindAll(ctx context.Context, filter ExpenseFilter) ([]Expense, error)
	Count(ctx context.Context, filter ExpenseFilter) (int64, error)
	FindBySettlingInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Expense, error)
	Create(ctx context.Context, expense *Expense) error
	SaveWithLock(ctx context.Context, expense *Expense) error
	GenerateExpenseNumber(ctx context.Context) (string, error)
	// SumUnsettledBetween totals expenses without an invoice marker for a
	// reporting window (the general-spend side of the double-count guard)
	SumUnsettledBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// RecurringExpenseRepository persists recurring-expense occurrences
type RecurringExpenseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RecurringExpense, error)
	FindBySettlingInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*RecurringExpense, error)
	Create(ctx context.Context, recurring *RecurringExpense) error
	SaveWithLock(ctx context.Context, recurring *RecurringExpense) error
}

// FundingAccountRepository resolves and persists funding accounts
type FundingAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FundingAccount, error)
	// ResolveByPaymentMethod returns the tracked account a payment method
	// draws on, or (nil, nil) when the method is not tied to any account.
	ResolveByPaymentMethod(ctx context.Context, method PaymentMethod) (*FundingAccount, error)
	// FindCreditLineByVendor returns the active credit-line account whose
	// name matches the normalized vendor, or (nil, nil) when the vendor is
	// not a tracked credit line.
	FindCreditLineByVendor(ctx context.Context, vendor string) (*FundingAccount, error)
	Create(ctx context.Context, account *FundingAccount) error
	SaveWithLock(ctx context.Context, account *FundingAccount) error
}

// BankTransactionRepository persists the append-only bank ledger
type BankTransactionRepository interface {
	Create(ctx context.Context, tx *BankTransaction) error
	FindByAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]BankTransaction, error)
	FindBySource(ctx context.Context, sourceType TransactionSourceType, sourceID uuid.UUID) ([]BankTransaction, error)
}

// Repositories bundles every repository a financial unit of work may touch
type Repositories struct {
	Invoices          InvoiceRepository
	Expenses          ExpenseRepository
	RecurringExpenses RecurringExpenseRepository
	Accounts          FundingAccountRepository
	BankTransactions  BankTransactionRepository
}

// UnitOfWork executes a function against transaction-bound repositories.
// Every write inside fn commits together or not at all; ingestion,
// settlement and deletion each run as exactly one unit.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
