package persistence

import (
	"context"

	"github.com/buildledger/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// GormUnitOfWork implements finance.UnitOfWork on top of a GORM transaction.
// Repositories handed to the callback are bound to the transaction, so every
// write inside the callback commits together or not at all.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithinTx runs fn inside a database transaction with transaction-bound
// repositories. A non-nil error from fn rolls the transaction back and is
// returned unchanged.
func (u *GormUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos finance.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := finance.Repositories{
			Invoices:          NewGormInvoiceRepository(tx),
			Expenses:          NewGormExpenseRepository(tx),
			RecurringExpenses: NewGormRecurringExpenseRepository(tx),
			Accounts:          NewGormFundingAccountRepository(tx),
			BankTransactions:  NewGormBankTransactionRepository(tx),
		}
		return fn(ctx, repos)
	})
}
