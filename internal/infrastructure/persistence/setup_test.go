package persistence

import (
	"testing"

	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory SQLite database with the full schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
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

	return db
}
