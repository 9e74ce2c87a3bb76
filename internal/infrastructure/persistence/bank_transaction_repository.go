package persistence

import (
	"context"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBankTransactionRepository implements finance.BankTransactionRepository
// using GORM. The ledger is append-only; there is no update or delete.
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// Create appends a new row to the bank ledger
func (r *GormBankTransactionRepository) Create(ctx context.Context, tx *finance.BankTransaction) error {
	model := models.BankTransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByAccount finds ledger rows for an account in a time window
func (r *GormBankTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]finance.BankTransaction, error) {
	var txModels []models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND occurred_at >= ? AND occurred_at <= ?", accountID, from, to).
		Order("occurred_at DESC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

// FindBySource finds ledger rows caused by the given source document
func (r *GormBankTransactionRepository) FindBySource(ctx context.Context, sourceType finance.TransactionSourceType, sourceID uuid.UUID) ([]finance.BankTransaction, error) {
	var txModels []models.BankTransactionModel
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("occurred_at DESC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(txModels), nil
}

func toDomainTransactions(txModels []models.BankTransactionModel) []finance.BankTransaction {
	transactions := make([]finance.BankTransaction, len(txModels))
	for i := range txModels {
		transactions[i] = *txModels[i].ToDomain()
	}
	return transactions
}
