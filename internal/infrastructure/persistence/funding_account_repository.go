package persistence

import (
	"context"
	"errors"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFundingAccountRepository implements finance.FundingAccountRepository using GORM
type GormFundingAccountRepository struct {
	db *gorm.DB
}

// NewGormFundingAccountRepository creates a new GormFundingAccountRepository
func NewGormFundingAccountRepository(db *gorm.DB) *GormFundingAccountRepository {
	return &GormFundingAccountRepository{db: db}
}

// FindByID finds a funding account by its ID
func (r *GormFundingAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FundingAccount, error) {
	var model models.FundingAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ResolveByPaymentMethod returns the tracked account the given payment method
// draws on, or (nil, nil) when the method is not tied to any account. Method
// lists are stored as JSON, so matching happens in memory over the small set
// of active accounts.
func (r *GormFundingAccountRepository) ResolveByPaymentMethod(ctx context.Context, method finance.PaymentMethod) (*finance.FundingAccount, error) {
	accounts, err := r.findActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.HandlesMethod(method) {
			return account, nil
		}
	}
	return nil, nil
}

// FindCreditLineByVendor returns the active credit-line account whose name
// matches the normalized vendor, or (nil, nil) when the vendor is not a
// tracked credit line.
func (r *GormFundingAccountRepository) FindCreditLineByVendor(ctx context.Context, vendor string) (*finance.FundingAccount, error) {
	var accountModels []models.FundingAccountModel
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND active = ?", finance.AccountKindCreditLine, true).
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	for i := range accountModels {
		account := accountModels[i].ToDomain()
		if finance.SameVendor(account.Name, vendor) {
			return account, nil
		}
	}
	return nil, nil
}

// Create persists a new funding account
func (r *GormFundingAccountRepository) Create(ctx context.Context, account *finance.FundingAccount) error {
	model := models.FundingAccountModelFromDomain(account)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock saves the account with optimistic locking. Concurrent
// settlements drawing on the same account conflict here.
func (r *GormFundingAccountRepository) SaveWithLock(ctx context.Context, account *finance.FundingAccount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.FundingAccountModel
		if err := tx.Select("version").Where("id = ?", account.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.FundingAccountModelFromDomain(account)
				return tx.Create(model).Error
			}
			return err
		}

		expectedVersion := account.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.FundingAccountModelFromDomain(account)
		result := tx.Model(model).
			Where("id = ? AND version = ?", account.GetID(), expectedVersion).
			Save(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

func (r *GormFundingAccountRepository) findActive(ctx context.Context) ([]*finance.FundingAccount, error) {
	var accountModels []models.FundingAccountModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]*finance.FundingAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, nil
}
