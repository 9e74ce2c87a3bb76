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

// GormRecurringExpenseRepository implements finance.RecurringExpenseRepository using GORM
type GormRecurringExpenseRepository struct {
	db *gorm.DB
}

// NewGormRecurringExpenseRepository creates a new GormRecurringExpenseRepository
func NewGormRecurringExpenseRepository(db *gorm.DB) *GormRecurringExpenseRepository {
	return &GormRecurringExpenseRepository{db: db}
}

// FindByID finds a recurring-expense occurrence by its ID
func (r *GormRecurringExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.RecurringExpense, error) {
	var model models.RecurringExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySettlingInvoice finds all occurrences settled by the given invoice
func (r *GormRecurringExpenseRepository) FindBySettlingInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.RecurringExpense, error) {
	var recurringModels []models.RecurringExpenseModel
	if err := r.db.WithContext(ctx).
		Where("settled_by_invoice_id = ?", invoiceID).
		Find(&recurringModels).Error; err != nil {
		return nil, err
	}
	occurrences := make([]*finance.RecurringExpense, len(recurringModels))
	for i := range recurringModels {
		occurrences[i] = recurringModels[i].ToDomain()
	}
	return occurrences, nil
}

// Create persists a new recurring-expense occurrence
func (r *GormRecurringExpenseRepository) Create(ctx context.Context, recurring *finance.RecurringExpense) error {
	model := models.RecurringExpenseModelFromDomain(recurring)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock saves the occurrence with optimistic locking
func (r *GormRecurringExpenseRepository) SaveWithLock(ctx context.Context, recurring *finance.RecurringExpense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.RecurringExpenseModel
		if err := tx.Select("version").Where("id = ?", recurring.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.RecurringExpenseModelFromDomain(recurring)
				return tx.Create(model).Error
			}
			return err
		}

		expectedVersion := recurring.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.RecurringExpenseModelFromDomain(recurring)
		result := tx.Model(model).
			Where("id = ? AND version = ?", recurring.GetID(), expectedVersion).
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
