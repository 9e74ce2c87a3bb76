package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the expenses for all given IDs. A missing ID is a
// NOT_FOUND error naming the missing references.
func (r *GormExpenseRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*finance.Expense, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var expenseModels []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]*finance.Expense, len(expenseModels))
	for i := range expenseModels {
		e := expenseModels[i].ToDomain()
		found[e.ID] = e
	}

	var missing []string
	expenses := make([]*finance.Expense, 0, len(ids))
	for _, id := range ids {
		e, ok := found[id]
		if !ok {
			missing = append(missing, id.String())
			continue
		}
		expenses = append(expenses, e)
	}
	if len(missing) > 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "One or more expenses do not exist").
			WithDetail("missing_expense_ids", strings.Join(missing, ", "))
	}
	return expenses, nil
}

// FindAll finds expenses matching the filter
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, error) {
	var expenseModels []models.ExpenseModel
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]finance.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = *expenseModels[i].ToDomain()
	}
	return expenses, nil
}

// Count counts expenses matching the filter
func (r *GormExpenseRepository) Count(ctx context.Context, filter finance.ExpenseFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindBySettlingInvoice finds all expenses settled by the given invoice
func (r *GormExpenseRepository) FindBySettlingInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.Expense, error) {
	var expenseModels []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("settled_by_invoice_id = ?", invoiceID).
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]*finance.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = expenseModels[i].ToDomain()
	}
	return expenses, nil
}

// Create persists a new expense
func (r *GormExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock saves the expense with optimistic locking
func (r *GormExpenseRepository) SaveWithLock(ctx context.Context, expense *finance.Expense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.ExpenseModel
		if err := tx.Select("version").Where("id = ?", expense.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.ExpenseModelFromDomain(expense)
				return tx.Create(model).Error
			}
			return err
		}

		expectedVersion := expense.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.ExpenseModelFromDomain(expense)
		result := tx.Model(model).
			Where("id = ? AND version = ?", expense.GetID(), expectedVersion).
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

// GenerateExpenseNumber generates the next sequential expense number
func (r *GormExpenseRepository) GenerateExpenseNumber(ctx context.Context) (string, error) {
	var count int64
	yearMonth := time.Now().Format("200601")

	if err := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Where("expense_number LIKE ?", fmt.Sprintf("EXP-%s-%%", yearMonth)).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("EXP-%s-%05d", yearMonth, count+1), nil
}

// SumUnsettledBetween totals expenses without an invoice marker for a
// reporting window. Entries settled via an invoice are excluded so they are
// counted on the invoice side instead.
func (r *GormExpenseRepository) SumUnsettledBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("incurred_at >= ? AND incurred_at <= ?", from, to).
		Where("settled_by_invoice_id IS NULL").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// SumBetween totals all expenses in the window regardless of settlement
func (r *GormExpenseRepository) SumBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("incurred_at >= ? AND incurred_at <= ?", from, to).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// applyFilter applies filter conditions, sorting, and pagination
func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter finance.ExpenseFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	sortField := ValidateSortField(filter.OrderBy, ExpenseSortFields, "incurred_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	return query
}

// applyFilterWithoutPagination applies filter conditions only
func (r *GormExpenseRepository) applyFilterWithoutPagination(query *gorm.DB, filter finance.ExpenseFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(expense_number LIKE ? OR description LIKE ? OR vendor LIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.OnlyUnsettled {
		query = query.Where("settled_by_invoice_id IS NULL")
	}
	if filter.FromDate != nil {
		query = query.Where("incurred_at >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("incurred_at <= ?", filter.ToDate)
	}
	return query
}
