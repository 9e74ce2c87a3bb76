package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements finance.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its items and links by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ProjectLinks").
		Preload("ExpenseLinks").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter finance.InvoiceFilter) ([]finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Preload("Items").
		Preload("ProjectLinks").
		Preload("ExpenseLinks")
	query = r.applyFilter(query, filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]finance.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter finance.InvoiceFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create persists a new invoice with its items and links
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock saves the invoice using its optimistic version counter.
// Expense links are append-only; new links are inserted alongside the
// aggregate row update.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.InvoiceModel
		if err := tx.Select("version").Where("id = ?", invoice.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.InvoiceModelFromDomain(invoice)
				return tx.Create(model).Error
			}
			return err
		}

		// Domain model already incremented its version
		expectedVersion := invoice.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.InvoiceModelFromDomain(invoice)
		result := tx.Model(&models.InvoiceModel{}).
			Omit("Items", "ProjectLinks", "ExpenseLinks").
			Where("id = ? AND version = ?", invoice.GetID(), expectedVersion).
			Updates(map[string]any{
				"paid_amount":     model.PaidAmount,
				"status":          model.Status,
				"payment_method":  model.PaymentMethod,
				"last_payment_at": model.LastPaymentAt,
				"receipt_url":     model.ReceiptURL,
				"receipt_key":     model.ReceiptKey,
				"notes":           model.Notes,
				"due_at":          model.DueAt,
				"version":         model.Version,
				"updated_at":      model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		// Insert any expense links added since the last save
		if len(model.ExpenseLinks) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.ExpenseLinks).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an unpaid invoice with its items and links
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceProjectLinkModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceExpenseLinkModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GenerateInvoiceNumber generates the next sequential invoice number
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	var count int64
	yearMonth := time.Now().Format("200601")

	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_number LIKE ?", fmt.Sprintf("INV-%s-%%", yearMonth)).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("INV-%s-%05d", yearMonth, count+1), nil
}

// SumPaidBetween totals invoice paid amounts whose most recent payment date
// falls in the reporting window. Partially settled invoices count too: their
// paid-to-date is attributed to the window of the latest settlement.
func (r *GormInvoiceRepository) SumPaidBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(paid_amount), 0) AS total").
		Where("last_payment_at >= ? AND last_payment_at <= ?", from, to).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// applyFilter applies filter conditions, sorting, and pagination
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter finance.InvoiceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, InvoiceSortFields, "issued_at")
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
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter finance.InvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(invoice_number LIKE ? OR vendor LIKE ? OR notes LIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}
	if filter.Vendor != "" {
		query = query.Where("vendor = ?", finance.NormalizeVendor(filter.Vendor))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("issued_at >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issued_at <= ?", filter.ToDate)
	}
	return query
}
