package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService handles vendor invoice ingestion, queries and deletion.
// Every write path runs as one unit of work: the invoice, its items and
// links, and any expense-ledger transitions commit together.
type InvoiceService struct {
	uow         finance.UnitOfWork
	invoiceRepo finance.InvoiceRepository
	expenseRepo finance.ExpenseRepository
	cache       ReportCache
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	uow finance.UnitOfWork,
	invoiceRepo finance.InvoiceRepository,
	expenseRepo finance.ExpenseRepository,
	cache ReportCache,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		uow:         uow,
		invoiceRepo: invoiceRepo,
		expenseRepo: expenseRepo,
		cache:       cache,
		logger:      logger,
	}
}

// CreateInvoiceItemRequest is one cost line in an ingestion request
type CreateInvoiceItemRequest struct {
	Description        string          `json:"description" binding:"required"`
	Category           string          `json:"category" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	ProjectID          *uuid.UUID      `json:"project_id,omitempty"`
	SubProjectID       *uuid.UUID      `json:"sub_project_id,omitempty"`
	ExpenseID          *uuid.UUID      `json:"expense_id,omitempty"`
	RecurringExpenseID *uuid.UUID      `json:"recurring_expense_id,omitempty"`
}

// CreateInvoiceProjectLinkRequest declares a project target on the invoice
type CreateInvoiceProjectLinkRequest struct {
	TargetType string    `json:"target_type" binding:"required"`
	TargetID   uuid.UUID `json:"target_id" binding:"required"`
}

// CreateInvoiceRequest represents a request to ingest a vendor invoice
type CreateInvoiceRequest struct {
	Vendor        string                            `json:"vendor" binding:"required"`
	InvoiceNumber string                            `json:"invoice_number"`
	IssuedAt      time.Time                         `json:"issued_at" binding:"required"`
	DueAt         *time.Time                        `json:"due_at,omitempty"`
	Notes         string                            `json:"notes"`
	Items         []CreateInvoiceItemRequest        `json:"items" binding:"required,min=1,dive"`
	ProjectLinks  []CreateInvoiceProjectLinkRequest `json:"project_links,omitempty"`
}

// InvoiceItemResponse represents an invoice item in API responses
type InvoiceItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Amount             decimal.Decimal `json:"amount"`
	ProjectID          *uuid.UUID      `json:"project_id,omitempty"`
	SubProjectID       *uuid.UUID      `json:"sub_project_id,omitempty"`
	ExpenseID          *uuid.UUID      `json:"expense_id,omitempty"`
	RecurringExpenseID *uuid.UUID      `json:"recurring_expense_id,omitempty"`
}

// InvoiceExpenseLinkResponse represents an expense link in API responses
type InvoiceExpenseLinkResponse struct {
	ID            uuid.UUID       `json:"id"`
	ExpenseID     uuid.UUID       `json:"expense_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	Notes         string          `json:"notes,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID                    `json:"id"`
	InvoiceNumber    string                       `json:"invoice_number"`
	Vendor           string                       `json:"vendor"`
	IssuedAt         time.Time                    `json:"issued_at"`
	DueAt            *time.Time                   `json:"due_at,omitempty"`
	TotalAmount      decimal.Decimal              `json:"total_amount"`
	PaidAmount       decimal.Decimal              `json:"paid_amount"`
	RemainingBalance decimal.Decimal              `json:"remaining_balance"`
	Status           string                       `json:"status"`
	PaymentMethod    *string                      `json:"payment_method,omitempty"`
	LastPaymentAt    *time.Time                   `json:"last_payment_at,omitempty"`
	ReceiptURL       string                       `json:"receipt_url,omitempty"`
	Notes            string                       `json:"notes,omitempty"`
	Items            []InvoiceItemResponse        `json:"items"`
	ExpenseLinks     []InvoiceExpenseLinkResponse `json:"expense_links"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
	Version          int                          `json:"version"`
}

func toInvoiceResponse(inv *finance.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:               inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		Vendor:           inv.Vendor,
		IssuedAt:         inv.IssuedAt,
		DueAt:            inv.DueAt,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		RemainingBalance: inv.RemainingBalance(),
		Status:           inv.Status.String(),
		LastPaymentAt:    inv.LastPaymentAt,
		ReceiptURL:       inv.ReceiptURL,
		Notes:            inv.Notes,
		Items:            make([]InvoiceItemResponse, 0, len(inv.Items)),
		ExpenseLinks:     make([]InvoiceExpenseLinkResponse, 0, len(inv.ExpenseLinks)),
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
		Version:          inv.Version,
	}
	if inv.PaymentMethod != nil {
		m := inv.PaymentMethod.String()
		resp.PaymentMethod = &m
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:                 item.ID,
			Description:        item.Description,
			Category:           item.Category.String(),
			Amount:             item.Amount,
			ProjectID:          item.ProjectID,
			SubProjectID:       item.SubProjectID,
			ExpenseID:          item.ExpenseID,
			RecurringExpenseID: item.RecurringExpenseID,
		})
	}
	for _, link := range inv.ExpenseLinks {
		resp.ExpenseLinks = append(resp.ExpenseLinks, InvoiceExpenseLinkResponse{
			ID:            link.ID,
			ExpenseID:     link.ExpenseID,
			AmountApplied: link.AmountApplied,
			Notes:         link.Notes,
		})
	}
	return resp
}

// CreateInvoice ingests a vendor invoice. Per item the first matching
// behavior wins: absorb a referenced expense, absorb a referenced recurring
// expense, spawn a settled expense for the item's own project target, or
// spawn a settled general expense when the invoice declares no project links
// at all. Items without a reference on an invoice that does declare project
// links are left for the settlement engine.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create_invoice")
	defer span.End()

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		var err error
		invoiceNumber, err = s.invoiceRepo.GenerateInvoiceNumber(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to generate invoice number: %w", err)
		}
	}

	items := make([]finance.NewInvoiceItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, finance.NewInvoiceItemInput{
			Description:        it.Description,
			Category:           finance.ExpenseCategory(it.Category),
			Amount:             it.Amount,
			ProjectID:          it.ProjectID,
			SubProjectID:       it.SubProjectID,
			ExpenseID:          it.ExpenseID,
			RecurringExpenseID: it.RecurringExpenseID,
		})
	}
	projectLinks := make([]finance.NewInvoiceProjectLinkInput, 0, len(req.ProjectLinks))
	for _, pl := range req.ProjectLinks {
		projectLinks = append(projectLinks, finance.NewInvoiceProjectLinkInput{
			TargetType: finance.SettlementTargetType(pl.TargetType),
			TargetID:   pl.TargetID,
		})
	}

	invoice, err := finance.NewInvoice(req.Vendor, invoiceNumber, req.IssuedAt, req.DueAt, items, projectLinks)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice.Notes = req.Notes

	telemetry.SetAttribute(span, "invoice_number", invoice.InvoiceNumber)
	telemetry.SetAttribute(span, "total_amount", invoice.TotalAmount.String())

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos finance.Repositories) error {
		for _, item := range invoice.Items {
			if err := s.ingestItem(ctx, repos, invoice, item); err != nil {
				return err
			}
		}
		return repos.Invoices.Create(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateReports(ctx)

	return toInvoiceResponse(invoice), nil
}

// ingestItem applies the single ingestion behavior an item qualifies for
func (s *InvoiceService) ingestItem(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	item finance.InvoiceItem,
) error {
	now := time.Now()

	switch {
	case item.ExpenseID != nil:
		expense, err := repos.Expenses.FindByID(ctx, *item.ExpenseID)
		if err != nil {
			return fmt.Errorf("item %q: %w", item.Description, err)
		}
		if err := expense.MarkPaidViaInvoice(invoice.ID, now); err != nil {
			return err
		}
		if err := repos.Expenses.SaveWithLock(ctx, expense); err != nil {
			return err
		}
		return invoice.AddExpenseLink(expense.ID, expense.Amount, item.Description)

	case item.RecurringExpenseID != nil:
		recurring, err := repos.RecurringExpenses.FindByID(ctx, *item.RecurringExpenseID)
		if err != nil {
			return fmt.Errorf("item %q: %w", item.Description, err)
		}
		if err := recurring.MarkPaidViaInvoice(invoice.ID, now); err != nil {
			return err
		}
		return repos.RecurringExpenses.SaveWithLock(ctx, recurring)

	case item.HasProjectTarget():
		return s.spawnSettledExpense(ctx, repos, invoice, item)

	case !invoice.HasProjectLinks():
		// No target anywhere: the item is general spend absorbed by the
		// invoice at ingestion time.
		return s.spawnSettledExpense(ctx, repos, invoice, item)
	}

	// The invoice declares project links but the item names no target;
	// cost attribution waits for the settlement engine.
	return nil
}

func (s *InvoiceService) spawnSettledExpense(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	item finance.InvoiceItem,
) error {
	number, err := repos.Expenses.GenerateExpenseNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate expense number: %w", err)
	}

	expense, err := finance.NewExpenseSettledByInvoice(
		number,
		item.Description,
		item.Category,
		item.Amount,
		invoice.Vendor,
		invoice.IssuedAt,
		item.ProjectID,
		item.SubProjectID,
		invoice.ID,
	)
	if err != nil {
		return err
	}
	if err := repos.Expenses.Create(ctx, expense); err != nil {
		return err
	}
	return invoice.AddExpenseLink(expense.ID, expense.Amount, item.Description)
}

// GetInvoice returns one invoice with its items and links
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.RefreshOverdue(time.Now())
	return toInvoiceResponse(invoice), nil
}

// ListInvoices returns a filtered, paginated invoice list
func (s *InvoiceService) ListInvoices(ctx context.Context, filter finance.InvoiceFilter) (*shared.Paginated[InvoiceResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		invoices[i].RefreshOverdue(now)
		items = append(items, *toInvoiceResponse(&invoices[i]))
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// DeleteInvoice removes an unpaid invoice and undoes its ingestion-time
// ledger effects: every expense and recurring expense the invoice settled
// goes back to UNPAID, then links, items and the invoice are removed, all
// in one unit of work. Paid invoices cannot be deleted.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete_invoice")
	defer span.End()
	telemetry.SetAttribute(span, "invoice_id", id.String())

	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos finance.Repositories) error {
		invoice, err := repos.Invoices.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := invoice.EnsureDeletable(); err != nil {
			return err
		}

		expenses, err := repos.Expenses.FindBySettlingInvoice(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range expenses {
			e.RevertToUnpaid()
			if err := repos.Expenses.SaveWithLock(ctx, e); err != nil {
				return err
			}
		}

		recurring, err := repos.RecurringExpenses.FindBySettlingInvoice(ctx, id)
		if err != nil {
			return err
		}
		for _, r := range recurring {
			r.RevertToUnpaid()
			if err := repos.RecurringExpenses.SaveWithLock(ctx, r); err != nil {
				return err
			}
		}

		return repos.Invoices.Delete(ctx, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.invalidateReports(ctx)

	return nil
}

func (s *InvoiceService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("spend summary cache invalidation failed", zap.Error(err))
	}
}
