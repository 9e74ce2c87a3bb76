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

// ExpenseService handles the expense ledger outside the settlement engine:
// recording spend, direct payment, and queries.
type ExpenseService struct {
	uow           finance.UnitOfWork
	expenseRepo   finance.ExpenseRepository
	recurringRepo finance.RecurringExpenseRepository
	cache         ReportCache
	logger        *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	uow finance.UnitOfWork,
	expenseRepo finance.ExpenseRepository,
	recurringRepo finance.RecurringExpenseRepository,
	cache ReportCache,
	logger *zap.Logger,
) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{
		uow:           uow,
		expenseRepo:   expenseRepo,
		recurringRepo: recurringRepo,
		cache:         cache,
		logger:        logger,
	}
}

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	Description  string          `json:"description" binding:"required"`
	Category     string          `json:"category" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Vendor       string          `json:"vendor"`
	IncurredAt   time.Time       `json:"incurred_at" binding:"required"`
	ProjectID    *uuid.UUID      `json:"project_id,omitempty"`
	SubProjectID *uuid.UUID      `json:"sub_project_id,omitempty"`
	Notes        string          `json:"notes"`
}

// PayExpenseRequest represents a request to settle an expense directly
type PayExpenseRequest struct {
	PaymentMethod string    `json:"payment_method" binding:"required"`
	PaidAt        time.Time `json:"paid_at" binding:"required"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ExpenseNumber      string          `json:"expense_number"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Amount             decimal.Decimal `json:"amount"`
	Vendor             string          `json:"vendor,omitempty"`
	IncurredAt         time.Time       `json:"incurred_at"`
	ProjectID          *uuid.UUID      `json:"project_id,omitempty"`
	SubProjectID       *uuid.UUID      `json:"sub_project_id,omitempty"`
	PaymentStatus      string          `json:"payment_status"`
	PaymentMethod      *string         `json:"payment_method,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	SettledByInvoiceID *uuid.UUID      `json:"settled_by_invoice_id,omitempty"`
	ReceiptURL         string          `json:"receipt_url,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Version            int             `json:"version"`
}

func toExpenseResponse(e *finance.Expense) *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:                 e.ID,
		ExpenseNumber:      e.ExpenseNumber,
		Description:        e.Description,
		Category:           e.Category.String(),
		Amount:             e.Amount,
		Vendor:             e.Vendor,
		IncurredAt:         e.IncurredAt,
		ProjectID:          e.ProjectID,
		SubProjectID:       e.SubProjectID,
		PaymentStatus:      e.PaymentStatus.String(),
		PaidAt:             e.PaidAt,
		SettledByInvoiceID: e.SettledByInvoiceID,
		ReceiptURL:         e.ReceiptURL,
		Notes:              e.Notes,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
		Version:            e.Version,
	}
	if e.PaymentMethod != nil {
		m := e.PaymentMethod.String()
		resp.PaymentMethod = &m
	}
	return resp
}

// CreateExpense records a new unpaid expense ledger entry
func (s *ExpenseService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error) {
	number, err := s.expenseRepo.GenerateExpenseNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate expense number: %w", err)
	}

	expense, err := finance.NewExpense(
		number,
		req.Description,
		finance.ExpenseCategory(req.Category),
		req.Amount,
		req.Vendor,
		req.IncurredAt,
		req.ProjectID,
		req.SubProjectID,
	)
	if err != nil {
		return nil, err
	}
	expense.Notes = req.Notes

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}

	s.invalidateReports(ctx)

	return toExpenseResponse(expense), nil
}

// PayExpense settles an expense directly, outside any invoice. The ledger
// transition and the bank side effect commit together.
func (s *ExpenseService) PayExpense(ctx context.Context, id uuid.UUID, req PayExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "pay_expense")
	defer span.End()
	telemetry.SetAttribute(span, "expense_id", id.String())

	method := finance.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		err := shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown payment method %q", req.PaymentMethod))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp *ExpenseResponse
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos finance.Repositories) error {
		expense, err := repos.Expenses.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := expense.MarkPaid(method, req.PaidAt); err != nil {
			return err
		}
		if err := repos.Expenses.SaveWithLock(ctx, expense); err != nil {
			return err
		}

		account, err := repos.Accounts.ResolveByPaymentMethod(ctx, method)
		if err != nil {
			return err
		}
		if account != nil {
			if err := account.ApplyWithdrawal(expense.Amount, true); err != nil {
				return err
			}
			tx, err := finance.NewBankTransaction(
				account.ID,
				finance.DirectionWithdrawal,
				expense.Amount,
				req.PaidAt,
				finance.TransactionSourceExpense,
				expense.ID,
				true,
			)
			if err != nil {
				return err
			}
			tx.WithNotes(fmt.Sprintf("Payment of expense %s", expense.ExpenseNumber))
			if err := repos.BankTransactions.Create(ctx, tx); err != nil {
				return err
			}
			if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
				return err
			}
		}

		resp = toExpenseResponse(expense)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateReports(ctx)

	return resp, nil
}

// GetExpense returns one expense ledger entry
func (s *ExpenseService) GetExpense(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// ListExpenses returns a filtered, paginated expense list
func (s *ExpenseService) ListExpenses(ctx context.Context, filter finance.ExpenseFilter) (*shared.Paginated[ExpenseResponse], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	expenses, err := s.expenseRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.expenseRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, *toExpenseResponse(&expenses[i]))
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// invalidateReports drops cached spend summaries after a ledger write. A
// cache failure never fails the write, but it must not pass silently either:
// stale summaries linger until the TTL expires.
func (s *ExpenseService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("spend summary cache invalidation failed", zap.Error(err))
	}
}

// CreateRecurringExpenseRequest represents a request to record a recurring
// expense occurrence
type CreateRecurringExpenseRequest struct {
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Vendor      string          `json:"vendor"`
	DueDay      int             `json:"due_day" binding:"required"`
	PeriodStart time.Time       `json:"period_start" binding:"required"`
	ProjectID   *uuid.UUID      `json:"project_id,omitempty"`
}

// RecurringExpenseResponse represents a recurring expense in API responses
type RecurringExpenseResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Amount             decimal.Decimal `json:"amount"`
	Vendor             string          `json:"vendor,omitempty"`
	DueDay             int             `json:"due_day"`
	PeriodStart        time.Time       `json:"period_start"`
	ProjectID          *uuid.UUID      `json:"project_id,omitempty"`
	PaymentStatus      string          `json:"payment_status"`
	SettledByInvoiceID *uuid.UUID      `json:"settled_by_invoice_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// CreateRecurringExpense records a new unpaid recurring-expense occurrence
func (s *ExpenseService) CreateRecurringExpense(ctx context.Context, req CreateRecurringExpenseRequest) (*RecurringExpenseResponse, error) {
	recurring, err := finance.NewRecurringExpense(
		req.Description,
		finance.ExpenseCategory(req.Category),
		req.Amount,
		req.Vendor,
		req.DueDay,
		req.PeriodStart,
		req.ProjectID,
	)
	if err != nil {
		return nil, err
	}

	if err := s.recurringRepo.Create(ctx, recurring); err != nil {
		return nil, err
	}

	return &RecurringExpenseResponse{
		ID:                 recurring.ID,
		Description:        recurring.Description,
		Category:           recurring.Category.String(),
		Amount:             recurring.Amount,
		Vendor:             recurring.Vendor,
		DueDay:             recurring.DueDay,
		PeriodStart:        recurring.PeriodStart,
		ProjectID:          recurring.ProjectID,
		PaymentStatus:      recurring.PaymentStatus.String(),
		SettledByInvoiceID: recurring.SettledByInvoiceID,
		CreatedAt:          recurring.CreatedAt,
	}, nil
}
