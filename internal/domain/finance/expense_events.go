package finance

import (
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense event types
const (
	EventTypeExpenseCreated           = "finance.expense.created"
	EventTypeExpensePaid              = "finance.expense.paid"
	EventTypeExpenseSettledViaInvoice = "finance.expense.settled_via_invoice"
	EventTypeExpenseReverted          = "finance.expense.reverted_to_unpaid"
)

// ExpenseCreatedEvent is published when an expense ledger entry is recorded
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string          `json:"expense_number"`
	Category      ExpenseCategory `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Vendor        string          `json:"vendor"`
	IncurredAt    time.Time       `json:"incurred_at"`
}

// NewExpenseCreatedEvent creates a new ExpenseCreatedEvent
func NewExpenseCreatedEvent(e *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCreated, "Expense", e.ID),
		ExpenseNumber:   e.ExpenseNumber,
		Category:        e.Category,
		Amount:          e.Amount,
		Vendor:          e.Vendor,
		IncurredAt:      e.IncurredAt,
	}
}

// ExpensePaidEvent is published when an expense is settled directly
type ExpensePaidEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string          `json:"expense_number"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// NewExpensePaidEvent creates a new ExpensePaidEvent
func NewExpensePaidEvent(e *Expense, method PaymentMethod) *ExpensePaidEvent {
	return &ExpensePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpensePaid, "Expense", e.ID),
		ExpenseNumber:   e.ExpenseNumber,
		Amount:          e.Amount,
		PaymentMethod:   method,
	}
}

// ExpenseSettledViaInvoiceEvent is published when an expense is absorbed
// into a vendor invoice settlement
type ExpenseSettledViaInvoiceEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string          `json:"expense_number"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
}

// NewExpenseSettledViaInvoiceEvent creates a new ExpenseSettledViaInvoiceEvent
func NewExpenseSettledViaInvoiceEvent(e *Expense, invoiceID uuid.UUID) *ExpenseSettledViaInvoiceEvent {
	return &ExpenseSettledViaInvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseSettledViaInvoice, "Expense", e.ID),
		ExpenseNumber:   e.ExpenseNumber,
		Amount:          e.Amount,
		InvoiceID:       invoiceID,
	}
}

// ExpenseRevertedEvent is published when a pre-payment invoice deletion
// returns an expense to the unpaid state
type ExpenseRevertedEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string          `json:"expense_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewExpenseRevertedEvent creates a new ExpenseRevertedEvent
func NewExpenseRevertedEvent(e *Expense) *ExpenseRevertedEvent {
	return &ExpenseRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseReverted, "Expense", e.ID),
		ExpenseNumber:   e.ExpenseNumber,
		Amount:          e.Amount,
	}
}
