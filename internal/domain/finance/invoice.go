package finance

import (
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of a vendor invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING" // Nothing paid yet
	InvoiceStatusPartial InvoiceStatus = "PARTIAL" // Some balance settled
	InvoiceStatusPaid    InvoiceStatus = "PAID"    // Fully settled, terminal
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE" // Past due with nothing paid
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further mutation of the invoice is allowed
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid
}

// CanSettle returns true if settlements may still be applied
func (s InvoiceStatus) CanSettle() bool {
	return s != InvoiceStatusPaid
}

// SettlementTargetType identifies what a cost distribution line points at
type SettlementTargetType string

const (
	TargetTypeProject    SettlementTargetType = "PROJECT"
	TargetTypeSubProject SettlementTargetType = "SUB_PROJECT"
)

// IsValid checks if the target type is valid
func (t SettlementTargetType) IsValid() bool {
	return t == TargetTypeProject || t == TargetTypeSubProject
}

// InvoiceItem is a declared cost line on a vendor invoice. Exactly one
// ingestion behavior applies per item, resolved in priority order:
// an existing expense reference, an existing recurring-expense reference,
// the item's own project target, or a general spawn.
type InvoiceItem struct {
	ID                 uuid.UUID       `json:"id"`
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	Description        string          `json:"description"`
	Category           ExpenseCategory `json:"category"`
	Amount             decimal.Decimal `json:"amount"`
	ProjectID          *uuid.UUID      `json:"project_id,omitempty"`
	SubProjectID       *uuid.UUID      `json:"sub_project_id,omitempty"`
	ExpenseID          *uuid.UUID      `json:"expense_id,omitempty"`
	RecurringExpenseID *uuid.UUID      `json:"recurring_expense_id,omitempty"`
}

// HasProjectTarget returns true if the item declares its own project or
// sub-project target
func (i InvoiceItem) HasProjectTarget() bool {
	return i.ProjectID != nil || i.SubProjectID != nil
}

// InvoiceExpenseLink ties a portion of an invoice's cost to an expense
// ledger entry. Links are immutable once created; they are removed only when
// the invoice itself is deleted before payment.
type InvoiceExpenseLink struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	ExpenseID     uuid.UUID       `json:"expense_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceProjectLink records that an invoice's cost distribution may target
// the given project or sub-project. It is an ingestion-time hint, not a hard
// constraint enforced at settlement.
type InvoiceProjectLink struct {
	ID         uuid.UUID            `json:"id"`
	InvoiceID  uuid.UUID            `json:"invoice_id"`
	TargetType SettlementTargetType `json:"target_type"`
	TargetID   uuid.UUID            `json:"target_id"`
}

// Invoice is the vendor bill being reconciled against the expense ledger.
// TotalAmount is fixed at ingestion as the sum of item amounts; settlement
// only ever moves PaidAmount toward it. Once PAID the aggregate is locked:
// no item edits, no deletion, no further settlement.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string               `json:"invoice_number"`
	Vendor        string               `json:"vendor"`
	IssuedAt      time.Time            `json:"issued_at"`
	DueAt         *time.Time           `json:"due_at,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	Status        InvoiceStatus        `json:"status"`
	PaymentMethod *PaymentMethod       `json:"payment_method,omitempty"`
	// LastPaymentAt is the payment date of the most recent settlement,
	// partial or full. Nil until the first settlement lands.
	LastPaymentAt *time.Time           `json:"last_payment_at,omitempty"`
	ReceiptURL    string               `json:"receipt_url,omitempty"`
	ReceiptKey    string               `json:"receipt_key,omitempty"`
	Notes         string               `json:"notes"`
	Items         []InvoiceItem        `json:"items"`
	ProjectLinks  []InvoiceProjectLink `json:"project_links"`
	ExpenseLinks  []InvoiceExpenseLink `json:"expense_links"`
}

// NewInvoiceItemInput carries the caller-supplied fields for one cost line
type NewInvoiceItemInput struct {
	Description        string
	Category           ExpenseCategory
	Amount             decimal.Decimal
	ProjectID          *uuid.UUID
	SubProjectID       *uuid.UUID
	ExpenseID          *uuid.UUID
	RecurringExpenseID *uuid.UUID
}

// NewInvoiceProjectLinkInput declares a project target for the invoice
type NewInvoiceProjectLinkInput struct {
	TargetType SettlementTargetType
	TargetID   uuid.UUID
}

// NewInvoice creates a vendor invoice from its cost lines. TotalAmount is
// the sum of item amounts; an invoice with no items is rejected.
func NewInvoice(
	vendor string,
	invoiceNumber string,
	issuedAt time.Time,
	dueAt *time.Time,
	items []NewInvoiceItemInput,
	projectLinks []NewInvoiceProjectLinkInput,
) (*Invoice, error) {
	normalized := NormalizeVendor(vendor)
	if normalized == "" {
		return nil, shared.NewDomainError("VALIDATION", "Invoice vendor cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("VALIDATION", "Invoice number cannot be empty")
	}
	if issuedAt.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "Invoice issue date is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("VALIDATION", "Invoice must have at least one item")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		Vendor:            normalized,
		IssuedAt:          issuedAt,
		DueAt:             dueAt,
		TotalAmount:       decimal.Zero,
		PaidAmount:        decimal.Zero,
		Status:            InvoiceStatusPending,
		Items:             make([]InvoiceItem, 0, len(items)),
		ProjectLinks:      make([]InvoiceProjectLink, 0, len(projectLinks)),
		ExpenseLinks:      make([]InvoiceExpenseLink, 0),
	}

	total := decimal.Zero
	for idx, in := range items {
		if in.Description == "" {
			return nil, shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Item %d: description cannot be empty", idx+1))
		}
		if !in.Category.IsValid() {
			return nil, shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Item %d: unknown category %q", idx+1, in.Category))
		}
		if in.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Item %d: amount must be positive", idx+1))
		}
		inv.Items = append(inv.Items, InvoiceItem{
			ID:                 uuid.New(),
			InvoiceID:          inv.ID,
			Description:        in.Description,
			Category:           in.Category,
			Amount:             in.Amount,
			ProjectID:          in.ProjectID,
			SubProjectID:       in.SubProjectID,
			ExpenseID:          in.ExpenseID,
			RecurringExpenseID: in.RecurringExpenseID,
		})
		total = total.Add(in.Amount)
	}
	inv.TotalAmount = total

	for idx, pl := range projectLinks {
		if !pl.TargetType.IsValid() {
			return nil, shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Project link %d: unknown target type %q", idx+1, pl.TargetType))
		}
		if pl.TargetID == uuid.Nil {
			return nil, shared.NewDomainError("VALIDATION",
				fmt.Sprintf("Project link %d: target ID cannot be empty", idx+1))
		}
		inv.ProjectLinks = append(inv.ProjectLinks, InvoiceProjectLink{
			ID:         uuid.New(),
			InvoiceID:  inv.ID,
			TargetType: pl.TargetType,
			TargetID:   pl.TargetID,
		})
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// RemainingBalance returns TotalAmount minus PaidAmount at this moment
func (inv *Invoice) RemainingBalance() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// HasProjectLinks returns true if the invoice declares any project or
// sub-project targets
func (inv *Invoice) HasProjectLinks() bool {
	return len(inv.ProjectLinks) > 0
}

// IsPaid returns true if the invoice is fully settled
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsOverdue returns true if the invoice is past due and not fully settled
func (inv *Invoice) IsOverdue() bool {
	if inv.Status.IsTerminal() || inv.DueAt == nil {
		return false
	}
	return time.Now().After(*inv.DueAt)
}

// RefreshOverdue flips a pending invoice past its due date to OVERDUE.
// Partially-paid invoices keep their PARTIAL status.
func (inv *Invoice) RefreshOverdue(now time.Time) {
	if inv.Status != InvoiceStatusPending || inv.DueAt == nil {
		return
	}
	if now.After(*inv.DueAt) {
		inv.Status = InvoiceStatusOverdue
		inv.Touch()
	}
}

// ApplySettlement moves PaidAmount by the amount just reconciled and derives
// the new status. PaidAmount never exceeds TotalAmount beyond the cent
// tolerance, and never decreases. Every settlement, partial or full, records
// its payment date in LastPaymentAt so spend reports can attribute the money
// to the window it was paid in.
func (inv *Invoice) ApplySettlement(amount decimal.Decimal, method PaymentMethod, paidAt time.Time) error {
	if !inv.Status.CanSettle() {
		return shared.NewDomainError("INVOICE_LOCKED",
			fmt.Sprintf("Invoice %s is already paid", inv.InvoiceNumber)).
			WithDetail("invoice_id", inv.ID.String())
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Settlement amount must be positive")
	}
	if !method.IsValid() {
		return shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown payment method %q", method))
	}

	newPaid := inv.PaidAmount.Add(amount)
	if valueobject.AmountGreaterThan(newPaid, inv.TotalAmount) {
		return shared.NewDomainError("BALANCE_MISMATCH",
			fmt.Sprintf("Settlement of %s would overpay invoice %s", amount.StringFixed(2), inv.InvoiceNumber)).
			WithDetail("supplied_amount", amount.StringFixed(2)).
			WithDetail("remaining_balance", inv.RemainingBalance().StringFixed(2))
	}

	inv.PaidAmount = newPaid
	inv.PaymentMethod = &method
	paid := paidAt
	inv.LastPaymentAt = &paid
	if valueobject.AmountsEqual(inv.PaidAmount, inv.TotalAmount) {
		inv.Status = InvoiceStatusPaid
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.Status = InvoiceStatusPartial
		inv.AddDomainEvent(NewInvoicePartiallySettledEvent(inv, amount))
	}

	inv.Touch()
	inv.IncrementVersion()

	return nil
}

// AddExpenseLink records that a portion of this invoice's cost has been
// attributed to the given expense. Only the ingestion path and the
// settlement engine call this.
func (inv *Invoice) AddExpenseLink(expenseID uuid.UUID, amountApplied decimal.Decimal, notes string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVOICE_LOCKED",
			fmt.Sprintf("Invoice %s is already paid", inv.InvoiceNumber))
	}
	if expenseID == uuid.Nil {
		return shared.NewDomainError("VALIDATION", "Expense ID cannot be empty")
	}
	if amountApplied.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Applied amount must be positive")
	}

	inv.ExpenseLinks = append(inv.ExpenseLinks, InvoiceExpenseLink{
		ID:            uuid.New(),
		InvoiceID:     inv.ID,
		ExpenseID:     expenseID,
		AmountApplied: amountApplied,
		Notes:         notes,
		CreatedAt:     time.Now(),
	})
	inv.Touch()

	return nil
}

// AttachReceipt records the stored receipt document reference
func (inv *Invoice) AttachReceipt(url, storageKey string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVOICE_LOCKED",
			fmt.Sprintf("Invoice %s is already paid", inv.InvoiceNumber))
	}
	inv.ReceiptURL = url
	inv.ReceiptKey = storageKey
	inv.Touch()
	return nil
}

// EnsureDeletable returns an error if the invoice may no longer be deleted.
// Deletion is refused outright once the invoice is paid.
func (inv *Invoice) EnsureDeletable() error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainError("INVOICE_LOCKED",
			fmt.Sprintf("Invoice %s is paid and cannot be deleted", inv.InvoiceNumber)).
			WithDetail("invoice_id", inv.ID.String())
	}
	return nil
}

// LinkedExpenseIDs returns the IDs of all expenses tied to this invoice
func (inv *Invoice) LinkedExpenseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(inv.ExpenseLinks))
	for _, l := range inv.ExpenseLinks {
		ids = append(ids, l.ExpenseID)
	}
	return ids
}
