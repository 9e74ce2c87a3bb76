package finance

import (
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryMaterials      ExpenseCategory = "MATERIALS"      // Construction materials
	ExpenseCategoryLabor          ExpenseCategory = "LABOR"          // Crew wages and subcontractor labor
	ExpenseCategoryEquipment      ExpenseCategory = "EQUIPMENT"      // Equipment purchase or rental
	ExpenseCategoryFuel           ExpenseCategory = "FUEL"           // Vehicle and machinery fuel
	ExpenseCategoryPermits        ExpenseCategory = "PERMITS"        // Permits and inspection fees
	ExpenseCategorySubcontractors ExpenseCategory = "SUBCONTRACTORS" // Subcontracted work
	ExpenseCategoryInsurance      ExpenseCategory = "INSURANCE"      // Insurance and bonding
	ExpenseCategoryOffice         ExpenseCategory = "OFFICE"         // Office and administrative
	ExpenseCategoryUtilities      ExpenseCategory = "UTILITIES"      // Site and office utilities
	ExpenseCategoryOther          ExpenseCategory = "OTHER"          // Anything else
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryMaterials, ExpenseCategoryLabor, ExpenseCategoryEquipment,
		ExpenseCategoryFuel, ExpenseCategoryPermits, ExpenseCategorySubcontractors,
		ExpenseCategoryInsurance, ExpenseCategoryOffice, ExpenseCategoryUtilities,
		ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// PaymentMethod represents the method used to pay an expense or invoice
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"          // Petty cash account
	PaymentMethodCheck        PaymentMethod = "CHECK"         // Company check
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER" // Wire or ACH from the company account
	PaymentMethodCompanyCard  PaymentMethod = "COMPANY_CARD"  // Company credit card
	PaymentMethodPersonalCard PaymentMethod = "PERSONAL_CARD" // Owner's personal card, not a tracked account
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer,
		PaymentMethodCompanyCard, PaymentMethodPersonalCard, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ExpensePaymentStatus represents the payment state of an expense
type ExpensePaymentStatus string

const (
	ExpensePaymentStatusUnpaid         ExpensePaymentStatus = "UNPAID"           // Recorded but not yet settled
	ExpensePaymentStatusPaid           ExpensePaymentStatus = "PAID"             // Settled directly
	ExpensePaymentStatusPaidViaInvoice ExpensePaymentStatus = "PAID_VIA_INVOICE" // Absorbed into a vendor invoice
)

// IsValid checks if the status is a valid ExpensePaymentStatus
func (s ExpensePaymentStatus) IsValid() bool {
	switch s {
	case ExpensePaymentStatusUnpaid, ExpensePaymentStatusPaid, ExpensePaymentStatusPaidViaInvoice:
		return true
	}
	return false
}

// String returns the string representation of ExpensePaymentStatus
func (s ExpensePaymentStatus) String() string {
	return string(s)
}

// IsClosed returns true if the expense is in a terminal payment state.
// Closed expenses are never reopened by the settlement engine.
func (s ExpensePaymentStatus) IsClosed() bool {
	return s == ExpensePaymentStatusPaid || s == ExpensePaymentStatusPaidViaInvoice
}

// Expense is the canonical ledger entry for money spent.
// Once an expense carries a SettledByInvoiceID marker it must be excluded
// from any general-spend report total: the same money is already counted in
// the settling invoice.
type Expense struct {
	shared.BaseAggregateRoot
	ExpenseNumber      string               `json:"expense_number"`
	Description        string               `json:"description"`
	Category           ExpenseCategory      `json:"category"`
	Amount             decimal.Decimal      `json:"amount"`
	Vendor             string               `json:"vendor"`
	IncurredAt         time.Time            `json:"incurred_at"`
	ProjectID          *uuid.UUID           `json:"project_id,omitempty"`
	SubProjectID       *uuid.UUID           `json:"sub_project_id,omitempty"`
	PaymentStatus      ExpensePaymentStatus `json:"payment_status"`
	PaymentMethod      *PaymentMethod       `json:"payment_method,omitempty"`
	PaidAt             *time.Time           `json:"paid_at,omitempty"`
	SettledByInvoiceID *uuid.UUID           `json:"settled_by_invoice_id,omitempty"`
	ReceiptURL         string               `json:"receipt_url,omitempty"`
	ReceiptKey         string               `json:"receipt_key,omitempty"`
	Notes              string               `json:"notes"`
}

// NewExpense creates a new unpaid expense ledger entry
func NewExpense(
	expenseNumber string,
	description string,
	category ExpenseCategory,
	amount decimal.Decimal,
	vendor string,
	incurredAt time.Time,
	projectID *uuid.UUID,
	subProjectID *uuid.UUID,
) (*Expense, error) {
	if expenseNumber == "" {
		return nil, shared.NewDomainError("VALIDATION", "Expense number cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("VALIDATION", "Expense description cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown expense category %q", category))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION", "Expense amount must be positive")
	}
	if incurredAt.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "Expense date is required")
	}

	e := &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ExpenseNumber:     expenseNumber,
		Description:       description,
		Category:          category,
		Amount:            amount,
		Vendor:            NormalizeVendor(vendor),
		IncurredAt:        incurredAt,
		ProjectID:         projectID,
		SubProjectID:      subProjectID,
		PaymentStatus:     ExpensePaymentStatusUnpaid,
	}

	e.AddDomainEvent(NewExpenseCreatedEvent(e))

	return e, nil
}

// NewExpenseSettledByInvoice creates an expense that is born settled:
// ingestion spawns these when an invoice item carries its own cost, so the
// entry starts PAID_VIA_INVOICE with the invoice marker already set.
func NewExpenseSettledByInvoice(
	expenseNumber string,
	description string,
	category ExpenseCategory,
	amount decimal.Decimal,
	vendor string,
	incurredAt time.Time,
	projectID *uuid.UUID,
	subProjectID *uuid.UUID,
	invoiceID uuid.UUID,
) (*Expense, error) {
	e, err := NewExpense(expenseNumber, description, category, amount, vendor, incurredAt, projectID, subProjectID)
	if err != nil {
		return nil, err
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Settling invoice ID cannot be empty")
	}

	now := time.Now()
	e.PaymentStatus = ExpensePaymentStatusPaidViaInvoice
	e.SettledByInvoiceID = &invoiceID
	e.PaidAt = &now

	e.AddDomainEvent(NewExpenseSettledViaInvoiceEvent(e, invoiceID))

	return e, nil
}

// NewExpensePaidBySettlement creates an expense spawned by the settlement
// engine for money leaving now. It starts PAID (not PAID_VIA_INVOICE, which
// is reserved for pre-existing entries absorbed into an invoice) but still
// carries the invoice marker for the reporting double-count guard.
func NewExpensePaidBySettlement(
	expenseNumber string,
	description string,
	category ExpenseCategory,
	amount decimal.Decimal,
	vendor string,
	paidAt time.Time,
	projectID *uuid.UUID,
	subProjectID *uuid.UUID,
	invoiceID uuid.UUID,
	method PaymentMethod,
) (*Expense, error) {
	e, err := NewExpense(expenseNumber, description, category, amount, vendor, paidAt, projectID, subProjectID)
	if err != nil {
		return nil, err
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Settling invoice ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown payment method %q", method))
	}

	paid := paidAt
	e.PaymentStatus = ExpensePaymentStatusPaid
	e.PaymentMethod = &method
	e.SettledByInvoiceID = &invoiceID
	e.PaidAt = &paid

	e.AddDomainEvent(NewExpenseSettledViaInvoiceEvent(e, invoiceID))

	return e, nil
}

// MarkPaidViaInvoice transitions an unpaid expense to PAID_VIA_INVOICE,
// back-referencing the settling invoice. Settling an already-closed expense
// is a hard error: silently skipping would desynchronize the invoice's
// paid amount from the ledger.
func (e *Expense) MarkPaidViaInvoice(invoiceID uuid.UUID, paidAt time.Time) error {
	if e.PaymentStatus.IsClosed() {
		return shared.NewDomainError("ALREADY_SETTLED",
			fmt.Sprintf("Expense %s is already %s", e.ExpenseNumber, e.PaymentStatus)).
			WithDetail("expense_id", e.ID.String()).
			WithDetail("payment_status", e.PaymentStatus.String())
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("VALIDATION", "Settling invoice ID cannot be empty")
	}

	e.PaymentStatus = ExpensePaymentStatusPaidViaInvoice
	e.SettledByInvoiceID = &invoiceID
	e.PaidAt = &paidAt
	e.Touch()
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseSettledViaInvoiceEvent(e, invoiceID))

	return nil
}

// MarkPaid settles the expense directly, outside any invoice.
// Shares the closed-state guard with MarkPaidViaInvoice.
func (e *Expense) MarkPaid(method PaymentMethod, paidAt time.Time) error {
	if e.PaymentStatus.IsClosed() {
		return shared.NewDomainError("ALREADY_SETTLED",
			fmt.Sprintf("Expense %s is already %s", e.ExpenseNumber, e.PaymentStatus)).
			WithDetail("expense_id", e.ID.String()).
			WithDetail("payment_status", e.PaymentStatus.String())
	}
	if !method.IsValid() {
		return shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown payment method %q", method))
	}

	e.PaymentStatus = ExpensePaymentStatusPaid
	e.PaymentMethod = &method
	e.PaidAt = &paidAt
	e.Touch()
	e.IncrementVersion()

	e.AddDomainEvent(NewExpensePaidEvent(e, method))

	return nil
}

// RevertToUnpaid undoes an invoice-time settlement. It exists solely for
// pre-payment invoice deletion; the settlement engine never reopens an
// expense on its own.
func (e *Expense) RevertToUnpaid() {
	e.PaymentStatus = ExpensePaymentStatusUnpaid
	e.SettledByInvoiceID = nil
	e.PaymentMethod = nil
	e.PaidAt = nil
	e.Touch()
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseRevertedEvent(e))
}

// AttachReceipt records the stored receipt document reference
func (e *Expense) AttachReceipt(url, storageKey string) {
	e.ReceiptURL = url
	e.ReceiptKey = storageKey
	e.Touch()
	e.IncrementVersion()
}

// IsInvoiceSettled is the reporting double-count guard: true when this
// expense has been tied to an invoice and must be excluded from general
// spend totals.
func (e *Expense) IsInvoiceSettled() bool {
	return e.SettledByInvoiceID != nil
}

// IsUnpaid returns true if the expense has not been settled
func (e *Expense) IsUnpaid() bool {
	return e.PaymentStatus == ExpensePaymentStatusUnpaid
}
