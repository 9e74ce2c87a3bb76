package finance

import (
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringExpense is a scheduled ledger entry generated from a repeating
// commitment (equipment leases, insurance premiums, yard rent). It shares
// the expense payment-state machine and the same settle-once guard: a
// vendor invoice can absorb an unpaid occurrence exactly once.
type RecurringExpense struct {
	shared.BaseAggregateRoot
	Description        string               `json:"description"`
	Category           ExpenseCategory      `json:"category"`
	Amount             decimal.Decimal      `json:"amount"`
	Vendor             string               `json:"vendor"`
	DueDay             int                  `json:"due_day"` // Day of month the charge falls due
	PeriodStart        time.Time            `json:"period_start"`
	ProjectID          *uuid.UUID           `json:"project_id,omitempty"`
	PaymentStatus      ExpensePaymentStatus `json:"payment_status"`
	PaymentMethod      *PaymentMethod       `json:"payment_method,omitempty"`
	PaidAt             *time.Time           `json:"paid_at,omitempty"`
	SettledByInvoiceID *uuid.UUID           `json:"settled_by_invoice_id,omitempty"`
}

// NewRecurringExpense creates a new unpaid recurring-expense occurrence
func NewRecurringExpense(
	description string,
	category ExpenseCategory,
	amount decimal.Decimal,
	vendor string,
	dueDay int,
	periodStart time.Time,
	projectID *uuid.UUID,
) (*RecurringExpense, error) {
	if description == "" {
		return nil, shared.NewDomainError("VALIDATION", "Recurring expense description cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown expense category %q", category))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION", "Recurring expense amount must be positive")
	}
	if dueDay < 1 || dueDay > 31 {
		return nil, shared.NewDomainError("VALIDATION", "Due day must be between 1 and 31")
	}

	return &RecurringExpense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Description:       description,
		Category:          category,
		Amount:            amount,
		Vendor:            NormalizeVendor(vendor),
		DueDay:            dueDay,
		PeriodStart:       periodStart,
		ProjectID:         projectID,
		PaymentStatus:     ExpensePaymentStatusUnpaid,
	}, nil
}

// MarkPaidViaInvoice transitions an unpaid occurrence to PAID_VIA_INVOICE.
// Same hard-error semantics as Expense.MarkPaidViaInvoice.
func (r *RecurringExpense) MarkPaidViaInvoice(invoiceID uuid.UUID, paidAt time.Time) error {
	if r.PaymentStatus.IsClosed() {
		return shared.NewDomainError("ALREADY_SETTLED",
			fmt.Sprintf("Recurring expense %q is already %s", r.Description, r.PaymentStatus)).
			WithDetail("recurring_expense_id", r.ID.String()).
			WithDetail("payment_status", r.PaymentStatus.String())
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("VALIDATION", "Settling invoice ID cannot be empty")
	}

	r.PaymentStatus = ExpensePaymentStatusPaidViaInvoice
	r.SettledByInvoiceID = &invoiceID
	r.PaidAt = &paidAt
	r.Touch()
	r.IncrementVersion()

	return nil
}

// RevertToUnpaid undoes an invoice-time settlement, used only by
// pre-payment invoice deletion
func (r *RecurringExpense) RevertToUnpaid() {
	r.PaymentStatus = ExpensePaymentStatusUnpaid
	r.SettledByInvoiceID = nil
	r.PaymentMethod = nil
	r.PaidAt = nil
	r.Touch()
	r.IncrementVersion()
}

// IsUnpaid returns true if the occurrence has not been settled
func (r *RecurringExpense) IsUnpaid() bool {
	return r.PaymentStatus == ExpensePaymentStatusUnpaid
}
