package finance

import (
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Invoice event types
const (
	EventTypeInvoiceCreated          = "finance.invoice.created"
	EventTypeInvoicePartiallySettled = "finance.invoice.partially_settled"
	EventTypeInvoicePaid             = "finance.invoice.paid"
	EventTypeInvoiceDeleted          = "finance.invoice.deleted"
)

// InvoiceCreatedEvent is published when a vendor invoice is ingested
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Vendor        string          `json:"vendor"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemCount     int             `json:"item_count"`
	IssuedAt      time.Time       `json:"issued_at"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		Vendor:          inv.Vendor,
		TotalAmount:     inv.TotalAmount,
		ItemCount:       len(inv.Items),
		IssuedAt:        inv.IssuedAt,
	}
}

// InvoicePartiallySettledEvent is published when a settlement leaves an
// outstanding balance
type InvoicePartiallySettledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoicePartiallySettledEvent creates a new InvoicePartiallySettledEvent
func NewInvoicePartiallySettledEvent(inv *Invoice, applied decimal.Decimal) *InvoicePartiallySettledEvent {
	return &InvoicePartiallySettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePartiallySettled, "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		AppliedAmount:   applied,
		PaidAmount:      inv.PaidAmount,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePaidEvent is published when an invoice reaches full settlement
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Vendor        string          `json:"vendor"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, "Invoice", inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		Vendor:          inv.Vendor,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceDeletedEvent is published when a pre-payment invoice is removed
// and its linked expenses reverted
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber    string `json:"invoice_number"`
	RevertedExpenses int    `json:"reverted_expenses"`
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(inv *Invoice, revertedExpenses int) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeInvoiceDeleted, "Invoice", inv.ID),
		InvoiceNumber:    inv.InvoiceNumber,
		RevertedExpenses: revertedExpenses,
	}
}
