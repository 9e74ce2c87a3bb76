package finance

import (
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind classifies a funding account. The kind is an explicit field
// rather than an inference from the account's name: whether a vendor payment
// is a credit-line paydown is decided by looking the vendor up among
// CREDIT_LINE accounts, never by a hardcoded name list.
type AccountKind string

const (
	AccountKindCash       AccountKind = "CASH"        // Petty cash drawer
	AccountKindBank       AccountKind = "BANK"        // Checking account
	AccountKindCreditLine AccountKind = "CREDIT_LINE" // Supplier credit line / revolving credit
)

// IsValid checks if the account kind is valid
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindCash, AccountKindBank, AccountKindCreditLine:
		return true
	}
	return false
}

// String returns the string representation of AccountKind
func (k AccountKind) String() string {
	return string(k)
}

// FundingAccount is a cash, bank, or credit-line account the company pays
// from. For CASH and BANK accounts Balance is money available; for
// CREDIT_LINE accounts Balance is the outstanding amount owed on the line.
type FundingAccount struct {
	shared.BaseAggregateRoot
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	PaymentMethods []PaymentMethod `json:"payment_methods"` // Methods that draw on this account
	Active         bool            `json:"active"`
}

// NewFundingAccount creates a new funding account
func NewFundingAccount(name string, kind AccountKind, openingBalance decimal.Decimal, methods []PaymentMethod) (*FundingAccount, error) {
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "Account name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown account kind %q", kind))
	}
	for _, m := range methods {
		if !m.IsValid() {
			return nil, shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown payment method %q", m))
		}
	}

	return &FundingAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Kind:              kind,
		Balance:           openingBalance,
		PaymentMethods:    methods,
		Active:            true,
	}, nil
}

// HandlesMethod returns true if the given payment method draws on this account
func (a *FundingAccount) HandlesMethod(method PaymentMethod) bool {
	for _, m := range a.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// ApplyWithdrawal reduces the account balance by the given amount. With
// allowNegative the balance may go below zero: vendor payment timing can
// legitimately precede deposit recording.
func (a *FundingAccount) ApplyWithdrawal(amount decimal.Decimal, allowNegative bool) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Withdrawal amount must be positive")
	}
	if a.Kind == AccountKindCreditLine {
		return shared.NewDomainError("INVALID_STATE", "Cannot withdraw from a credit line account")
	}
	newBalance := a.Balance.Sub(amount)
	if newBalance.IsNegative() && !allowNegative {
		return shared.NewDomainError("INSUFFICIENT_FUNDS",
			fmt.Sprintf("Withdrawal of %s would overdraw account %s", amount.StringFixed(2), a.Name)).
			WithDetail("balance", a.Balance.StringFixed(2)).
			WithDetail("amount", amount.StringFixed(2))
	}

	a.Balance = newBalance
	a.Touch()
	a.IncrementVersion()

	return nil
}

// ReceiveCreditPayment reduces the outstanding balance on a credit line
func (a *FundingAccount) ReceiveCreditPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Payment amount must be positive")
	}
	if a.Kind != AccountKindCreditLine {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Account %s is not a credit line", a.Name))
	}

	a.Balance = a.Balance.Sub(amount)
	a.Touch()
	a.IncrementVersion()

	return nil
}

// TransactionDirection describes what a bank ledger row does to its account
type TransactionDirection string

const (
	DirectionWithdrawal        TransactionDirection = "WITHDRAWAL"          // Money leaving a cash/bank account
	DirectionCreditLinePayment TransactionDirection = "CREDIT_LINE_PAYMENT" // Paydown of a credit line from a funding account
)

// IsValid checks if the direction is valid
func (d TransactionDirection) IsValid() bool {
	return d == DirectionWithdrawal || d == DirectionCreditLinePayment
}

// TransactionSourceType identifies the document that caused a bank ledger row
type TransactionSourceType string

const (
	TransactionSourceExpense TransactionSourceType = "EXPENSE"
	TransactionSourceInvoice TransactionSourceType = "INVOICE"
)

// BankTransaction is an append-only row on a funding account's ledger.
// Rows are created only as the side effect of a successful settlement and
// are never mutated afterward.
type BankTransaction struct {
	shared.BaseEntity
	AccountID            uuid.UUID             `json:"account_id"`
	Direction            TransactionDirection  `json:"direction"`
	Amount               decimal.Decimal       `json:"amount"`
	OccurredAt           time.Time             `json:"occurred_at"`
	SourceType           TransactionSourceType `json:"source_type"`
	SourceID             uuid.UUID             `json:"source_id"`
	CreditLineAccountID  *uuid.UUID            `json:"credit_line_account_id,omitempty"`
	AllowNegativeBalance bool                  `json:"allow_negative_balance"`
	Notes                string                `json:"notes"`
}

// NewBankTransaction creates a new bank ledger row
func NewBankTransaction(
	accountID uuid.UUID,
	direction TransactionDirection,
	amount decimal.Decimal,
	occurredAt time.Time,
	sourceType TransactionSourceType,
	sourceID uuid.UUID,
	allowNegative bool,
) (*BankTransaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Account ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown transaction direction %q", direction))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION", "Transaction amount must be positive")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Source document ID cannot be empty")
	}

	return &BankTransaction{
		BaseEntity:           shared.NewBaseEntity(),
		AccountID:            accountID,
		Direction:            direction,
		Amount:               amount,
		OccurredAt:           occurredAt,
		SourceType:           sourceType,
		SourceID:             sourceID,
		AllowNegativeBalance: allowNegative,
	}, nil
}

// WithCreditLine marks the transaction as a paydown of the given credit line
func (t *BankTransaction) WithCreditLine(creditLineAccountID uuid.UUID) *BankTransaction {
	t.CreditLineAccountID = &creditLineAccountID
	t.Direction = DirectionCreditLinePayment
	return t
}

// WithNotes attaches free-text notes
func (t *BankTransaction) WithNotes(notes string) *BankTransaction {
	t.Notes = notes
	return t
}
