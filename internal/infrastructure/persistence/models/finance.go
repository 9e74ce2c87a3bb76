package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethodList stores the payment methods a funding account handles
// as a JSON array column.
type PaymentMethodList []finance.PaymentMethod

// Value implements driver.Valuer
func (l PaymentMethodList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *PaymentMethodList) Scan(value any) error {
	if value == nil {
		*l = PaymentMethodList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for PaymentMethodList: %T", value)
	}
	return json.Unmarshal(data, l)
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Vendor        string                 `gorm:"type:varchar(200);not null;index"`
	IssuedAt      time.Time              `gorm:"not null;index"`
	DueAt         *time.Time             `gorm:"index"`
	TotalAmount   decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status        finance.InvoiceStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentMethod *finance.PaymentMethod `gorm:"type:varchar(30)"`
	LastPaymentAt *time.Time             `gorm:"index"`
	ReceiptURL    string                 `gorm:"type:varchar(500)"`
	ReceiptKey    string                 `gorm:"type:varchar(300)"`
	Notes         string                 `gorm:"type:text"`

	Items        []InvoiceItemModel        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	ProjectLinks []InvoiceProjectLinkModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	ExpenseLinks []InvoiceExpenseLinkModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is the persistence model for a declared cost line.
type InvoiceItemModel struct {
	ID                 uuid.UUID               `gorm:"type:uuid;primary_key"`
	InvoiceID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	Description        string                  `gorm:"type:varchar(500);not null"`
	Category           finance.ExpenseCategory `gorm:"type:varchar(30);not null"`
	Amount             decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	ProjectID          *uuid.UUID              `gorm:"type:uuid;index"`
	SubProjectID       *uuid.UUID              `gorm:"type:uuid;index"`
	ExpenseID          *uuid.UUID              `gorm:"type:uuid;index"`
	RecurringExpenseID *uuid.UUID              `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// InvoiceProjectLinkModel is the persistence model for an ingestion-time
// project target declaration.
type InvoiceProjectLinkModel struct {
	ID         uuid.UUID                    `gorm:"type:uuid;primary_key"`
	InvoiceID  uuid.UUID                    `gorm:"type:uuid;not null;index"`
	TargetType finance.SettlementTargetType `gorm:"type:varchar(20);not null"`
	TargetID   uuid.UUID                    `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceProjectLinkModel) TableName() string {
	return "invoice_project_links"
}

// InvoiceExpenseLinkModel is the persistence model for the immutable tie
// between an invoice and an expense ledger entry.
type InvoiceExpenseLinkModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExpenseID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountApplied decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Notes         string          `gorm:"type:varchar(500)"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceExpenseLinkModel) TableName() string {
	return "invoice_expense_links"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		Vendor:        m.Vendor,
		IssuedAt:      m.IssuedAt,
		DueAt:         m.DueAt,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		Status:        m.Status,
		PaymentMethod: m.PaymentMethod,
		LastPaymentAt: m.LastPaymentAt,
		ReceiptURL:    m.ReceiptURL,
		ReceiptKey:    m.ReceiptKey,
		Notes:         m.Notes,
	}
	m.PopulateAggregateRoot(&inv.BaseAggregateRoot)

	inv.Items = make([]finance.InvoiceItem, len(m.Items))
	for i, item := range m.Items {
		inv.Items[i] = finance.InvoiceItem{
			ID:                 item.ID,
			InvoiceID:          item.InvoiceID,
			Description:        item.Description,
			Category:           item.Category,
			Amount:             item.Amount,
			ProjectID:          item.ProjectID,
			SubProjectID:       item.SubProjectID,
			ExpenseID:          item.ExpenseID,
			RecurringExpenseID: item.RecurringExpenseID,
		}
	}
	inv.ProjectLinks = make([]finance.InvoiceProjectLink, len(m.ProjectLinks))
	for i, link := range m.ProjectLinks {
		inv.ProjectLinks[i] = finance.InvoiceProjectLink{
			ID:         link.ID,
			InvoiceID:  link.InvoiceID,
			TargetType: link.TargetType,
			TargetID:   link.TargetID,
		}
	}
	inv.ExpenseLinks = make([]finance.InvoiceExpenseLink, len(m.ExpenseLinks))
	for i, link := range m.ExpenseLinks {
		inv.ExpenseLinks[i] = finance.InvoiceExpenseLink{
			ID:            link.ID,
			InvoiceID:     link.InvoiceID,
			ExpenseID:     link.ExpenseID,
			AmountApplied: link.AmountApplied,
			Notes:         link.Notes,
			CreatedAt:     link.CreatedAt,
		}
	}

	return inv
}

// InvoiceModelFromDomain builds the persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber: inv.InvoiceNumber,
		Vendor:        inv.Vendor,
		IssuedAt:      inv.IssuedAt,
		DueAt:         inv.DueAt,
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		Status:        inv.Status,
		PaymentMethod: inv.PaymentMethod,
		LastPaymentAt: inv.LastPaymentAt,
		ReceiptURL:    inv.ReceiptURL,
		ReceiptKey:    inv.ReceiptKey,
		Notes:         inv.Notes,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModel{
			ID:                 item.ID,
			InvoiceID:          item.InvoiceID,
			Description:        item.Description,
			Category:           item.Category,
			Amount:             item.Amount,
			ProjectID:          item.ProjectID,
			SubProjectID:       item.SubProjectID,
			ExpenseID:          item.ExpenseID,
			RecurringExpenseID: item.RecurringExpenseID,
		}
	}
	m.ProjectLinks = make([]InvoiceProjectLinkModel, len(inv.ProjectLinks))
	for i, link := range inv.ProjectLinks {
		m.ProjectLinks[i] = InvoiceProjectLinkModel{
			ID:         link.ID,
			InvoiceID:  link.InvoiceID,
			TargetType: link.TargetType,
			TargetID:   link.TargetID,
		}
	}
	m.ExpenseLinks = make([]InvoiceExpenseLinkModel, len(inv.ExpenseLinks))
	for i, link := range inv.ExpenseLinks {
		m.ExpenseLinks[i] = InvoiceExpenseLinkModel{
			ID:            link.ID,
			InvoiceID:     link.InvoiceID,
			ExpenseID:     link.ExpenseID,
			AmountApplied: link.AmountApplied,
			Notes:         link.Notes,
			CreatedAt:     link.CreatedAt,
		}
	}

	return m
}

// ExpenseModel is the persistence model for the Expense aggregate root.
type ExpenseModel struct {
	AggregateModel
	ExpenseNumber      string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Description        string                       `gorm:"type:varchar(500);not null"`
	Category           finance.ExpenseCategory      `gorm:"type:varchar(30);not null;index"`
	Amount             decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Vendor             string                       `gorm:"type:varchar(200);index"`
	IncurredAt         time.Time                    `gorm:"not null;index"`
	ProjectID          *uuid.UUID                   `gorm:"type:uuid;index"`
	SubProjectID       *uuid.UUID                   `gorm:"type:uuid;index"`
	PaymentStatus      finance.ExpensePaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	PaymentMethod      *finance.PaymentMethod       `gorm:"type:varchar(30)"`
	PaidAt             *time.Time
	SettledByInvoiceID *uuid.UUID `gorm:"type:uuid;index"`
	ReceiptURL         string     `gorm:"type:varchar(500)"`
	ReceiptKey         string     `gorm:"type:varchar(300)"`
	Notes              string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense aggregate.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	e := &finance.Expense{
		ExpenseNumber:      m.ExpenseNumber,
		Description:        m.Description,
		Category:           m.Category,
		Amount:             m.Amount,
		Vendor:             m.Vendor,
		IncurredAt:         m.IncurredAt,
		ProjectID:          m.ProjectID,
		SubProjectID:       m.SubProjectID,
		PaymentStatus:      m.PaymentStatus,
		PaymentMethod:      m.PaymentMethod,
		PaidAt:             m.PaidAt,
		SettledByInvoiceID: m.SettledByInvoiceID,
		ReceiptURL:         m.ReceiptURL,
		ReceiptKey:         m.ReceiptKey,
		Notes:              m.Notes,
	}
	m.PopulateAggregateRoot(&e.BaseAggregateRoot)
	return e
}

// ExpenseModelFromDomain builds the persistence model from a domain Expense.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		ExpenseNumber:      e.ExpenseNumber,
		Description:        e.Description,
		Category:           e.Category,
		Amount:             e.Amount,
		Vendor:             e.Vendor,
		IncurredAt:         e.IncurredAt,
		ProjectID:          e.ProjectID,
		SubProjectID:       e.SubProjectID,
		PaymentStatus:      e.PaymentStatus,
		PaymentMethod:      e.PaymentMethod,
		PaidAt:             e.PaidAt,
		SettledByInvoiceID: e.SettledByInvoiceID,
		ReceiptURL:         e.ReceiptURL,
		ReceiptKey:         e.ReceiptKey,
		Notes:              e.Notes,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}

// RecurringExpenseModel is the persistence model for a recurring-expense
// occurrence.
type RecurringExpenseModel struct {
	AggregateModel
	Description        string                       `gorm:"type:varchar(500);not null"`
	Category           finance.ExpenseCategory      `gorm:"type:varchar(30);not null;index"`
	Amount             decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Vendor             string                       `gorm:"type:varchar(200);index"`
	DueDay             int                          `gorm:"not null"`
	PeriodStart        time.Time                    `gorm:"not null;index"`
	ProjectID          *uuid.UUID                   `gorm:"type:uuid;index"`
	PaymentStatus      finance.ExpensePaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	PaymentMethod      *finance.PaymentMethod       `gorm:"type:varchar(30)"`
	PaidAt             *time.Time
	SettledByInvoiceID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (RecurringExpenseModel) TableName() string {
	return "recurring_expenses"
}

// ToDomain converts the persistence model to a domain RecurringExpense.
func (m *RecurringExpenseModel) ToDomain() *finance.RecurringExpense {
	r := &finance.RecurringExpense{
		Description:        m.Description,
		Category:           m.Category,
		Amount:             m.Amount,
		Vendor:             m.Vendor,
		DueDay:             m.DueDay,
		PeriodStart:        m.PeriodStart,
		ProjectID:          m.ProjectID,
		PaymentStatus:      m.PaymentStatus,
		PaymentMethod:      m.PaymentMethod,
		PaidAt:             m.PaidAt,
		SettledByInvoiceID: m.SettledByInvoiceID,
	}
	m.PopulateAggregateRoot(&r.BaseAggregateRoot)
	return r
}

// RecurringExpenseModelFromDomain builds the persistence model from a domain
// RecurringExpense.
func RecurringExpenseModelFromDomain(r *finance.RecurringExpense) *RecurringExpenseModel {
	m := &RecurringExpenseModel{
		Description:        r.Description,
		Category:           r.Category,
		Amount:             r.Amount,
		Vendor:             r.Vendor,
		DueDay:             r.DueDay,
		PeriodStart:        r.PeriodStart,
		ProjectID:          r.ProjectID,
		PaymentStatus:      r.PaymentStatus,
		PaymentMethod:      r.PaymentMethod,
		PaidAt:             r.PaidAt,
		SettledByInvoiceID: r.SettledByInvoiceID,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// FundingAccountModel is the persistence model for the FundingAccount
// aggregate root.
type FundingAccountModel struct {
	AggregateModel
	Name           string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	Kind           finance.AccountKind `gorm:"type:varchar(20);not null;index"`
	Balance        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaymentMethods PaymentMethodList   `gorm:"type:text"`
	Active         bool                `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (FundingAccountModel) TableName() string {
	return "funding_accounts"
}

// ToDomain converts the persistence model to a domain FundingAccount.
func (m *FundingAccountModel) ToDomain() *finance.FundingAccount {
	a := &finance.FundingAccount{
		Name:           m.Name,
		Kind:           m.Kind,
		Balance:        m.Balance,
		PaymentMethods: []finance.PaymentMethod(m.PaymentMethods),
		Active:         m.Active,
	}
	m.PopulateAggregateRoot(&a.BaseAggregateRoot)
	return a
}

// FundingAccountModelFromDomain builds the persistence model from a domain
// FundingAccount.
func FundingAccountModelFromDomain(a *finance.FundingAccount) *FundingAccountModel {
	m := &FundingAccountModel{
		Name:           a.Name,
		Kind:           a.Kind,
		Balance:        a.Balance,
		PaymentMethods: PaymentMethodList(a.PaymentMethods),
		Active:         a.Active,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// BankTransactionModel is the persistence model for an append-only bank
// ledger row.
type BankTransactionModel struct {
	BaseModel
	AccountID            uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Direction            finance.TransactionDirection  `gorm:"type:varchar(30);not null;index"`
	Amount               decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	OccurredAt           time.Time                     `gorm:"not null;index"`
	SourceType           finance.TransactionSourceType `gorm:"type:varchar(20);not null;index"`
	SourceID             uuid.UUID                     `gorm:"type:uuid;not null;index"`
	CreditLineAccountID  *uuid.UUID                    `gorm:"type:uuid;index"`
	AllowNegativeBalance bool                          `gorm:"not null;default:false"`
	Notes                string                        `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain BankTransaction.
func (m *BankTransactionModel) ToDomain() *finance.BankTransaction {
	return &finance.BankTransaction{
		BaseEntity:           m.BaseModel.ToDomain(),
		AccountID:            m.AccountID,
		Direction:            m.Direction,
		Amount:               m.Amount,
		OccurredAt:           m.OccurredAt,
		SourceType:           m.SourceType,
		SourceID:             m.SourceID,
		CreditLineAccountID:  m.CreditLineAccountID,
		AllowNegativeBalance: m.AllowNegativeBalance,
		Notes:                m.Notes,
	}
}

// BankTransactionModelFromDomain builds the persistence model from a domain
// BankTransaction.
func BankTransactionModelFromDomain(t *finance.BankTransaction) *BankTransactionModel {
	m := &BankTransactionModel{
		AccountID:            t.AccountID,
		Direction:            t.Direction,
		Amount:               t.Amount,
		OccurredAt:           t.OccurredAt,
		SourceType:           t.SourceType,
		SourceID:             t.SourceID,
		CreditLineAccountID:  t.CreditLineAccountID,
		AllowNegativeBalance: t.AllowNegativeBalance,
		Notes:                t.Notes,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
