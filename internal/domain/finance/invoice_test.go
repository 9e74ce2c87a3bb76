package finance

import (
	"testing"
	"time"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, amounts ...string) *Invoice {
	t.Helper()
	items := make([]NewInvoiceItemInput, 0, len(amounts))
	for _, a := range amounts {
		items = append(items, NewInvoiceItemInput{
			Description: "Materials line",
			Category:    ExpenseCategoryMaterials,
			Amount:      decimal.RequireFromString(a),
		})
	}
	inv, err := NewInvoice("Apex Steel Supply", "INV-2026-0001",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil, items, nil)
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	validItem := NewInvoiceItemInput{
		Description: "Rebar",
		Category:    ExpenseCategoryMaterials,
		Amount:      decimal.NewFromInt(500),
	}

	tests := []struct {
		name    string
		vendor  string
		number  string
		issued  time.Time
		items   []NewInvoiceItemInput
		links   []NewInvoiceProjectLinkInput
		wantErr bool
	}{
		{
			name:   "valid invoice",
			vendor: "Apex Steel",
			number: "INV-2026-0001",
			issued: issued,
			items:  []NewInvoiceItemInput{validItem},
		},
		{
			name:    "empty vendor",
			vendor:  "   ",
			number:  "INV-2026-0002",
			issued:  issued,
			items:   []NewInvoiceItemInput{validItem},
			wantErr: true,
		},
		{
			name:    "no items",
			vendor:  "Apex Steel",
			number:  "INV-2026-0003",
			issued:  issued,
			items:   nil,
			wantErr: true,
		},
		{
			name:   "item with zero amount",
			vendor: "Apex Steel",
			number: "INV-2026-0004",
			issued: issued,
			items: []NewInvoiceItemInput{{
				Description: "Rebar",
				Category:    ExpenseCategoryMaterials,
				Amount:      decimal.Zero,
			}},
			wantErr: true,
		},
		{
			name:   "project link with nil target",
			vendor: "Apex Steel",
			number: "INV-2026-0005",
			issued: issued,
			items:  []NewInvoiceItemInput{validItem},
			links: []NewInvoiceProjectLinkInput{{
				TargetType: TargetTypeProject,
				TargetID:   uuid.Nil,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := NewInvoice(tt.vendor, tt.number, tt.issued, nil, tt.items, tt.links)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, InvoiceStatusPending, inv.Status)
			assert.True(t, inv.PaidAmount.IsZero())
		})
	}
}

func TestNewInvoice_TotalIsSumOfItems(t *testing.T) {
	inv := newTestInvoice(t, "500.00", "449.99", "250.01")
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("1200.00")),
		"total %s", inv.TotalAmount)
	assert.True(t, inv.RemainingBalance().Equal(inv.TotalAmount))
}

func TestInvoice_ApplySettlement(t *testing.T) {
	paidAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("full settlement marks invoice paid", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")
		startVersion := inv.Version

		err := inv.ApplySettlement(decimal.NewFromInt(700), PaymentMethodCheck, paidAt)
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.RemainingBalance().IsZero())
		require.NotNil(t, inv.LastPaymentAt)
		assert.Equal(t, paidAt, *inv.LastPaymentAt)
		assert.Equal(t, startVersion+1, inv.Version)
	})

	t.Run("partial settlement keeps invoice open", func(t *testing.T) {
		inv := newTestInvoice(t, "1200.00")

		err := inv.ApplySettlement(decimal.NewFromInt(500), PaymentMethodBankTransfer, paidAt)
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.RemainingBalance().Equal(decimal.NewFromInt(700)))
		require.NotNil(t, inv.LastPaymentAt, "partial settlement must record its payment date")
		assert.Equal(t, paidAt, *inv.LastPaymentAt)
	})

	t.Run("settlement within one cent of total closes the invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")

		err := inv.ApplySettlement(decimal.RequireFromString("699.99"), PaymentMethodCheck, paidAt)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("two cents short stays partial", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")

		err := inv.ApplySettlement(decimal.RequireFromString("699.98"), PaymentMethodCheck, paidAt)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")

		err := inv.ApplySettlement(decimal.RequireFromString("700.02"), PaymentMethodCheck, paidAt)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "BALANCE_MISMATCH", domainErr.Code)
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.True(t, inv.PaidAmount.IsZero())
	})

	t.Run("paid invoice refuses further settlement", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")
		require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(700), PaymentMethodCheck, paidAt))

		err := inv.ApplySettlement(decimal.NewFromInt(1), PaymentMethodCash, paidAt)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVOICE_LOCKED", domainErr.Code)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")
		assert.Error(t, inv.ApplySettlement(decimal.Zero, PaymentMethodCheck, paidAt))
		assert.Error(t, inv.ApplySettlement(decimal.NewFromInt(-10), PaymentMethodCheck, paidAt))
	})
}

func TestInvoice_SequentialPartialSettlements(t *testing.T) {
	// The $500 create_general + $700 link_existing sequence on a $1,200
	// invoice: two partials summing to the full total close it.
	paidAt := time.Now()
	inv := newTestInvoice(t, "1200.00")

	require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(500), PaymentMethodCash, paidAt))
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.RemainingBalance().Equal(decimal.NewFromInt(700)))

	require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(700), PaymentMethodCheck, paidAt))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.RemainingBalance().IsZero())
}

func TestInvoice_AddExpenseLink(t *testing.T) {
	inv := newTestInvoice(t, "700.00")
	expenseID := uuid.New()

	require.NoError(t, inv.AddExpenseLink(expenseID, decimal.NewFromInt(700), "absorbed"))
	require.Len(t, inv.ExpenseLinks, 1)
	assert.Equal(t, expenseID, inv.ExpenseLinks[0].ExpenseID)
	assert.Equal(t, []uuid.UUID{expenseID}, inv.LinkedExpenseIDs())

	assert.Error(t, inv.AddExpenseLink(uuid.Nil, decimal.NewFromInt(1), ""))
	assert.Error(t, inv.AddExpenseLink(uuid.New(), decimal.Zero, ""))

	require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(700), PaymentMethodCheck, time.Now()))
	err := inv.AddExpenseLink(uuid.New(), decimal.NewFromInt(1), "")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVOICE_LOCKED", domainErr.Code)
}

func TestInvoice_EnsureDeletable(t *testing.T) {
	inv := newTestInvoice(t, "700.00")
	assert.NoError(t, inv.EnsureDeletable())

	require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(300), PaymentMethodCash, time.Now()))
	assert.NoError(t, inv.EnsureDeletable(), "partially paid invoices can still be deleted")

	require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(400), PaymentMethodCash, time.Now()))
	err := inv.EnsureDeletable()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVOICE_LOCKED", domainErr.Code)
}

func TestInvoice_RefreshOverdue(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	after := due.Add(24 * time.Hour)

	t.Run("pending past due flips to overdue", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")
		inv.DueAt = &due
		inv.RefreshOverdue(after)
		assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	})

	t.Run("partial keeps its status", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")
		inv.DueAt = &due
		require.NoError(t, inv.ApplySettlement(decimal.NewFromInt(100), PaymentMethodCash, time.Now()))
		inv.RefreshOverdue(after)
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
	})

	t.Run("no due date is a no-op", func(t *testing.T) {
		inv := newTestInvoice(t, "700.00")
		inv.RefreshOverdue(after)
		assert.Equal(t, InvoiceStatusPending, inv.Status)
	})
}

func TestInvoiceStatus_CanSettle(t *testing.T) {
	assert.True(t, InvoiceStatusPending.CanSettle())
	assert.True(t, InvoiceStatusPartial.CanSettle())
	assert.True(t, InvoiceStatusOverdue.CanSettle())
	assert.False(t, InvoiceStatusPaid.CanSettle())
}
