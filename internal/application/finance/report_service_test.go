package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSpendSummaryForPeriod(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("partitions general and invoice spend", func(t *testing.T) {
		expenses := new(MockExpenseRepository)
		invoices := new(MockInvoiceRepository)
		cache := new(MockReportCache)
		svc := NewSpendReportService(expenses, invoices, cache, nil)

		cache.On("GetSummary", mock.Anything, "2026-03-01:2026-03-31").Return(nil, nil)
		// SumUnsettledBetween applies the double-count guard: only
		// expenses without an invoice marker contribute here.
		expenses.On("SumUnsettledBetween", mock.Anything, from, to).Return(decimal.RequireFromString("3250.50"), nil)
		invoices.On("SumPaidBetween", mock.Anything, from, to).Return(decimal.RequireFromString("1200.00"), nil)
		cache.On("SetSummary", mock.Anything, "2026-03-01:2026-03-31", mock.AnythingOfType("*finance.SpendSummary")).Return(nil)

		summary, err := svc.SpendSummaryForPeriod(context.Background(), from, to)
		require.NoError(t, err)

		assert.True(t, summary.GeneralSpend.Equal(decimal.RequireFromString("3250.50")))
		assert.True(t, summary.InvoiceSpend.Equal(decimal.RequireFromString("1200.00")))
		assert.True(t, summary.TotalSpend.Equal(decimal.RequireFromString("4450.50")))
		cache.AssertExpectations(t)
	})

	t.Run("serves cached summary without repo reads", func(t *testing.T) {
		expenses := new(MockExpenseRepository)
		invoices := new(MockInvoiceRepository)
		cache := new(MockReportCache)
		svc := NewSpendReportService(expenses, invoices, cache, nil)

		cached := &SpendSummary{
			From:         from,
			To:           to,
			GeneralSpend: decimal.NewFromInt(100),
			InvoiceSpend: decimal.NewFromInt(200),
			TotalSpend:   decimal.NewFromInt(300),
			GeneratedAt:  time.Now(),
		}
		cache.On("GetSummary", mock.Anything, "2026-03-01:2026-03-31").Return(cached, nil)

		summary, err := svc.SpendSummaryForPeriod(context.Background(), from, to)
		require.NoError(t, err)
		assert.Equal(t, cached, summary)
		expenses.AssertNotCalled(t, "SumUnsettledBetween", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache failure falls back to computing", func(t *testing.T) {
		expenses := new(MockExpenseRepository)
		invoices := new(MockInvoiceRepository)
		cache := new(MockReportCache)
		svc := NewSpendReportService(expenses, invoices, cache, nil)

		cache.On("GetSummary", mock.Anything, mock.Anything).Return(nil, assert.AnError)
		expenses.On("SumUnsettledBetween", mock.Anything, from, to).Return(decimal.NewFromInt(50), nil)
		invoices.On("SumPaidBetween", mock.Anything, from, to).Return(decimal.NewFromInt(10), nil)
		cache.On("SetSummary", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		summary, err := svc.SpendSummaryForPeriod(context.Background(), from, to)
		require.NoError(t, err)
		assert.True(t, summary.TotalSpend.Equal(decimal.NewFromInt(60)))
	})

	t.Run("works without a cache", func(t *testing.T) {
		expenses := new(MockExpenseRepository)
		invoices := new(MockInvoiceRepository)
		svc := NewSpendReportService(expenses, invoices, nil, nil)

		expenses.On("SumUnsettledBetween", mock.Anything, from, to).Return(decimal.NewFromInt(50), nil)
		invoices.On("SumPaidBetween", mock.Anything, from, to).Return(decimal.NewFromInt(10), nil)

		summary, err := svc.SpendSummaryForPeriod(context.Background(), from, to)
		require.NoError(t, err)
		assert.True(t, summary.TotalSpend.Equal(decimal.NewFromInt(60)))
	})

	t.Run("inverted period rejected", func(t *testing.T) {
		svc := NewSpendReportService(new(MockExpenseRepository), new(MockInvoiceRepository), nil, nil)
		_, err := svc.SpendSummaryForPeriod(context.Background(), to, from)
		assert.Error(t, err)
	})
}
