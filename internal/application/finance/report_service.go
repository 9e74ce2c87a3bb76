package finance

import (
	"context"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportCache caches computed spend summaries. A miss returns (nil, nil).
// Implemented by the redis cache in the infrastructure layer.
type ReportCache interface {
	GetSummary(ctx context.Context, key string) (*SpendSummary, error)
	SetSummary(ctx context.Context, key string, summary *SpendSummary) error
	Invalidate(ctx context.Context) error
}

// SpendSummary is the period spend report. GeneralSpend and InvoiceSpend
// partition the period's money: an expense settled via an invoice is
// counted once, inside the invoice term, never in both.
type SpendSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	GeneralSpend decimal.Decimal `json:"general_spend"`
	InvoiceSpend decimal.Decimal `json:"invoice_spend"`
	TotalSpend   decimal.Decimal `json:"total_spend"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// SpendReportService computes read-only spend reports over the expense
// ledger and the invoice book
type SpendReportService struct {
	expenseRepo finance.ExpenseRepository
	invoiceRepo finance.InvoiceRepository
	cache       ReportCache
	logger      *zap.Logger
}

// NewSpendReportService creates a new SpendReportService
func NewSpendReportService(
	expenseRepo finance.ExpenseRepository,
	invoiceRepo finance.InvoiceRepository,
	cache ReportCache,
	logger *zap.Logger,
) *SpendReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpendReportService{
		expenseRepo: expenseRepo,
		invoiceRepo: invoiceRepo,
		cache:       cache,
		logger:      logger,
	}
}

// SpendSummaryForPeriod computes the spend summary for [from, to]. General
// spend sums only expenses without an invoice marker; spend that went
// through an invoice is represented by the invoices' paid amounts,
// attributed to the window of their most recent payment. A partially
// settled invoice counts as soon as its first payment lands.
func (s *SpendReportService) SpendSummaryForPeriod(ctx context.Context, from, to time.Time) (*SpendSummary, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError("VALIDATION", "Report period end must be after its start")
	}

	cacheKey := from.Format("2006-01-02") + ":" + to.Format("2006-01-02")
	if s.cache != nil {
		if cached, err := s.cache.GetSummary(ctx, cacheKey); err != nil {
			s.logger.Warn("spend summary cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	generalSpend, err := s.expenseRepo.SumUnsettledBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	invoiceSpend, err := s.invoiceRepo.SumPaidBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &SpendSummary{
		From:         from,
		To:           to,
		GeneralSpend: generalSpend,
		InvoiceSpend: invoiceSpend,
		TotalSpend:   generalSpend.Add(invoiceSpend),
		GeneratedAt:  time.Now(),
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, cacheKey, summary); err != nil {
			s.logger.Warn("spend summary cache write failed", zap.Error(err))
		}
	}

	return summary, nil
}
