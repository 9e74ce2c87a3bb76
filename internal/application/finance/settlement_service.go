package finance

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/buildledger/backend/internal/domain/project"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/domain/shared/valueobject"
	"github.com/buildledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptStorage uploads receipt documents and returns their public URL.
// Implemented by the infrastructure layer (S3-compatible object storage).
type ReceiptStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) (string, error)
}

// allowedReceiptTypes is the whitelist of receipt upload content types
var allowedReceiptTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// SettlementService reconciles vendor invoices against the expense ledger.
// A settlement applies exactly one strategy, moves the invoice's paid
// amount, and records the bank side effect, all in one unit of work.
type SettlementService struct {
	uow            finance.UnitOfWork
	projectRepo    project.Repository
	subProjectRepo project.SubProjectRepository
	receipts       ReceiptStorage
	cache          ReportCache
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	uow finance.UnitOfWork,
	projectRepo project.Repository,
	subProjectRepo project.SubProjectRepository,
	receipts ReceiptStorage,
	cache ReportCache,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		uow:            uow,
		projectRepo:    projectRepo,
		subProjectRepo: subProjectRepo,
		receipts:       receipts,
		cache:          cache,
		logger:         logger,
	}
}

// DistributionLineRequest is one line of a cost distribution
type DistributionLineRequest struct {
	TargetID uuid.UUID       `json:"target_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Note     string          `json:"note"`
}

// ReceiptUpload carries an optional receipt document for the settlement
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SettleInvoiceRequest represents a request to settle an invoice balance
type SettleInvoiceRequest struct {
	InvoiceID     uuid.UUID                 `json:"-"`
	Strategy      string                    `json:"strategy" binding:"required"`
	PaymentMethod string                    `json:"payment_method" binding:"required"`
	PaymentDate   time.Time                 `json:"payment_date" binding:"required"`
	ExpenseIDs    []uuid.UUID               `json:"expense_ids,omitempty"`  // link_existing only
	Distribution  []DistributionLineRequest `json:"distribution,omitempty"` // create_with_* only
	// Amount optionally limits a create_general settlement to a partial
	// payment; it defaults to the full remaining balance.
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Note    string           `json:"note"`
	Receipt *ReceiptUpload   `json:"-"` // From multipart, not JSON
}

// SettlementResult represents the outcome of a settlement
type SettlementResult struct {
	Invoice           *InvoiceResponse `json:"invoice"`
	CreatedExpenseIDs []uuid.UUID      `json:"created_expense_ids"`
	LinkedExpenseIDs  []uuid.UUID      `json:"linked_expense_ids"`
	BankTransactionID *uuid.UUID       `json:"bank_transaction_id,omitempty"`
}

// SettleInvoice applies one settlement strategy to the invoice's remaining
// balance. The strategy's ledger writes, the invoice update and the bank
// side effect commit atomically; concurrent settlements of the same invoice
// are serialized by the invoice's optimistic version.
func (s *SettlementService) SettleInvoice(ctx context.Context, req SettleInvoiceRequest) (*SettlementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle_invoice")
	defer span.End()
	telemetry.SetAttribute(span, "invoice_id", req.InvoiceID.String())
	telemetry.SetAttribute(span, "strategy", req.Strategy)

	strategy := finance.SettlementStrategy(req.Strategy)
	if !strategy.IsValid() {
		err := shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown settlement strategy %q", req.Strategy))
		telemetry.RecordError(span, err)
		return nil, err
	}
	method := finance.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		err := shared.NewDomainError("VALIDATION", fmt.Sprintf("Unknown payment method %q", req.PaymentMethod))
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.PaymentDate.IsZero() {
		err := shared.NewDomainError("VALIDATION", "Payment date is required")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := validateStrategyArgs(strategy, req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// The receipt goes to object storage before the transaction opens; a
	// failed upload aborts the settlement before any ledger write.
	receiptURL, receiptKey, err := s.uploadReceipt(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &SettlementResult{
		CreatedExpenseIDs: make([]uuid.UUID, 0),
		LinkedExpenseIDs:  make([]uuid.UUID, 0),
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos finance.Repositories) error {
		invoice, err := repos.Invoices.FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if !invoice.Status.CanSettle() {
			return shared.NewDomainError("INVOICE_LOCKED",
				fmt.Sprintf("Invoice %s is already paid", invoice.InvoiceNumber)).
				WithDetail("invoice_id", invoice.ID.String())
		}

		remaining := invoice.RemainingBalance()
		telemetry.SetAttribute(span, "remaining_balance", remaining.StringFixed(2))

		var applied decimal.Decimal
		switch strategy {
		case finance.StrategyLinkExisting:
			applied, err = s.linkExisting(ctx, repos, invoice, req, remaining)
		case finance.StrategyCreateWithProjects, finance.StrategyCreateWithSubProjects:
			applied, err = s.createDistributed(ctx, repos, invoice, req, strategy, remaining, receiptURL, receiptKey, result)
		case finance.StrategyCreateGeneral:
			applied, err = s.createGeneral(ctx, repos, invoice, req, remaining, receiptURL, receiptKey, result)
		}
		if err != nil {
			return err
		}
		if strategy == finance.StrategyLinkExisting {
			result.LinkedExpenseIDs = req.ExpenseIDs
		}

		if receiptURL != "" {
			if err := invoice.AttachReceipt(receiptURL, receiptKey); err != nil {
				return err
			}
		}
		if err := invoice.ApplySettlement(applied, method, req.PaymentDate); err != nil {
			return err
		}

		bankTxID, err := s.recordBankEffect(ctx, repos, invoice, applied, method, req.PaymentDate)
		if err != nil {
			return err
		}
		result.BankTransactionID = bankTxID

		if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
			return err
		}
		result.Invoice = toInvoiceResponse(invoice)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("spend summary cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("invoice settled",
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("strategy", req.Strategy),
		zap.String("status", result.Invoice.Status),
		zap.Int("created_expenses", len(result.CreatedExpenseIDs)),
		zap.Int("linked_expenses", len(result.LinkedExpenseIDs)),
	)

	return result, nil
}

// validateStrategyArgs rejects strategy argument combinations up front:
// exactly the arguments the chosen strategy needs, nothing else.
func validateStrategyArgs(strategy finance.SettlementStrategy, req SettleInvoiceRequest) error {
	switch strategy {
	case finance.StrategyLinkExisting:
		if len(req.ExpenseIDs) == 0 {
			return shared.NewDomainError("VALIDATION", "link_existing requires at least one expense ID")
		}
		if len(req.Distribution) > 0 {
			return shared.NewDomainError("VALIDATION", "link_existing does not accept a cost distribution")
		}
	case finance.StrategyCreateWithProjects, finance.StrategyCreateWithSubProjects:
		if len(req.Distribution) == 0 {
			return shared.NewDomainError("VALIDATION",
				fmt.Sprintf("%s requires a cost distribution", strategy))
		}
		if len(req.ExpenseIDs) > 0 {
			return shared.NewDomainError("VALIDATION",
				fmt.Sprintf("%s does not accept expense IDs", strategy))
		}
	case finance.StrategyCreateGeneral:
		if len(req.ExpenseIDs) > 0 || len(req.Distribution) > 0 {
			return shared.NewDomainError("VALIDATION", "create_general does not accept expense IDs or a distribution")
		}
	}
	return nil
}

// linkExisting absorbs pre-existing unpaid expenses covering the entire
// remaining balance
func (s *SettlementService) linkExisting(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	req SettleInvoiceRequest,
	remaining decimal.Decimal,
) (decimal.Decimal, error) {
	expenses, err := repos.Expenses.FindByIDs(ctx, req.ExpenseIDs)
	if err != nil {
		return decimal.Zero, err
	}
	if err := finance.ValidateLinkedExpenses(expenses, remaining); err != nil {
		return decimal.Zero, err
	}

	applied := decimal.Zero
	for _, e := range expenses {
		if err := e.MarkPaidViaInvoice(invoice.ID, req.PaymentDate); err != nil {
			return decimal.Zero, err
		}
		if err := repos.Expenses.SaveWithLock(ctx, e); err != nil {
			return decimal.Zero, err
		}
		if err := invoice.AddExpenseLink(e.ID, e.Amount, req.Note); err != nil {
			return decimal.Zero, err
		}
		applied = applied.Add(e.Amount)
	}
	return applied, nil
}

// createDistributed spawns one paid expense per distribution line, each
// attributed to its project or sub-project target
func (s *SettlementService) createDistributed(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	req SettleInvoiceRequest,
	strategy finance.SettlementStrategy,
	remaining decimal.Decimal,
	receiptURL, receiptKey string,
	result *SettlementResult,
) (decimal.Decimal, error) {
	lines := make([]finance.DistributionLine, 0, len(req.Distribution))
	for _, l := range req.Distribution {
		lines = append(lines, finance.DistributionLine{
			TargetID: l.TargetID,
			Amount:   l.Amount,
			Note:     l.Note,
		})
	}
	if err := finance.ValidateDistribution(lines, remaining); err != nil {
		return decimal.Zero, err
	}
	if err := s.ensureTargetsExist(ctx, strategy, lines); err != nil {
		return decimal.Zero, err
	}

	applied := decimal.Zero
	for _, line := range lines {
		var projectID, subProjectID *uuid.UUID
		if strategy == finance.StrategyCreateWithProjects {
			id := line.TargetID
			projectID = &id
		} else {
			id := line.TargetID
			subProjectID = &id
		}

		description := line.Note
		if description == "" {
			description = fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNumber, invoice.Vendor)
		}

		expense, err := s.spawnPaidExpense(ctx, repos, invoice, req, description, line.Amount, projectID, subProjectID, receiptURL, receiptKey)
		if err != nil {
			return decimal.Zero, err
		}
		result.CreatedExpenseIDs = append(result.CreatedExpenseIDs, expense.ID)
		applied = applied.Add(line.Amount)
	}
	return applied, nil
}

// createGeneral spawns a single untargeted paid expense. By default it
// covers the full remaining balance; a smaller explicit amount makes a
// partial settlement.
func (s *SettlementService) createGeneral(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	req SettleInvoiceRequest,
	remaining decimal.Decimal,
	receiptURL, receiptKey string,
	result *SettlementResult,
) (decimal.Decimal, error) {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("VALIDATION", "Invoice has no remaining balance to settle")
	}

	amount := remaining
	if req.Amount != nil {
		amount = *req.Amount
		if amount.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, shared.NewDomainError("VALIDATION", "Settlement amount must be positive")
		}
		if valueobject.AmountGreaterThan(amount, remaining) {
			return decimal.Zero, shared.NewDomainError("BALANCE_MISMATCH",
				fmt.Sprintf("Settlement of %s exceeds the remaining balance %s",
					amount.StringFixed(2), remaining.StringFixed(2))).
				WithDetail("supplied_total", amount.StringFixed(2)).
				WithDetail("remaining_balance", remaining.StringFixed(2))
		}
	}

	description := req.Note
	if description == "" {
		description = fmt.Sprintf("Invoice %s from %s", invoice.InvoiceNumber, invoice.Vendor)
	}

	expense, err := s.spawnPaidExpense(ctx, repos, invoice, req, description, amount, nil, nil, receiptURL, receiptKey)
	if err != nil {
		return decimal.Zero, err
	}
	result.CreatedExpenseIDs = append(result.CreatedExpenseIDs, expense.ID)
	return amount, nil
}

func (s *SettlementService) spawnPaidExpense(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	req SettleInvoiceRequest,
	description string,
	amount decimal.Decimal,
	projectID, subProjectID *uuid.UUID,
	receiptURL, receiptKey string,
) (*finance.Expense, error) {
	number, err := repos.Expenses.GenerateExpenseNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate expense number: %w", err)
	}

	expense, err := finance.NewExpensePaidBySettlement(
		number,
		description,
		finance.ExpenseCategoryOther,
		amount,
		invoice.Vendor,
		req.PaymentDate,
		projectID,
		subProjectID,
		invoice.ID,
		finance.PaymentMethod(req.PaymentMethod),
	)
	if err != nil {
		return nil, err
	}
	if receiptURL != "" {
		expense.AttachReceipt(receiptURL, receiptKey)
	}
	if err := repos.Expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	if err := invoice.AddExpenseLink(expense.ID, amount, description); err != nil {
		return nil, err
	}
	return expense, nil
}

// ensureTargetsExist verifies every distribution target against the project
// catalog. Targets only have to exist; membership in the invoice's declared
// project links is not enforced.
func (s *SettlementService) ensureTargetsExist(
	ctx context.Context,
	strategy finance.SettlementStrategy,
	lines []finance.DistributionLine,
) error {
	for _, line := range lines {
		var (
			exists bool
			err    error
		)
		if strategy == finance.StrategyCreateWithProjects {
			exists, err = s.projectRepo.Exists(ctx, line.TargetID)
		} else {
			exists, err = s.subProjectRepo.Exists(ctx, line.TargetID)
		}
		if err != nil {
			return err
		}
		if !exists {
			return shared.NewDomainError("NOT_FOUND",
				fmt.Sprintf("Distribution target %s does not exist", line.TargetID)).
				WithDetail("target_type", string(strategy.TargetType()))
		}
	}
	return nil
}

// recordBankEffect writes the bank ledger row for a settlement. Payment
// methods not mapped to any tracked account skip the write. A vendor whose
// normalized name matches an active credit-line account turns the payment
// into a paydown of that line.
func (s *SettlementService) recordBankEffect(
	ctx context.Context,
	repos finance.Repositories,
	invoice *finance.Invoice,
	amount decimal.Decimal,
	method finance.PaymentMethod,
	paidAt time.Time,
) (*uuid.UUID, error) {
	account, err := repos.Accounts.ResolveByPaymentMethod(ctx, method)
	if err != nil {
		return nil, err
	}
	if account == nil {
		s.logger.Debug("payment method not mapped to a funding account, skipping bank ledger",
			zap.String("method", method.String()))
		return nil, nil
	}

	// Vendor payments may legitimately overdraw: the deposit recording can
	// lag the payment.
	if err := account.ApplyWithdrawal(amount, true); err != nil {
		return nil, err
	}

	tx, err := finance.NewBankTransaction(
		account.ID,
		finance.DirectionWithdrawal,
		amount,
		paidAt,
		finance.TransactionSourceInvoice,
		invoice.ID,
		true,
	)
	if err != nil {
		return nil, err
	}
	tx.WithNotes(fmt.Sprintf("Settlement of invoice %s (%s)", invoice.InvoiceNumber, invoice.Vendor))

	creditLine, err := repos.Accounts.FindCreditLineByVendor(ctx, invoice.Vendor)
	if err != nil {
		return nil, err
	}
	if creditLine != nil {
		if err := creditLine.ReceiveCreditPayment(amount); err != nil {
			return nil, err
		}
		if err := repos.Accounts.SaveWithLock(ctx, creditLine); err != nil {
			return nil, err
		}
		tx.WithCreditLine(creditLine.ID)
	}

	if err := repos.BankTransactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
		return nil, err
	}

	return &tx.ID, nil
}

// uploadReceipt stores the optional receipt document and returns its URL
// and storage key
func (s *SettlementService) uploadReceipt(ctx context.Context, req SettleInvoiceRequest) (string, string, error) {
	if req.Receipt == nil {
		return "", "", nil
	}
	if s.receipts == nil {
		return "", "", shared.NewDomainError("VALIDATION", "Receipt uploads are not configured")
	}
	if len(req.Receipt.Data) == 0 {
		return "", "", shared.NewDomainError("VALIDATION", "Receipt file is empty")
	}

	ext, ok := allowedReceiptTypes[req.Receipt.ContentType]
	if !ok {
		return "", "", shared.NewDomainError("VALIDATION",
			fmt.Sprintf("Receipt content type %q is not allowed", req.Receipt.ContentType))
	}
	if fileExt := strings.ToLower(filepath.Ext(req.Receipt.Filename)); fileExt != "" {
		ext = fileExt
	}

	storageKey := fmt.Sprintf("receipts/invoices/%s/%s%s", req.InvoiceID, uuid.New(), ext)
	url, err := s.receipts.Upload(ctx, storageKey, req.Receipt.Data, req.Receipt.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	return url, storageKey, nil
}
