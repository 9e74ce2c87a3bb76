package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/buildledger/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredTransaction(t *testing.T, repo *GormBankTransactionRepository, accountID, sourceID uuid.UUID, amount string, occurredAt time.Time) *finance.BankTransaction {
	t.Helper()

	tx, err := finance.NewBankTransaction(accountID, finance.DirectionWithdrawal,
		decimal.RequireFromString(amount), occurredAt, finance.TransactionSourceInvoice, sourceID, false)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestGormBankTransactionRepository_FindByAccount(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBankTransactionRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	otherAccountID := uuid.New()
	base := time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)

	newStoredTransaction(t, repo, accountID, uuid.New(), "1200.00", base)
	newStoredTransaction(t, repo, accountID, uuid.New(), "300.00", base.Add(48*time.Hour))
	newStoredTransaction(t, repo, otherAccountID, uuid.New(), "55.00", base)
	newStoredTransaction(t, repo, accountID, uuid.New(), "999.00", base.AddDate(0, 2, 0))

	from := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 8, 31, 23, 59, 59, 0, time.UTC)

	txs, err := repo.FindByAccount(ctx, accountID, from, to)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	// Newest first
	assert.True(t, txs[0].OccurredAt.After(txs[1].OccurredAt))
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("300.00")))
}

func TestGormBankTransactionRepository_FindBySource(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBankTransactionRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	invoiceID := uuid.New()
	now := time.Now()

	stored := newStoredTransaction(t, repo, accountID, invoiceID, "1200.00", now)
	newStoredTransaction(t, repo, accountID, uuid.New(), "77.00", now)

	txs, err := repo.FindBySource(ctx, finance.TransactionSourceInvoice, invoiceID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, stored.ID, txs[0].ID)
	assert.Equal(t, finance.DirectionWithdrawal, txs[0].Direction)
	assert.Equal(t, invoiceID, txs[0].SourceID)
}
