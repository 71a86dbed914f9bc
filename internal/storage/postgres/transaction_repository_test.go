package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
)

func TestTransactionRepository_Create(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTransactionRepository(mockPool)
	now := time.Now()

	mockPool.ExpectQuery("INSERT INTO transactions").
		WithArgs("TXN_1", "ACC-1", "ACC-2", int64(10050), models.TransactionPending, models.ClearingPending).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(7), now, now))

	txn := &models.Transaction{
		TransactionID:  "TXN_1",
		FromAccountID:  "ACC-1",
		ToAccountID:    "ACC-2",
		Amount:         10050,
		Status:         models.TransactionPending,
		ClearingStatus: models.ClearingPending,
	}
	err = repo.Create(context.Background(), txn)

	require.NoError(t, err)
	assert.Equal(t, int64(7), txn.ID)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestTransactionRepository_Create_Duplicate(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTransactionRepository(mockPool)

	mockPool.ExpectQuery("INSERT INTO transactions").
		WithArgs("TXN_1", "ACC-1", "ACC-2", int64(10050), models.TransactionPending, models.ClearingPending).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), &models.Transaction{
		TransactionID:  "TXN_1",
		FromAccountID:  "ACC-1",
		ToAccountID:    "ACC-2",
		Amount:         10050,
		Status:         models.TransactionPending,
		ClearingStatus: models.ClearingPending,
	})

	assert.ErrorIs(t, err, custom_err.ErrDuplicateRequest)
}

func TestTransactionRepository_GetByTransactionID(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTransactionRepository(mockPool)
	now := time.Now()
	fromAfter := int64(7000)
	toAfter := int64(3500)

	mockPool.ExpectQuery("SELECT id, transaction_id").
		WithArgs("TXN_1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "transaction_id", "from_account_id", "to_account_id", "amount",
			"status", "clearing_status", "from_balance_after", "to_balance_after",
			"error_message", "created_at", "updated_at",
		}).AddRow(
			int64(7), "TXN_1", "ACC-1", "ACC-2", int64(10050),
			models.TransactionSuccess, models.ClearingSuccess, &fromAfter, &toAfter,
			"", now, now,
		))

	txn, err := repo.GetByTransactionID(context.Background(), "TXN_1")

	require.NoError(t, err)
	assert.Equal(t, models.TransactionSuccess, txn.Status)
	require.NotNil(t, txn.FromBalanceAfter)
	assert.Equal(t, int64(7000), *txn.FromBalanceAfter)
}

func TestTransactionRepository_GetByTransactionID_NotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTransactionRepository(mockPool)

	mockPool.ExpectQuery("SELECT id, transaction_id").
		WithArgs("TXN_404").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.GetByTransactionID(context.Background(), "TXN_404")

	assert.ErrorIs(t, err, custom_err.ErrNotFound)
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewTransactionRepository(mockPool)

	mockPool.ExpectExec("UPDATE transactions").
		WithArgs(models.TransactionProcessing, "TXN_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateStatus(context.Background(), "TXN_1", models.TransactionProcessing)

	require.NoError(t, err)
	require.NoError(t, mockPool.ExpectationsWereMet())
}
