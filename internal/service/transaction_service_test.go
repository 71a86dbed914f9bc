package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
)

func setupTransactionService() (*TransactionService, *MockTransactionRepo, *MockAccountRepo, *FakeProducer) {
	transactions := new(MockTransactionRepo)
	accounts := new(MockAccountRepo)
	producer := &FakeProducer{}
	service := NewTransactionService(transactions, accounts, producer, testLogger())
	return service, transactions, accounts, producer
}

func TestTransactionService_CreateTransfer_Success(t *testing.T) {
	service, transactions, accounts, producer := setupTransactionService()
	ctx := context.Background()

	accounts.On("GetByAccountID", ctx, "ACC-1").Return(&models.Account{AccountID: "ACC-1"}, nil)
	accounts.On("GetByAccountID", ctx, "ACC-2").Return(&models.Account{AccountID: "ACC-2"}, nil)
	transactions.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.FromAccountID == "ACC-1" &&
			txn.ToAccountID == "ACC-2" &&
			txn.Amount == 10050 &&
			txn.Status == models.TransactionPending &&
			txn.ClearingStatus == models.ClearingPending
	})).Return(nil)

	transactionID, err := service.CreateTransfer(ctx, models.TransferRequest{
		FromAccountID: "ACC-1",
		ToAccountID:   "ACC-2",
		Amount:        100.50,
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(transactionID, "TXN_"))

	events := producer.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTransferCreated, events[0].EventType)
	assert.Equal(t, transactionID, events[0].TransactionID)
	assert.Equal(t, int64(10050), events[0].Amount)

	transactions.AssertExpectations(t)
}

func TestTransactionService_CreateTransfer_Validation(t *testing.T) {
	service, _, _, producer := setupTransactionService()
	ctx := context.Background()

	_, err := service.CreateTransfer(ctx, models.TransferRequest{ToAccountID: "ACC-2", Amount: 10})
	assert.ErrorIs(t, err, custom_err.ErrInvalidInput)

	_, err = service.CreateTransfer(ctx, models.TransferRequest{FromAccountID: "ACC-1", ToAccountID: "ACC-1", Amount: 10})
	assert.ErrorIs(t, err, custom_err.ErrInvalidInput)

	_, err = service.CreateTransfer(ctx, models.TransferRequest{FromAccountID: "ACC-1", ToAccountID: "ACC-2", Amount: 0})
	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)

	_, err = service.CreateTransfer(ctx, models.TransferRequest{FromAccountID: "ACC-1", ToAccountID: "ACC-2", Amount: -5})
	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)

	assert.Empty(t, producer.Events())
}

func TestTransactionService_CreateTransfer_AccountNotFound(t *testing.T) {
	service, _, accounts, producer := setupTransactionService()
	ctx := context.Background()

	accounts.On("GetByAccountID", ctx, "ACC-404").Return(nil, custom_err.ErrNotFound)

	_, err := service.CreateTransfer(ctx, models.TransferRequest{
		FromAccountID: "ACC-404",
		ToAccountID:   "ACC-2",
		Amount:        10,
	})

	assert.ErrorIs(t, err, custom_err.ErrNotFound)
	assert.Empty(t, producer.Events())
}

func TestTransactionService_CreateBatchTransfer(t *testing.T) {
	service, transactions, accounts, producer := setupTransactionService()
	ctx := context.Background()

	accounts.On("GetByAccountID", ctx, mock.Anything).Return(&models.Account{}, nil)
	transactions.On("Create", ctx, mock.Anything).Return(nil)

	resp, err := service.CreateBatchTransfer(ctx, models.BatchTransferRequest{
		FromAccountID: "ACC-1",
		Transfers: []models.BatchTransferItem{
			{ToAccountID: "ACC-2", Amount: 100},
			{ToAccountID: "ACC-3", Amount: 200},
			{ToAccountID: "ACC-4", Amount: 300},
		},
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.BatchID, "BATCH_"))
	assert.Len(t, resp.TransactionIDs, 3)
	assert.Len(t, producer.Events(), 3)

	// каждому переводу - собственный идентификатор
	seen := map[string]bool{}
	for _, id := range resp.TransactionIDs {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestTransactionService_GetTransactionStatus(t *testing.T) {
	service, transactions, _, _ := setupTransactionService()
	ctx := context.Background()

	transactions.On("GetByTransactionID", ctx, "TXN_1").Return(&models.Transaction{
		TransactionID:  "TXN_1",
		Status:         models.TransactionFailed,
		ClearingStatus: models.ClearingFailed,
		ErrorMessage:   "клиринг отклонён",
	}, nil)

	resp, err := service.GetTransactionStatus(ctx, "TXN_1")

	require.NoError(t, err)
	assert.Equal(t, string(models.TransactionFailed), resp.Status)
	assert.Equal(t, string(models.ClearingFailed), resp.ClearingStatus)
	assert.Equal(t, "клиринг отклонён", resp.ErrorMessage)
}

func TestTransactionService_HandleStatusEvent(t *testing.T) {
	service, transactions, _, _ := setupTransactionService()
	ctx := context.Background()

	transactions.On("GetByTransactionID", ctx, "TXN_1").Return(&models.Transaction{
		TransactionID: "TXN_1",
		Status:        models.TransactionPending,
	}, nil).Once()
	transactions.On("UpdateStatus", ctx, "TXN_1", models.TransactionProcessing).Return(nil).Once()
	transactions.On("UpdateStatus", ctx, "TXN_1", models.TransactionSuccess).Return(nil).Once()
	transactions.On("UpdateStatus", ctx, "TXN_1", models.TransactionFailed).Return(nil).Once()

	for _, eventType := range []models.EventType{
		models.EventTransferProcessed,
		models.EventClearingSuccess,
		models.EventClearingFailed,
	} {
		err := service.HandleStatusEvent(ctx, models.TransferEvent{
			TransactionID: "TXN_1",
			EventType:     eventType,
		})
		require.NoError(t, err)
	}

	// TRANSFER_CREATED статуса не меняет
	err := service.HandleStatusEvent(ctx, models.TransferEvent{
		TransactionID: "TXN_1",
		EventType:     models.EventTransferCreated,
	})
	require.NoError(t, err)

	transactions.AssertExpectations(t)
}

func TestTransactionService_HandleStatusEvent_KeepsTerminalStatus(t *testing.T) {
	service, transactions, _, _ := setupTransactionService()
	ctx := context.Background()

	// исход уже записан, запоздавший TRANSFER_PROCESSED не откатывает его
	transactions.On("GetByTransactionID", ctx, "TXN_1").Return(&models.Transaction{
		TransactionID: "TXN_1",
		Status:        models.TransactionSuccess,
	}, nil)

	err := service.HandleStatusEvent(ctx, models.TransferEvent{
		TransactionID: "TXN_1",
		EventType:     models.EventTransferProcessed,
	})

	require.NoError(t, err)
	transactions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateTransactionID_Format(t *testing.T) {
	id := generateTransactionID()

	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "TXN", parts[0])
	assert.Len(t, parts[2], 8)
}
