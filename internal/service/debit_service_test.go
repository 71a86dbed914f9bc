package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/models"
)

func setupDebitService(t *testing.T) (*DebitService, *miniredis.Miniredis, *FakeProducer) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	producer := &FakeProducer{}
	return NewDebitService(rdb, producer, testLogger()), mr, producer
}

func TestDebitService_Debit_Success(t *testing.T) {
	service, mr, _ := setupDebitService(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "10000")

	result, err := service.Debit(ctx, "ACC-1", 3000, "TXN_1")

	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, int64(7000), result.NewBalance)

	got, err := mr.Get(cache.BalanceKey("ACC-1"))
	require.NoError(t, err)
	assert.Equal(t, "7000", got)
	assert.True(t, mr.Exists(debitMarkerPrefix+"TXN_1"))
}

func TestDebitService_Debit_InsufficientFunds(t *testing.T) {
	service, mr, _ := setupDebitService(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "1000")

	result, err := service.Debit(ctx, "ACC-1", 3000, "TXN_1")

	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, reasonInsufficient, result.Reason)

	got, err := mr.Get(cache.BalanceKey("ACC-1"))
	require.NoError(t, err)
	assert.Equal(t, "1000", got)
	assert.False(t, mr.Exists(debitMarkerPrefix+"TXN_1"))
}

func TestDebitService_Debit_BalanceUnknown(t *testing.T) {
	service, _, _ := setupDebitService(t)

	result, err := service.Debit(context.Background(), "ACC-404", 100, "TXN_1")

	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, reasonBalanceUnknown, result.Reason)
}

func TestDebitService_Debit_Idempotent(t *testing.T) {
	service, mr, _ := setupDebitService(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "10000")

	first, err := service.Debit(ctx, "ACC-1", 3000, "TXN_1")
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := service.Debit(ctx, "ACC-1", 3000, "TXN_1")
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, reasonAlreadyProcessed, second.Reason)

	// баланс списан ровно один раз
	got, err := mr.Get(cache.BalanceKey("ACC-1"))
	require.NoError(t, err)
	assert.Equal(t, "7000", got)
}

func TestDebitService_Handle_PublishesProcessed(t *testing.T) {
	service, mr, producer := setupDebitService(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "10000")

	event := models.TransferEvent{
		TransactionID: "TXN_1",
		FromAccountID: "ACC-1",
		ToAccountID:   "ACC-2",
		Amount:        4000,
		EventType:     models.EventTransferCreated,
	}

	err := service.Handle(ctx, event)

	require.NoError(t, err)
	events := producer.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTransferProcessed, events[0].EventType)
	assert.Equal(t, "TXN_1", events[0].TransactionID)
	require.NotNil(t, events[0].FromBalanceAfter)
	assert.Equal(t, int64(6000), *events[0].FromBalanceAfter)
}

func TestDebitService_Handle_PublishesFailedOnInsufficient(t *testing.T) {
	service, mr, producer := setupDebitService(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "1000")

	event := models.TransferEvent{
		TransactionID: "TXN_1",
		FromAccountID: "ACC-1",
		ToAccountID:   "ACC-2",
		Amount:        4000,
		EventType:     models.EventTransferCreated,
	}

	err := service.Handle(ctx, event)

	require.NoError(t, err)
	events := producer.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventClearingFailed, events[0].EventType)
}

func TestDebitService_Handle_RedeliveryPublishesNothing(t *testing.T) {
	service, mr, producer := setupDebitService(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "10000")

	event := models.TransferEvent{
		TransactionID: "TXN_1",
		FromAccountID: "ACC-1",
		ToAccountID:   "ACC-2",
		Amount:        4000,
		EventType:     models.EventTransferCreated,
	}

	require.NoError(t, service.Handle(ctx, event))
	require.NoError(t, service.Handle(ctx, event))

	// повторная доставка не породила второго исхода
	assert.Len(t, producer.Events(), 1)
}

func TestDebitService_Handle_IgnoresOtherEvents(t *testing.T) {
	service, _, producer := setupDebitService(t)

	err := service.Handle(context.Background(), models.TransferEvent{
		TransactionID: "TXN_1",
		EventType:     models.EventClearingSuccess,
	})

	require.NoError(t, err)
	assert.Empty(t, producer.Events())
}
