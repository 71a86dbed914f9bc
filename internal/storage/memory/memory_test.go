package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Save(ctx, &models.NotificationRecord{
		TransactionID: "TXN_1",
		Status:        "SUCCESS",
		Message:       "выполнен",
	})
	require.NoError(t, err)

	record, err := store.GetByTransactionID(ctx, "TXN_1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", record.Status)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetByTransactionID(context.Background(), "TXN_404")

	assert.ErrorIs(t, err, custom_err.ErrNotFound)
}

func TestMemoryStore_DuplicateIgnored(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.NotificationRecord{
		TransactionID: "TXN_1",
		Status:        "SUCCESS",
	}))
	require.NoError(t, store.Save(ctx, &models.NotificationRecord{
		TransactionID: "TXN_1",
		Status:        "FAILED",
	}))

	record, err := store.GetByTransactionID(ctx, "TXN_1")
	require.NoError(t, err)
	// первая запись остаётся
	assert.Equal(t, "SUCCESS", record.Status)

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemoryStore_GetAll_NewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.NotificationRecord{TransactionID: "TXN_1"}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Save(ctx, &models.NotificationRecord{TransactionID: "TXN_2"}))

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "TXN_2", records[0].TransactionID)
}
