package service

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
)

func setupMutator(t *testing.T) (*BalanceMutator, *MockAccountRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	balances := cache.NewBalanceCache(rdb, testLogger())
	t.Cleanup(balances.Close)

	repo := new(MockAccountRepo)
	return NewBalanceMutator(repo, balances, testLogger()), repo, mr
}

func TestBalanceMutator_Apply_Success(t *testing.T) {
	mutator, repo, mr := setupMutator(t)
	ctx := context.Background()

	mr.Set(cache.BalanceKey("ACC-1"), "10000")

	repo.On("GetByAccountID", ctx, "ACC-1").Return(&models.Account{
		AccountID: "ACC-1",
		Balance:   10000,
		Version:   1,
	}, nil)
	repo.On("UpdateBalanceVersioned", ctx, "ACC-1", int64(7000), int64(1)).Return(nil)

	newBalance, err := mutator.Apply(ctx, "ACC-1", -3000)

	require.NoError(t, err)
	assert.Equal(t, int64(7000), newBalance)

	// кеш удалён перед записью и не восстановлен самим мутатором
	assert.False(t, mr.Exists(cache.BalanceKey("ACC-1")))
	repo.AssertExpectations(t)
}

func TestBalanceMutator_Apply_InsufficientFunds(t *testing.T) {
	mutator, repo, _ := setupMutator(t)
	ctx := context.Background()

	repo.On("GetByAccountID", ctx, "ACC-1").Return(&models.Account{
		AccountID: "ACC-1",
		Balance:   1000,
		Version:   1,
	}, nil)

	_, err := mutator.Apply(ctx, "ACC-1", -3000)

	assert.ErrorIs(t, err, custom_err.ErrInsufficientFunds)
	repo.AssertNotCalled(t, "UpdateBalanceVersioned", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBalanceMutator_Apply_RetriesOnConflict(t *testing.T) {
	mutator, repo, _ := setupMutator(t)
	ctx := context.Background()

	// первый заход проигрывает гонку, второй видит новую версию
	repo.On("GetByAccountID", ctx, "ACC-1").Return(&models.Account{
		AccountID: "ACC-1",
		Balance:   10000,
		Version:   1,
	}, nil).Once()
	repo.On("UpdateBalanceVersioned", ctx, "ACC-1", int64(7000), int64(1)).
		Return(custom_err.ErrConcurrentConflict).Once()

	repo.On("GetByAccountID", ctx, "ACC-1").Return(&models.Account{
		AccountID: "ACC-1",
		Balance:   9000,
		Version:   2,
	}, nil).Once()
	repo.On("UpdateBalanceVersioned", ctx, "ACC-1", int64(6000), int64(2)).
		Return(nil).Once()

	newBalance, err := mutator.Apply(ctx, "ACC-1", -3000)

	require.NoError(t, err)
	assert.Equal(t, int64(6000), newBalance)
	repo.AssertExpectations(t)
}

func TestBalanceMutator_Apply_ConflictExhausted(t *testing.T) {
	mutator, repo, _ := setupMutator(t)
	ctx := context.Background()

	repo.On("GetByAccountID", ctx, "ACC-1").Return(&models.Account{
		AccountID: "ACC-1",
		Balance:   10000,
		Version:   1,
	}, nil).Times(maxBalanceRetries)
	repo.On("UpdateBalanceVersioned", ctx, "ACC-1", int64(7000), int64(1)).
		Return(custom_err.ErrConcurrentConflict).Times(maxBalanceRetries)

	_, err := mutator.Apply(ctx, "ACC-1", -3000)

	assert.ErrorIs(t, err, custom_err.ErrConcurrentConflict)
	repo.AssertExpectations(t)
}

// versionedAccountStore потокобезопасная реализация с настоящей
// семантикой версий - для проверки конкурентных обновлений
type versionedAccountStore struct {
	mu      sync.Mutex
	balance int64
	version int64
}

func (s *versionedAccountStore) GetByAccountID(_ context.Context, accountID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.Account{AccountID: accountID, Balance: s.balance, Version: s.version}, nil
}

func (s *versionedAccountStore) GetAll(context.Context) ([]*models.Account, error) {
	return nil, nil
}

func (s *versionedAccountStore) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	return a, nil
}

func (s *versionedAccountStore) UpdateBalanceVersioned(_ context.Context, _ string, newBalance, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return custom_err.ErrConcurrentConflict
	}
	s.balance = newBalance
	s.version++
	return nil
}

func TestBalanceMutator_Apply_ConcurrentWritersNoLostUpdate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	balances := cache.NewBalanceCache(rdb, testLogger())
	t.Cleanup(balances.Close)

	store := &versionedAccountStore{balance: 10000, version: 1}
	mutator := NewBalanceMutator(store, balances, testLogger())

	var wg sync.WaitGroup
	errs := make([]error, maxBalanceRetries)
	for i := 0; i < maxBalanceRetries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mutator.Apply(context.Background(), "ACC-1", -100)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// ни одно списание не потеряно
	assert.Equal(t, int64(9700), store.balance)
	assert.Equal(t, int64(4), store.version)
}

func TestBalanceMutator_Apply_AccountNotFound(t *testing.T) {
	mutator, repo, _ := setupMutator(t)
	ctx := context.Background()

	repo.On("GetByAccountID", ctx, "ACC-404").Return(nil, custom_err.ErrNotFound)

	_, err := mutator.Apply(ctx, "ACC-404", 100)

	assert.ErrorIs(t, err, custom_err.ErrNotFound)
	// отсутствие счёта не ретраится
	repo.AssertNumberOfCalls(t, "GetByAccountID", 1)
}
