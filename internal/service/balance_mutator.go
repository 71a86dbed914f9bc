package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/storage/postgres"
)

const (
	maxBalanceRetries = 3
	retryBackoffStep  = 10 * time.Millisecond
)

// BalanceMutator единый алгоритм изменения баланса в БД для всех этапов:
// оптимистичная блокировка по версии записи плюс протокол согласованности
// кеша "удалить → записать → отложенно удалить".
type BalanceMutator struct {
	accounts postgres.AccountRepository
	cache    *cache.BalanceCache
	log      *slog.Logger
}

func NewBalanceMutator(accounts postgres.AccountRepository, balanceCache *cache.BalanceCache, log *slog.Logger) *BalanceMutator {
	return &BalanceMutator{
		accounts: accounts,
		cache:    balanceCache,
		log:      log,
	}
}

// Apply прибавляет delta (списание - отрицательная) к балансу счёта.
// Возвращает новый баланс. Конфликт версий ретраится до трёх раз
// с нарастающей паузой, затем наружу уходит ErrConcurrentConflict -
// ограниченная задержка вместо живой блокировки.
func (m *BalanceMutator) Apply(ctx context.Context, accountID string, delta int64) (int64, error) {
	const op = "service.BalanceApply"

	// Шаг 1 протокола: удалить кеш до записи в БД, чтобы читатели
	// в окне записи шли в БД, а не видели устаревшее значение
	if err := m.cache.DeleteBalance(ctx, accountID); err != nil {
		m.log.Warn("не удалось удалить кеш перед записью",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
	}

	newBalance, err := m.applyVersioned(ctx, accountID, delta)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// Шаг 3: отложенное удаление закрывает гонку с читателем,
	// успевшим восстановить старое значение между шагами 1 и 2
	m.cache.ScheduleDelayedDelete(accountID, cache.DelayedDeleteDelay)

	return newBalance, nil
}

func (m *BalanceMutator) applyVersioned(ctx context.Context, accountID string, delta int64) (int64, error) {
	for attempt := 1; attempt <= maxBalanceRetries; attempt++ {
		account, err := m.accounts.GetByAccountID(ctx, accountID)
		if err != nil {
			// Отсутствие счёта - фатально, ретраи не помогут
			return 0, err
		}

		newBalance := account.Balance + delta
		if newBalance < 0 {
			return 0, custom_err.ErrInsufficientFunds
		}

		err = m.accounts.UpdateBalanceVersioned(ctx, accountID, newBalance, account.Version)
		if err == nil {
			return newBalance, nil
		}
		if !errors.Is(err, custom_err.ErrConcurrentConflict) {
			return 0, err
		}

		m.log.Warn("конфликт версий при обновлении баланса",
			slog.String("account_id", accountID),
			slog.Int("attempt", attempt))

		// Конкурентный писатель успел раньше: сбрасываем кеш,
		// чтобы перечитать актуальное состояние
		if derr := m.cache.DeleteBalance(ctx, accountID); derr != nil {
			m.log.Warn("не удалось сбросить кеш при ретрае",
				slog.String("account_id", accountID),
				slog.String("error", derr.Error()))
		}

		if attempt == maxBalanceRetries {
			break
		}

		t := time.NewTimer(retryBackoffStep * time.Duration(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		}
		t.Stop()
	}

	return 0, custom_err.ErrConcurrentConflict
}
