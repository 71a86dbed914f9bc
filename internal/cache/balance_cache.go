package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	balanceKeyPrefix  = "account:balance:"
	balanceDiffPrefix = "balance:diff:"

	// DefaultTTL срок жизни баланса в кеше и маркеров идемпотентности
	DefaultTTL = 24 * time.Hour

	// DelayedDeleteDelay пауза перед повторным удалением кеша после записи в БД
	DelayedDeleteDelay = 500 * time.Millisecond

	deleteTimeout = 3 * time.Second
)

// BalanceCache быстрый путь чтения балансов поверх Redis.
// Не является источником истины: всегда восстановим из БД.
// Запись в кеш делает только читатель (lazy repopulation) и сверка,
// путь записи работает по схеме "удалить → записать в БД → отложенно удалить".
type BalanceCache struct {
	rdb *redis.Client
	log *slog.Logger

	wg     sync.WaitGroup
	closed chan struct{}
}

func NewBalanceCache(rdb *redis.Client, log *slog.Logger) *BalanceCache {
	return &BalanceCache{
		rdb:    rdb,
		log:    log,
		closed: make(chan struct{}),
	}
}

func BalanceKey(accountID string) string {
	return balanceKeyPrefix + accountID
}

// GetBalance возвращает закешированный баланс; второй результат - признак наличия записи
func (c *BalanceCache) GetBalance(ctx context.Context, accountID string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, BalanceKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache.GetBalance: %w", err)
	}

	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cache.GetBalance: повреждённое значение %q: %w", val, err)
	}
	return balance, true, nil
}

func (c *BalanceCache) SetBalance(ctx context.Context, accountID string, balance int64) error {
	if err := c.rdb.Set(ctx, BalanceKey(accountID), strconv.FormatInt(balance, 10), DefaultTTL).Err(); err != nil {
		return fmt.Errorf("cache.SetBalance: %w", err)
	}
	return nil
}

func (c *BalanceCache) DeleteBalance(ctx context.Context, accountID string) error {
	if err := c.rdb.Del(ctx, BalanceKey(accountID)).Err(); err != nil {
		return fmt.Errorf("cache.DeleteBalance: %w", err)
	}
	return nil
}

// ScheduleDelayedDelete второй шаг двойного удаления: убирает запись,
// которую конкурентный читатель мог успеть восстановить со старым значением
// между первым удалением и записью в БД. Вызывающего не блокирует.
// При ошибке удаления - одна повторная попытка с удвоенной задержкой,
// дальше расхождение оставляется сверке.
func (c *BalanceCache) ScheduleDelayedDelete(accountID string, delay time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if !c.sleep(delay) {
			return
		}
		err := c.deleteWithTimeout(accountID)
		if err == nil {
			c.log.Debug("отложенное удаление кеша выполнено", slog.String("account_id", accountID))
			return
		}
		c.log.Warn("отложенное удаление кеша не удалось, повтор",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))

		if !c.sleep(delay * 2) {
			return
		}
		if err := c.deleteWithTimeout(accountID); err != nil {
			c.log.Error("повторное отложенное удаление кеша не удалось, оставлено для сверки",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()))
		}
	}()
}

func (c *BalanceCache) deleteWithTimeout(accountID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	return c.rdb.Del(ctx, BalanceKey(accountID)).Err()
}

// sleep ждёт delay; false - если кеш закрывается
func (c *BalanceCache) sleep(delay time.Duration) bool {
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.closed:
		return false
	}
}

// MarkerExists проверяет маркер идемпотентности (важно само наличие ключа)
func (c *BalanceCache) MarkerExists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache.MarkerExists: %w", err)
	}
	return n > 0, nil
}

func (c *BalanceCache) SetMarker(ctx context.Context, key string) error {
	if err := c.rdb.Set(ctx, key, "1", DefaultTTL).Err(); err != nil {
		return fmt.Errorf("cache.SetMarker: %w", err)
	}
	return nil
}

// RecordBalanceDiff сохраняет аудит-запись о расхождении БД и кеша
func (c *BalanceCache) RecordBalanceDiff(ctx context.Context, accountID string, dbBalance, cachedBalance int64) error {
	diff := fmt.Sprintf("DB:%d,Cache:%d,Time:%s", dbBalance, cachedBalance, time.Now().Format(time.RFC3339))
	if err := c.rdb.Set(ctx, balanceDiffPrefix+accountID, diff, DefaultTTL).Err(); err != nil {
		return fmt.Errorf("cache.RecordBalanceDiff: %w", err)
	}
	return nil
}

// Close останавливает фоновые отложенные удаления и дожидается их завершения
func (c *BalanceCache) Close() {
	close(c.closed)
	c.wg.Wait()
}
