package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/models"
	"distribute-bank/internal/storage/postgres"
)

// ReconciliationService периодическая сверка балансов БД и кеша.
// Источник истины - БД: при расхождении кеш перезаписывается значением
// из БД, а само расхождение остаётся в Redis для аудита.
type ReconciliationService struct {
	accounts postgres.AccountRepository
	cache    *cache.BalanceCache
	interval time.Duration
	log      *slog.Logger
}

func NewReconciliationService(accounts postgres.AccountRepository, balanceCache *cache.BalanceCache, interval time.Duration, log *slog.Logger) *ReconciliationService {
	return &ReconciliationService{
		accounts: accounts,
		cache:    balanceCache,
		interval: interval,
		log:      log,
	}
}

// Run цикл плановой сверки; останавливается по контексту
func (s *ReconciliationService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("плановая сверка запущена", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ticker.C:
			fixed, err := s.ReconcileAll(ctx)
			if err != nil {
				s.log.Error("ошибка плановой сверки", slog.String("error", err.Error()))
				continue
			}
			s.log.Info("плановая сверка завершена", slog.Int("fixed", fixed))
		case <-ctx.Done():
			s.log.Info("плановая сверка остановлена")
			return
		}
	}
}

// ReconcileAll сверяет все счета, возвращает число исправленных расхождений
func (s *ReconciliationService) ReconcileAll(ctx context.Context) (int, error) {
	const op = "service.ReconcileAll"

	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	fixed := 0
	for _, account := range accounts {
		result, err := s.reconcile(ctx, account)
		if err != nil {
			s.log.Error("ошибка сверки счёта",
				slog.String("account_id", account.AccountID),
				slog.String("error", err.Error()))
			continue
		}
		if !result.Consistent {
			fixed++
		}
	}
	return fixed, nil
}

// ReconcileAccount ручная сверка одного счёта с немедленным исправлением
func (s *ReconciliationService) ReconcileAccount(ctx context.Context, accountID string) (*models.ReconciliationResult, error) {
	const op = "service.ReconcileAccount"

	account, err := s.accounts.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := s.reconcile(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Status сравнение без исправления - для диагностики всей системы разом
func (s *ReconciliationService) Status(ctx context.Context) ([]models.ReconciliationResult, error) {
	const op = "service.ReconciliationStatus"

	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := make([]models.ReconciliationResult, 0, len(accounts))
	for _, account := range accounts {
		cached, found, err := s.cache.GetBalance(ctx, account.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, models.ReconciliationResult{
			AccountID:     account.AccountID,
			DBBalance:     models.AmountFromMinorUnits(account.Balance),
			CachedBalance: models.AmountFromMinorUnits(cached),
			Consistent:    found && cached == account.Balance,
		})
	}
	return results, nil
}

// reconcile сравнивает и чинит один счёт. Отсутствие значения в кеше -
// тоже расхождение: кеш наполняется из БД, но аудит-запись не пишется,
// потому что расходящегося значения никто не наблюдал.
func (s *ReconciliationService) reconcile(ctx context.Context, account *models.Account) (*models.ReconciliationResult, error) {
	cached, found, err := s.cache.GetBalance(ctx, account.AccountID)
	if err != nil {
		return nil, err
	}

	if found && cached == account.Balance {
		return &models.ReconciliationResult{
			AccountID:     account.AccountID,
			DBBalance:     models.AmountFromMinorUnits(account.Balance),
			CachedBalance: models.AmountFromMinorUnits(cached),
			Consistent:    true,
		}, nil
	}

	if found {
		s.log.Warn("расхождение балансов",
			slog.String("account_id", account.AccountID),
			slog.Int64("db_balance", account.Balance),
			slog.Int64("cached_balance", cached))
		if err := s.cache.RecordBalanceDiff(ctx, account.AccountID, account.Balance, cached); err != nil {
			s.log.Error("не удалось записать аудит расхождения",
				slog.String("account_id", account.AccountID),
				slog.String("error", err.Error()))
		}
	}

	if err := s.cache.SetBalance(ctx, account.AccountID, account.Balance); err != nil {
		return nil, err
	}

	return &models.ReconciliationResult{
		AccountID:     account.AccountID,
		DBBalance:     models.AmountFromMinorUnits(account.Balance),
		CachedBalance: models.AmountFromMinorUnits(cached),
		Consistent:    false,
	}, nil
}
