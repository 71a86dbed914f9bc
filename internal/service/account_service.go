package service

import (
	"context"
	"fmt"
	"log/slog"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
	"distribute-bank/internal/storage/postgres"
)

// AccountService операции со счетами: открытие, чтение, пополнение.
// Чтение баланса идёт через кеш (read-through), запись - через BalanceMutator.
type AccountService struct {
	accounts postgres.AccountRepository
	mutator  *BalanceMutator
	cache    *cache.BalanceCache
	log      *slog.Logger
}

func NewAccountService(accounts postgres.AccountRepository, mutator *BalanceMutator, balanceCache *cache.BalanceCache, log *slog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		mutator:  mutator,
		cache:    balanceCache,
		log:      log,
	}
}

// CreateAccount открывает счёт и прогревает кеш баланса:
// без прогретого кеша списание на этапе Debit невозможно
func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*models.Account, error) {
	const op = "service.CreateAccount"

	if req.AccountID == "" || req.AccountName == "" || req.BankCode == "" {
		return nil, custom_err.ErrInvalidInput
	}
	if req.InitialBalance < 0 {
		return nil, custom_err.ErrInvalidAmount
	}

	// статус можно задать явно, например FROZEN до завершения проверки клиента
	status := models.AccountStatus(req.Status)
	if req.Status == "" {
		status = models.AccountActive
	}
	if !status.IsValid() {
		return nil, custom_err.ErrInvalidInput
	}

	account := &models.Account{
		AccountID:   req.AccountID,
		AccountName: req.AccountName,
		BankCode:    req.BankCode,
		Balance:     models.AmountToMinorUnits(req.InitialBalance),
		Status:      status,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetBalance(ctx, created.AccountID, created.Balance); err != nil {
		s.log.Warn("не удалось прогреть кеш баланса",
			slog.String("account_id", created.AccountID),
			slog.String("error", err.Error()))
	}

	s.log.Info("счёт открыт", slog.String("account_id", created.AccountID))
	return created, nil
}

// GetBalance баланс счёта: сперва кеш, при промахе - БД с восстановлением кеша
func (s *AccountService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	const op = "service.GetBalance"

	balance, found, err := s.cache.GetBalance(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		return balance, nil
	}

	account, err := s.accounts.GetByAccountID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetBalance(ctx, accountID, account.Balance); err != nil {
		s.log.Warn("не удалось восстановить кеш баланса",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()))
	}
	return account.Balance, nil
}

// GetAccount информация о счёте с балансом из БД и из кеша одновременно
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*models.AccountInfo, error) {
	const op = "service.GetAccount"

	account, err := s.accounts.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cachedBalance, err := s.GetBalance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AccountInfo{
		AccountID:     account.AccountID,
		AccountName:   account.AccountName,
		BankCode:      account.BankCode,
		DBBalance:     models.AmountFromMinorUnits(account.Balance),
		CachedBalance: models.AmountFromMinorUnits(cachedBalance),
		Status:        string(account.Status),
	}, nil
}

// Deposit пополнение через общий алгоритм оптимистичного обновления
func (s *AccountService) Deposit(ctx context.Context, accountID string, amount float64) (int64, error) {
	const op = "service.Deposit"

	if amount <= 0 {
		return 0, custom_err.ErrInvalidAmount
	}

	newBalance, err := s.mutator.Apply(ctx, accountID, models.AmountToMinorUnits(amount))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("счёт пополнен",
		slog.String("account_id", accountID),
		slog.Int64("new_balance", newBalance))
	return newBalance, nil
}
