package service

import (
	"context"
	"fmt"
	"log/slog"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/models"
	"distribute-bank/internal/storage/postgres"
)

const (
	ledgerMarkerPrefix       = "ledger:processed:"
	ledgerFailedMarkerPrefix = "ledger:failed:"
)

// LedgerService источник истины по балансам. Применяет перевод к БД
// с оптимистичной блокировкой и фиксирует итог в записи транзакции.
// Оба обработчика идемпотентны по собственным маркерам: повторная
// доставка после падения посреди обновления безопасна.
type LedgerService struct {
	mutator      *BalanceMutator
	transactions postgres.TransactionRepository
	cache        *cache.BalanceCache
	log          *slog.Logger
}

func NewLedgerService(mutator *BalanceMutator, transactions postgres.TransactionRepository, balanceCache *cache.BalanceCache, log *slog.Logger) *LedgerService {
	return &LedgerService{
		mutator:      mutator,
		transactions: transactions,
		cache:        balanceCache,
		log:          log,
	}
}

// ApplySuccess проводит успешно расчищенный перевод по БД:
// списание у отправителя продублировано здесь намеренно - кешевое списание
// уже прошло на этапе Debit, и БД должна независимо отразить ту же дельту.
func (s *LedgerService) ApplySuccess(ctx context.Context, event models.TransferEvent) error {
	const op = "service.LedgerApplySuccess"
	markerKey := ledgerMarkerPrefix + event.TransactionID

	exists, err := s.cache.MarkerExists(ctx, markerKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		s.log.Info("событие уже проведено по книге", slog.String("tx_id", event.TransactionID))
		return nil
	}

	fromBalance, err := s.mutator.Apply(ctx, event.FromAccountID, -event.Amount)
	if err != nil {
		return fmt.Errorf("%s: списание %s: %w", op, event.FromAccountID, err)
	}
	s.log.Info("списание проведено по БД",
		slog.String("tx_id", event.TransactionID),
		slog.String("account_id", event.FromAccountID),
		slog.Int64("new_balance", fromBalance))

	toBalance, err := s.mutator.Apply(ctx, event.ToAccountID, event.Amount)
	if err != nil {
		return fmt.Errorf("%s: зачисление %s: %w", op, event.ToAccountID, err)
	}
	s.log.Info("зачисление проведено по БД",
		slog.String("tx_id", event.TransactionID),
		slog.String("account_id", event.ToAccountID),
		slog.Int64("new_balance", toBalance))

	txn := &models.Transaction{
		TransactionID:    event.TransactionID,
		Status:           models.TransactionSuccess,
		ClearingStatus:   models.ClearingSuccess,
		FromBalanceAfter: &fromBalance,
		ToBalanceAfter:   &toBalance,
	}
	if err := s.transactions.UpdateOutcome(ctx, txn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetMarker(ctx, markerKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("перевод проведён по книге", slog.String("tx_id", event.TransactionID))
	return nil
}

// ApplyFailure фиксирует отказ клиринга в записи транзакции.
// Списание, уже выполненное этапом Debit, не откатывается - компенсации
// в конвейере нет, счёт отправителя остаётся списанным.
func (s *LedgerService) ApplyFailure(ctx context.Context, event models.TransferEvent) error {
	const op = "service.LedgerApplyFailure"
	markerKey := ledgerFailedMarkerPrefix + event.TransactionID

	exists, err := s.cache.MarkerExists(ctx, markerKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		s.log.Info("отказ уже зафиксирован", slog.String("tx_id", event.TransactionID))
		return nil
	}

	txn := &models.Transaction{
		TransactionID:  event.TransactionID,
		Status:         models.TransactionFailed,
		ClearingStatus: models.ClearingFailed,
		ErrorMessage:   "клиринг отклонён",
	}
	if err := s.transactions.UpdateOutcome(ctx, txn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetMarker(ctx, markerKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("отказ клиринга зафиксирован", slog.String("tx_id", event.TransactionID))
	return nil
}

// HandleClearingSuccess обработчик для группы ledger-service
func (s *LedgerService) HandleClearingSuccess(ctx context.Context, event models.TransferEvent) error {
	if event.EventType != models.EventClearingSuccess {
		return nil
	}
	return s.ApplySuccess(ctx, event)
}

// HandleClearingFailed обработчик для группы ledger-service-failed
func (s *LedgerService) HandleClearingFailed(ctx context.Context, event models.TransferEvent) error {
	if event.EventType != models.EventClearingFailed {
		return nil
	}
	return s.ApplyFailure(ctx, event)
}
