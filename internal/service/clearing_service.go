package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"distribute-bank/internal/kafka"
	"distribute-bank/internal/models"
)

// ClearingService имитация внешнего клирингового центра (НСПК/SWIFT):
// сетевой лаг как случайная задержка, исход - испытание Бернулли.
// Состояния не имеет, каждый вызов независим; за этим контрактом можно
// спрятать клиента реальной клиринговой сети, не трогая остальной конвейер.
type ClearingService struct {
	producer    kafka.Producer
	minDelay    time.Duration
	maxDelay    time.Duration
	successRate float64
	log         *slog.Logger
}

func NewClearingService(producer kafka.Producer, minDelay, maxDelay time.Duration, successRate float64, log *slog.Logger) *ClearingService {
	return &ClearingService{
		producer:    producer,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		successRate: successRate,
		log:         log,
	}
}

// Handle обрабатывает TRANSFER_PROCESSED и публикует исход клиринга
func (s *ClearingService) Handle(ctx context.Context, event models.TransferEvent) error {
	const op = "service.Clearing"

	if event.EventType != models.EventTransferProcessed {
		return nil
	}

	s.log.Info("начало клиринга", slog.String("tx_id", event.TransactionID))

	// пакетный math/rand безопасен для конкурентных воркеров consumer-группы
	delay := s.minDelay
	if s.maxDelay > s.minDelay {
		delay += time.Duration(rand.Int63n(int64(s.maxDelay - s.minDelay)))
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	eventType := models.EventClearingSuccess
	if rand.Float64() >= s.successRate {
		eventType = models.EventClearingFailed
	}

	outcome := models.TransferEvent{
		TransactionID:    event.TransactionID,
		FromAccountID:    event.FromAccountID,
		ToAccountID:      event.ToAccountID,
		Amount:           event.Amount,
		FromBalanceAfter: event.FromBalanceAfter,
		EventType:        eventType,
		Timestamp:        time.Now(),
	}
	if err := s.producer.SendTransferEvent(ctx, outcome); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if eventType == models.EventClearingSuccess {
		s.log.Info("клиринг успешен", slog.String("tx_id", event.TransactionID))
	} else {
		s.log.Error("клиринг отклонён", slog.String("tx_id", event.TransactionID))
	}
	return nil
}
