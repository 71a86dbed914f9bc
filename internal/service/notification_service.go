package service

import (
	"context"
	"fmt"
	"log/slog"

	"distribute-bank/internal/models"
	"distribute-bank/internal/storage"
)

// NotificationService терминальный этап: превращает исходы клиринга
// в записи журнала уведомлений. Доставка самих уведомлений (почта, пуши)
// остаётся за рамками - журнал служит её источником.
type NotificationService struct {
	store storage.NotificationStore
	log   *slog.Logger
}

func NewNotificationService(store storage.NotificationStore, log *slog.Logger) *NotificationService {
	return &NotificationService{
		store: store,
		log:   log,
	}
}

// HandleSuccess обработчик для группы notification-service-success
func (s *NotificationService) HandleSuccess(ctx context.Context, event models.TransferEvent) error {
	const op = "service.NotifySuccess"

	if event.EventType != models.EventClearingSuccess {
		return nil
	}

	record := &models.NotificationRecord{
		TransactionID: event.TransactionID,
		Status:        string(models.TransactionSuccess),
		Message: fmt.Sprintf("Перевод %s со счёта %s на счёт %s выполнен, сумма %s",
			event.TransactionID, event.FromAccountID, event.ToAccountID,
			models.FormatMinorUnits(event.Amount)),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("уведомление об успехе сохранено", slog.String("tx_id", event.TransactionID))
	return nil
}

// HandleFailed обработчик для группы notification-service-failed
func (s *NotificationService) HandleFailed(ctx context.Context, event models.TransferEvent) error {
	const op = "service.NotifyFailed"

	if event.EventType != models.EventClearingFailed {
		return nil
	}

	record := &models.NotificationRecord{
		TransactionID: event.TransactionID,
		Status:        string(models.TransactionFailed),
		Message: fmt.Sprintf("Перевод %s со счёта %s отклонён клирингом, сумма %s",
			event.TransactionID, event.FromAccountID,
			models.FormatMinorUnits(event.Amount)),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("уведомление об отказе сохранено", slog.String("tx_id", event.TransactionID))
	return nil
}

// GetNotification запись журнала по идентификатору транзакции
func (s *NotificationService) GetNotification(ctx context.Context, transactionID string) (*models.NotificationRecord, error) {
	const op = "service.GetNotification"

	record, err := s.store.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return record, nil
}

// ListNotifications весь журнал, свежие первыми
func (s *NotificationService) ListNotifications(ctx context.Context) ([]*models.NotificationRecord, error) {
	const op = "service.ListNotifications"

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}
