package storage

import (
	"context"

	"distribute-bank/internal/models"
)

// NotificationStore хранилище журнала уведомлений.
// Реализации: MongoDB и in-memory для локального запуска без Mongo.
type NotificationStore interface {
	Save(ctx context.Context, record *models.NotificationRecord) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.NotificationRecord, error)
	GetAll(ctx context.Context) ([]*models.NotificationRecord, error)
	Close(ctx context.Context) error
}
