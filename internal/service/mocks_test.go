package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"distribute-bank/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByAccountID(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepo) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepo) UpdateBalanceVersioned(ctx context.Context, accountID string, newBalance, version int64) error {
	args := m.Called(ctx, accountID, newBalance, version)
	return args.Error(0)
}

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, transactionID string, status models.TransactionStatus) error {
	args := m.Called(ctx, transactionID, status)
	return args.Error(0)
}

func (m *MockTransactionRepo) UpdateOutcome(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

// FakeProducer копит отправленные события, чтобы тест мог их разобрать
type FakeProducer struct {
	mu     sync.Mutex
	events []models.TransferEvent
	err    error
}

func (p *FakeProducer) SendTransferEvent(_ context.Context, event models.TransferEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *FakeProducer) Close() error {
	return nil
}

func (p *FakeProducer) Events() []models.TransferEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.TransferEvent, len(p.events))
	copy(out, p.events)
	return out
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Save(ctx context.Context, record *models.NotificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockNotificationStore) GetByTransactionID(ctx context.Context, transactionID string) (*models.NotificationRecord, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationRecord), args.Error(1)
}

func (m *MockNotificationStore) GetAll(ctx context.Context) ([]*models.NotificationRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.NotificationRecord), args.Error(1)
}

func (m *MockNotificationStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
