package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
)

// MemoryStore журнал уведомлений в памяти - для локального запуска
// и тестов без MongoDB. Семантика та же: повтор по transaction_id
// молча игнорируется.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.NotificationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.NotificationRecord),
	}
}

func (s *MemoryStore) Save(_ context.Context, record *models.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.TransactionID]; ok {
		return nil
	}

	stored := *record
	stored.CreatedAt = time.Now()
	s.records[record.TransactionID] = &stored
	return nil
}

func (s *MemoryStore) GetByTransactionID(_ context.Context, transactionID string) (*models.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[transactionID]
	if !ok {
		return nil, custom_err.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) GetAll(_ context.Context) ([]*models.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*models.NotificationRecord, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}
