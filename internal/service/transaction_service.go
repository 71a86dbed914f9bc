package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/models"
	"distribute-bank/internal/storage/postgres"

	"github.com/google/uuid"
)

// TransactionService приём заявок на перевод: запись PENDING в БД
// и публикация TRANSFER_CREATED. Дальше транзакцию ведёт конвейер.
type TransactionService struct {
	transactions postgres.TransactionRepository
	accounts     postgres.AccountRepository
	producer     kafka.Producer
	log          *slog.Logger
}

func NewTransactionService(
	transactions postgres.TransactionRepository,
	accounts postgres.AccountRepository,
	producer kafka.Producer,
	log *slog.Logger,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		accounts:     accounts,
		producer:     producer,
		log:          log,
	}
}

// CreateTransfer создаёт перевод и отдаёт его идентификатор.
// Ошибки валидации видны синхронно; всё, что случится дальше по конвейеру,
// доступно только через опрос статуса или уведомления.
func (s *TransactionService) CreateTransfer(ctx context.Context, req models.TransferRequest) (string, error) {
	const op = "service.CreateTransfer"

	if req.FromAccountID == "" || req.ToAccountID == "" {
		return "", custom_err.ErrInvalidInput
	}
	if req.FromAccountID == req.ToAccountID {
		return "", custom_err.ErrInvalidInput
	}
	if req.Amount <= 0 {
		return "", custom_err.ErrInvalidAmount
	}

	if _, err := s.accounts.GetByAccountID(ctx, req.FromAccountID); err != nil {
		return "", fmt.Errorf("%s: счёт отправителя: %w", op, err)
	}
	if _, err := s.accounts.GetByAccountID(ctx, req.ToAccountID); err != nil {
		return "", fmt.Errorf("%s: счёт получателя: %w", op, err)
	}

	transactionID := generateTransactionID()
	amount := models.AmountToMinorUnits(req.Amount)

	txn := &models.Transaction{
		TransactionID:  transactionID,
		FromAccountID:  req.FromAccountID,
		ToAccountID:    req.ToAccountID,
		Amount:         amount,
		Status:         models.TransactionPending,
		ClearingStatus: models.ClearingPending,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("создана транзакция перевода", slog.String("tx_id", transactionID))

	event := models.TransferEvent{
		TransactionID: transactionID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		EventType:     models.EventTransferCreated,
		Timestamp:     time.Now(),
	}
	if err := s.producer.SendTransferEvent(ctx, event); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("отправлено событие перевода", slog.String("tx_id", transactionID))

	return transactionID, nil
}

// CreateBatchTransfer массовый перевод с одного счёта (зарплатный реестр)
func (s *TransactionService) CreateBatchTransfer(ctx context.Context, req models.BatchTransferRequest) (*models.BatchTransferResponse, error) {
	const op = "service.CreateBatchTransfer"

	if req.FromAccountID == "" || len(req.Transfers) == 0 {
		return nil, custom_err.ErrInvalidInput
	}

	batchID := "BATCH_" + generateTransactionID()
	transactionIDs := make([]string, 0, len(req.Transfers))

	for _, item := range req.Transfers {
		txnID, err := s.CreateTransfer(ctx, models.TransferRequest{
			FromAccountID: req.FromAccountID,
			ToAccountID:   item.ToAccountID,
			Amount:        item.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: получатель %s: %w", op, item.ToAccountID, err)
		}
		transactionIDs = append(transactionIDs, txnID)
	}

	s.log.Info("батч переводов создан",
		slog.String("batch_id", batchID),
		slog.Int("count", len(transactionIDs)))

	return &models.BatchTransferResponse{
		BatchID:        batchID,
		TransactionIDs: transactionIDs,
	}, nil
}

// GetTransactionStatus возвращает текущее состояние перевода
func (s *TransactionService) GetTransactionStatus(ctx context.Context, transactionID string) (*models.TransactionStatusResponse, error) {
	const op = "service.GetTransactionStatus"

	txn, err := s.transactions.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TransactionStatusResponse{
		TransactionID:  txn.TransactionID,
		Status:         string(txn.Status),
		ClearingStatus: string(txn.ClearingStatus),
		ErrorMessage:   txn.ErrorMessage,
	}, nil
}

// HandleStatusEvent ведёт статус транзакции по событиям конвейера
// (группа transaction-service-status)
func (s *TransactionService) HandleStatusEvent(ctx context.Context, event models.TransferEvent) error {
	const op = "service.HandleStatusEvent"

	var status models.TransactionStatus
	switch event.EventType {
	case models.EventTransferProcessed:
		status = models.TransactionProcessing
	case models.EventClearingSuccess:
		status = models.TransactionSuccess
	case models.EventClearingFailed:
		status = models.TransactionFailed
	default:
		return nil
	}

	// Статусный consumer и ledger пишут в БД независимо: запоздавший
	// TRANSFER_PROCESSED может прийти, когда исход уже записан.
	// Терминальный статус назад не откатывается.
	if !status.IsTerminal() {
		txn, err := s.transactions.GetByTransactionID(ctx, event.TransactionID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if txn.Status.IsTerminal() {
			s.log.Info("статус уже терминальный, обновление пропущено",
				slog.String("tx_id", event.TransactionID),
				slog.String("status", string(txn.Status)))
			return nil
		}
	}

	if err := s.transactions.UpdateStatus(ctx, event.TransactionID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("статус транзакции обновлён",
		slog.String("tx_id", event.TransactionID),
		slog.String("status", string(status)))
	return nil
}

// generateTransactionID формат TXN_<мс>_<фрагмент uuid> - глобально уникальный
// бизнес-ключ, он же ключ идемпотентности всех этапов
func generateTransactionID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("TXN_%d_%s", time.Now().UnixMilli(), id[:8])
}
