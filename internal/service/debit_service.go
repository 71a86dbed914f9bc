package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	debitMarkerPrefix = "transaction:processed:"

	reasonAlreadyProcessed = "already processed"
	reasonBalanceUnknown   = "balance unknown"
	reasonInsufficient     = "insufficient funds"
)

// Скрипт атомарного списания: проверка маркера, чтение баланса, сравнение
// и запись выполняются как одна неделимая операция на стороне Redis.
// Разнести эти шаги по отдельным командам нельзя - вернётся гонка
// между конкурентными списаниями с одного счёта.
var debitScript = redis.NewScript(`
local balanceKey = KEYS[1]
local processedKey = KEYS[2]
local amount = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

if redis.call('EXISTS', processedKey) == 1 then
    return {0, 'already processed'}
end

local balance = tonumber(redis.call('GET', balanceKey))
if not balance then
    return {0, 'balance unknown'}
end

if balance < amount then
    return {0, 'insufficient funds'}
end

local newBalance = balance - amount
redis.call('SET', balanceKey, tostring(newBalance), 'EX', ttl)
redis.call('SETEX', processedKey, ttl, '1')
return {1, tostring(newBalance)}
`)

// DebitResult результат попытки списания
type DebitResult struct {
	Applied    bool
	Reason     string
	NewBalance int64
}

// DebitService этап списания со счёта отправителя. Работает только с кешем,
// независимо от БД; маркер transaction:processed:<id> даёт идемпотентность
// при повторной доставке события.
type DebitService struct {
	rdb      *redis.Client
	producer kafka.Producer
	log      *slog.Logger
}

func NewDebitService(rdb *redis.Client, producer kafka.Producer, log *slog.Logger) *DebitService {
	return &DebitService{
		rdb:      rdb,
		producer: producer,
		log:      log,
	}
}

// Debit атомарно списывает amount со счёта в кеше
func (s *DebitService) Debit(ctx context.Context, accountID string, amount int64, transactionID string) (*DebitResult, error) {
	const op = "service.Debit"

	keys := []string{cache.BalanceKey(accountID), debitMarkerPrefix + transactionID}
	args := []interface{}{amount, int64(cache.DefaultTTL.Seconds())}

	res, err := debitScript.Run(ctx, s.rdb, keys, args...).Slice()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("%s: неожиданный ответ скрипта: %v", op, res)
	}

	code, ok := res[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%s: неожиданный код ответа: %v", op, res[0])
	}
	payload, _ := res[1].(string)

	if code != 1 {
		return &DebitResult{Applied: false, Reason: payload}, nil
	}

	newBalance, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: не удалось распарсить новый баланс %q: %w", op, payload, err)
	}
	return &DebitResult{Applied: true, NewBalance: newBalance}, nil
}

// Handle обрабатывает TRANSFER_CREATED: списание из кеша и публикация результата.
// Транзакция никогда не теряется: либо TRANSFER_PROCESSED, либо CLEARING_FAILED.
func (s *DebitService) Handle(ctx context.Context, event models.TransferEvent) error {
	const op = "service.DebitHandle"

	if event.EventType != models.EventTransferCreated {
		return nil
	}

	s.log.Info("обработка события перевода",
		slog.String("tx_id", event.TransactionID),
		slog.String("from", event.FromAccountID))

	// Инфраструктурная ошибка (Redis недоступен) - наружу, событие
	// доставится повторно. Отказ публикуется только по бизнес-причине.
	result, err := s.Debit(ctx, event.FromAccountID, event.Amount, event.TransactionID)
	if err != nil {
		s.log.Error("ошибка списания",
			slog.String("tx_id", event.TransactionID),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	// повторная доставка уже списанного события: TRANSFER_PROCESSED
	// был отправлен в прошлый раз, второй исход публиковать нельзя
	if !result.Applied && result.Reason == reasonAlreadyProcessed {
		s.log.Info("событие уже обработано", slog.String("tx_id", event.TransactionID))
		return nil
	}

	if !result.Applied {
		s.log.Warn("списание не выполнено",
			slog.String("tx_id", event.TransactionID),
			slog.String("reason", result.Reason))
		return s.publishFailed(ctx, event, result.Reason)
	}

	processed := models.TransferEvent{
		TransactionID:    event.TransactionID,
		FromAccountID:    event.FromAccountID,
		ToAccountID:      event.ToAccountID,
		Amount:           event.Amount,
		FromBalanceAfter: &result.NewBalance,
		EventType:        models.EventTransferProcessed,
		Timestamp:        time.Now(),
	}
	if err := s.producer.SendTransferEvent(ctx, processed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("перевод обработан",
		slog.String("tx_id", event.TransactionID),
		slog.Int64("new_balance", result.NewBalance))
	return nil
}

func (s *DebitService) publishFailed(ctx context.Context, event models.TransferEvent, reason string) error {
	const op = "service.DebitPublishFailed"

	failed := models.TransferEvent{
		TransactionID: event.TransactionID,
		FromAccountID: event.FromAccountID,
		ToAccountID:   event.ToAccountID,
		Amount:        event.Amount,
		EventType:     models.EventClearingFailed,
		Timestamp:     time.Now(),
	}
	if err := s.producer.SendTransferEvent(ctx, failed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("отправлено событие отказа",
		slog.String("tx_id", event.TransactionID),
		slog.String("reason", reason))
	return nil
}
