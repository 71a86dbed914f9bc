package models

import "time"

// EventType тип события в топике transfer-events
type EventType string

const (
	EventTransferCreated   EventType = "TRANSFER_CREATED"
	EventTransferProcessed EventType = "TRANSFER_PROCESSED"
	EventClearingSuccess   EventType = "CLEARING_SUCCESS"
	EventClearingFailed    EventType = "CLEARING_FAILED"
)

// TransferEvent событие перевода в Kafka. События неизменяемы:
// каждый этап публикует новое событие, а не правит полученное.
// Ключ сообщения - TransactionID, это гарантирует порядок в рамках одной транзакции.
type TransferEvent struct {
	TransactionID    string    `json:"transaction_id"`
	FromAccountID    string    `json:"from_account_id"`
	ToAccountID      string    `json:"to_account_id"`
	Amount           int64     `json:"amount"`
	FromBalanceAfter *int64    `json:"from_balance_after,omitempty"`
	ToBalanceAfter   *int64    `json:"to_balance_after,omitempty"`
	EventType        EventType `json:"event_type"`
	Timestamp        time.Time `json:"timestamp"`
}
