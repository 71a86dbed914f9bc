package models

import "time"

// Transaction запись о переводе; создаётся один раз при приёме заявки,
// дальше только обновляется по мере прохождения конвейера
type Transaction struct {
	ID               int64             `json:"-" db:"id"`
	TransactionID    string            `json:"transaction_id" db:"transaction_id"`
	FromAccountID    string            `json:"from_account_id" db:"from_account_id"`
	ToAccountID      string            `json:"to_account_id" db:"to_account_id"`
	Amount           int64             `json:"amount" db:"amount"`
	Status           TransactionStatus `json:"status" db:"status"`
	ClearingStatus   ClearingStatus    `json:"clearing_status" db:"clearing_status"`
	FromBalanceAfter *int64            `json:"from_balance_after,omitempty" db:"from_balance_after"`
	ToBalanceAfter   *int64            `json:"to_balance_after,omitempty" db:"to_balance_after"`
	ErrorMessage     string            `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionProcessing TransactionStatus = "PROCESSING"
	TransactionSuccess    TransactionStatus = "SUCCESS"
	TransactionFailed     TransactionStatus = "FAILED"
)

// IsTerminal - терминальные статусы больше не меняются
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionSuccess || s == TransactionFailed
}

type ClearingStatus string

const (
	ClearingPending ClearingStatus = "PENDING"
	ClearingSuccess ClearingStatus = "SUCCESS"
	ClearingFailed  ClearingStatus = "FAILED"
)

// TransactionStatusResponse ответ на запрос статуса перевода
type TransactionStatusResponse struct {
	TransactionID  string `json:"transaction_id"`
	Status         string `json:"status"`
	ClearingStatus string `json:"clearing_status"`
	ErrorMessage   string `json:"error_message,omitempty"`
}
