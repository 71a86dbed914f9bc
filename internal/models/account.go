package models

import "time"

// Account представляет банковский счёт: снимок баланса в БД + версия для оптимистичной блокировки
type Account struct {
	ID          int64         `json:"-" db:"id"`
	AccountID   string        `json:"account_id" db:"account_id"`
	AccountName string        `json:"account_name" db:"account_name"`
	BankCode    string        `json:"bank_code" db:"bank_code"`
	Balance     int64         `json:"balance" db:"balance"`
	Status      AccountStatus `json:"status" db:"status"`
	Version     int64         `json:"version" db:"version"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

func (s AccountStatus) IsValid() bool {
	return s == AccountActive || s == AccountFrozen || s == AccountClosed
}

// AccountInfo ответ с балансом из БД и из кеша одновременно
type AccountInfo struct {
	AccountID     string  `json:"account_id"`
	AccountName   string  `json:"account_name"`
	BankCode      string  `json:"bank_code"`
	DBBalance     float64 `json:"db_balance"`
	CachedBalance float64 `json:"cached_balance"`
	Status        string  `json:"status"`
}
