package models

// TransferRequest запрос на одиночный перевод
type TransferRequest struct {
	FromAccountID string  `json:"from_account_id"`
	ToAccountID   string  `json:"to_account_id"`
	Amount        float64 `json:"amount"`
}

// BatchTransferItem один получатель в батче (например, зарплатный реестр)
type BatchTransferItem struct {
	ToAccountID string  `json:"to_account_id"`
	Amount      float64 `json:"amount"`
}

// BatchTransferRequest запрос на массовый перевод с одного счёта
type BatchTransferRequest struct {
	FromAccountID string              `json:"from_account_id"`
	Transfers     []BatchTransferItem `json:"transfers"`
}

// BatchTransferResponse результат приёма батча
type BatchTransferResponse struct {
	BatchID        string   `json:"batch_id"`
	TransactionIDs []string `json:"transaction_ids"`
}

// CreateAccountRequest запрос на открытие счёта
type CreateAccountRequest struct {
	AccountID      string  `json:"account_id"`
	AccountName    string  `json:"account_name"`
	BankCode       string  `json:"bank_code"`
	InitialBalance float64 `json:"initial_balance"`
	Status         string  `json:"status,omitempty"`
}

// DepositRequest запрос на пополнение счёта
type DepositRequest struct {
	Amount float64 `json:"amount"`
}

// DepositResponse ответ на пополнение
type DepositResponse struct {
	AccountID  string  `json:"account_id"`
	NewBalance float64 `json:"new_balance"`
}

// ReconciliationResult результат сверки одного счёта
type ReconciliationResult struct {
	AccountID     string  `json:"account_id"`
	DBBalance     float64 `json:"db_balance"`
	CachedBalance float64 `json:"cached_balance"`
	Consistent    bool    `json:"consistent"`
}

