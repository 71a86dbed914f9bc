package storage

const (
	// Account queries
	GetAccountByAccountIDQuery = `
		SELECT id, account_id, account_name, bank_code, balance, status, version, created_at, updated_at
		FROM accounts
		WHERE account_id = $1
	`

	GetAllAccountsQuery = `
		SELECT id, account_id, account_name, bank_code, balance, status, version, created_at, updated_at
		FROM accounts
		ORDER BY account_id
	`

	CreateAccountQuery = `
		INSERT INTO accounts (account_id, account_name, bank_code, balance, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, account_id, account_name, bank_code, balance, status, version, created_at, updated_at
	`

	// Обновление баланса только при совпадении версии (оптимистичная блокировка)
	UpdateAccountBalanceVersionedQuery = `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = now()
		WHERE account_id = $2 AND version = $3
	`

	// Transaction queries
	CreateTransactionQuery = `
		INSERT INTO transactions (transaction_id, from_account_id, to_account_id, amount, status, clearing_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	GetTransactionByTransactionIDQuery = `
		SELECT id, transaction_id, from_account_id, to_account_id, amount, status, clearing_status,
		       from_balance_after, to_balance_after, COALESCE(error_message, ''), created_at, updated_at
		FROM transactions
		WHERE transaction_id = $1
	`

	UpdateTransactionStatusQuery = `
		UPDATE transactions
		SET status = $1, updated_at = now()
		WHERE transaction_id = $2
	`

	UpdateTransactionOutcomeQuery = `
		UPDATE transactions
		SET status = $1, clearing_status = $2, from_balance_after = $3, to_balance_after = $4,
		    error_message = $5, updated_at = now()
		WHERE transaction_id = $6
	`
)
