package postgres

import (
	"context"
	"errors"
	"fmt"

	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
	"distribute-bank/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxIface минимальный интерфейс пула, чтобы репозитории можно было тестировать через pgxmock
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type AccountRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (*models.Account, error)
	GetAll(ctx context.Context) ([]*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateBalanceVersioned(ctx context.Context, accountID string, newBalance, version int64) error
}

type PgAccountRepository struct {
	db PgxIface
}

func NewAccountRepository(db PgxIface) AccountRepository {
	return &PgAccountRepository{db: db}
}

func (r *PgAccountRepository) GetByAccountID(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "storage.GetByAccountID"

	var account models.Account
	err := r.db.QueryRow(ctx, storage.GetAccountByAccountIDQuery, accountID).Scan(
		&account.ID,
		&account.AccountID,
		&account.AccountName,
		&account.BankCode,
		&account.Balance,
		&account.Status,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &account, nil
}

func (r *PgAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	const op = "storage.GetAll"

	rows, err := r.db.Query(ctx, storage.GetAllAccountsQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.ID,
			&account.AccountID,
			&account.AccountName,
			&account.BankCode,
			&account.Balance,
			&account.Status,
			&account.Version,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		accounts = append(accounts, &account)
	}
	return accounts, nil
}

func (r *PgAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	const op = "storage.CreateAccount"

	var created models.Account
	err := r.db.QueryRow(ctx, storage.CreateAccountQuery,
		account.AccountID,
		account.AccountName,
		account.BankCode,
		account.Balance,
		account.Status,
	).Scan(
		&created.ID,
		&created.AccountID,
		&created.AccountName,
		&created.BankCode,
		&created.Balance,
		&created.Status,
		&created.Version,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, custom_err.ErrAccountExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &created, nil
}

// UpdateBalanceVersioned пишет баланс только если версия не изменилась.
// Ноль затронутых строк означает, что запись успел поменять конкурентный писатель.
func (r *PgAccountRepository) UpdateBalanceVersioned(ctx context.Context, accountID string, newBalance, version int64) error {
	const op = "storage.UpdateBalanceVersioned"

	res, err := r.db.Exec(ctx, storage.UpdateAccountBalanceVersionedQuery, newBalance, accountID, version)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrConcurrentConflict
	}
	return nil
}
