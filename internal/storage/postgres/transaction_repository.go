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

type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, transactionID string, status models.TransactionStatus) error
	UpdateOutcome(ctx context.Context, txn *models.Transaction) error
}

type PgTransactionRepository struct {
	db PgxIface
}

func NewTransactionRepository(db PgxIface) TransactionRepository {
	return &PgTransactionRepository{db: db}
}

func (r *PgTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	const op = "storage.CreateTransaction"

	err := r.db.QueryRow(ctx, storage.CreateTransactionQuery,
		txn.TransactionID,
		txn.FromAccountID,
		txn.ToAccountID,
		txn.Amount,
		txn.Status,
		txn.ClearingStatus,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return custom_err.ErrDuplicateRequest
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	const op = "storage.GetByTransactionID"

	var txn models.Transaction
	err := r.db.QueryRow(ctx, storage.GetTransactionByTransactionIDQuery, transactionID).Scan(
		&txn.ID,
		&txn.TransactionID,
		&txn.FromAccountID,
		&txn.ToAccountID,
		&txn.Amount,
		&txn.Status,
		&txn.ClearingStatus,
		&txn.FromBalanceAfter,
		&txn.ToBalanceAfter,
		&txn.ErrorMessage,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &txn, nil
}

func (r *PgTransactionRepository) UpdateStatus(ctx context.Context, transactionID string, status models.TransactionStatus) error {
	const op = "storage.UpdateTransactionStatus"

	res, err := r.db.Exec(ctx, storage.UpdateTransactionStatusQuery, status, transactionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrNotFound
	}
	return nil
}

// UpdateOutcome записывает итог обработки: статусы, балансы после операции, текст ошибки
func (r *PgTransactionRepository) UpdateOutcome(ctx context.Context, txn *models.Transaction) error {
	const op = "storage.UpdateTransactionOutcome"

	res, err := r.db.Exec(ctx, storage.UpdateTransactionOutcomeQuery,
		txn.Status,
		txn.ClearingStatus,
		txn.FromBalanceAfter,
		txn.ToBalanceAfter,
		txn.ErrorMessage,
		txn.TransactionID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrNotFound
	}
	return nil
}
