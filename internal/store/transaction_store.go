package store

import (
	"context"
	"database/sql"

	"github.com/bonheur15/credit-jambo-admin/internal/money"
)

const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"

	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// TransactionStore is an append-only log: rows are inserted by deposits
// and withdrawals and never updated or reversed.
type TransactionStore struct {
	db DB
}

type Transaction struct {
	ID        string  `db:"id"`
	AccountID string  `db:"account_id"`
	Type      string  `db:"type"`
	Status    string  `db:"status"`
	Amount    int64   `db:"amount"`
	Reference *string `db:"reference"`
	Meta      []byte  `db:"meta"`
	CreatedBy *string `db:"created_by"`
	CreatedAt any     `db:"created_at"`
}

type TransactionInput struct {
	ID        string
	AccountID string
	Type      string
	Status    string
	Amount    int64
	Reference *string
	Meta      string
	CreatedBy *string
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, account_id, type, status, amount, reference, meta, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.AccountID, input.Type, input.Status, input.Amount,
		input.Reference, input.Meta, input.CreatedBy,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, id string) (Transaction, error) {
	var row Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_id, type, status, amount, reference, meta, created_by, created_at
		FROM transactions
		WHERE id = $1
	`, id)
	if err != nil {
		return Transaction{}, err
	}
	return row, nil
}

// ListByAccount returns newest-first rows for one account. A limit of
// zero or less returns the full history.
func (s *TransactionStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	var rows []Transaction
	query := `
		SELECT id, account_id, type, status, amount, reference, meta, created_by, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{accountID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListAll(ctx context.Context) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, type, status, amount, reference, meta, created_by, created_at
		FROM transactions
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListRecent(ctx context.Context, limit int) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, type, status, amount, reference, meta, created_by, created_at
		FROM transactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM transactions`)
	return count, err
}

// SumVolume is the sign-agnostic raw sum over all amounts. Postgres
// returns SUM(bigint) as numeric, so the value comes back as text.
func (s *TransactionStore) SumVolume(ctx context.Context) (int64, error) {
	var raw sql.NullString
	err := s.db.GetContext(ctx, &raw, `SELECT COALESCE(SUM(amount), 0) FROM transactions`)
	if err != nil {
		return 0, err
	}
	if !raw.Valid {
		return 0, nil
	}
	return money.ValueToInt64(raw.String), nil
}
