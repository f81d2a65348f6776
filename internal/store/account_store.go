package store

import "context"

type AccountStore struct {
	db DB
}

type Account struct {
	ID        string  `db:"id"`
	UserID    *string `db:"user_id"`
	Currency  string  `db:"currency"`
	CreatedAt any     `db:"created_at"`
}

type AccountWithBalance struct {
	ID       string `db:"id"`
	Currency string `db:"currency"`
	Balance  int64  `db:"balance"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, id string, userID *string, currency string) error {
	query := `
		INSERT INTO accounts (id, user_id, currency)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, currency)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, currency, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// Balance folds the full transaction log for the account at read time.
// Deposits count positive, withdrawals negative; there is no stored
// running balance anywhere.
func (s *AccountStore) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := s.db.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(CASE WHEN type = 'DEPOSIT' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE account_id = $1
	`, accountID)
	return balance, err
}

func (s *AccountStore) ListByUserWithBalances(ctx context.Context, userID string) ([]AccountWithBalance, error) {
	var rows []AccountWithBalance
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id,
		       a.currency,
		       COALESCE(SUM(CASE WHEN t.type = 'DEPOSIT' THEN t.amount ELSE -t.amount END), 0) AS balance
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.user_id = $1
		GROUP BY a.id, a.currency
		ORDER BY a.currency
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
