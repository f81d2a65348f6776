package store

import "context"

// SnapshotStore records balance checkpoint rows. Snapshots bound the cost
// of replaying long transaction histories but are never consulted by the
// read-time balance fold itself.
type SnapshotStore struct {
	db DB
}

type BalanceSnapshot struct {
	ID        string `db:"id"`
	AccountID string `db:"account_id"`
	Balance   int64  `db:"balance"`
	CreatedAt any    `db:"created_at"`
}

func NewSnapshotStore(db DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Record(ctx context.Context, tx Execer, id, accountID string, balance int64) error {
	query := `
		INSERT INTO account_balance_snapshots (id, account_id, balance)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, accountID, balance)
	return err
}

func (s *SnapshotStore) Latest(ctx context.Context, accountID string) (BalanceSnapshot, error) {
	var row BalanceSnapshot
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_id, balance, created_at
		FROM account_balance_snapshots
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, accountID)
	if err != nil {
		return BalanceSnapshot{}, err
	}
	return row, nil
}
