package store

import "context"

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type User struct {
	ID             string `db:"id"`
	Email          string `db:"email"`
	Name           string `db:"name"`
	PasswordDigest string `db:"password_digest"`
	Salt           string `db:"salt"`
	Role           string `db:"role"`
	CreatedAt      any    `db:"created_at"`
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, email, name, passwordDigest, salt, role string) error {
	query := `
		INSERT INTO users (id, email, name, password_digest, salt, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, id, email, name, passwordDigest, salt, role)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, name, password_digest, salt, role, created_at
		FROM users
		WHERE email = $1
	`, email)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, name, password_digest, salt, role, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return User{}, err
	}
	return row, nil
}

func (s *UserStore) List(ctx context.Context) ([]User, error) {
	var rows []User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, email, name, password_digest, salt, role, created_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}
