package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bonheur15/credit-jambo-admin/internal/auth"
	"github.com/bonheur15/credit-jambo-admin/internal/store"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type stubUserStore struct {
	getByEmailFn func(ctx context.Context, email string) (store.User, error)
	getByIDFn    func(ctx context.Context, userID string) (store.User, error)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, userID)
}

// memoryTokenStore implements the ledger semantics in memory so rotation
// chains can be exercised end to end.
type memoryTokenStore struct {
	rows map[string]*store.RefreshToken
	now  func() time.Time
}

func newMemoryTokenStore(now func() time.Time) *memoryTokenStore {
	return &memoryTokenStore{rows: make(map[string]*store.RefreshToken), now: now}
}

func (m *memoryTokenStore) Create(_ context.Context, _ store.Execer, id, userID, tokenHash string, expiresAt time.Time) error {
	m.rows[id] = &store.RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *memoryTokenStore) GetByHash(_ context.Context, tokenHash string) (store.RefreshToken, error) {
	for _, row := range m.rows {
		if row.TokenHash == tokenHash {
			return *row, nil
		}
	}
	return store.RefreshToken{}, sql.ErrNoRows
}

func (m *memoryTokenStore) Revoke(_ context.Context, _ store.Execer, id string) (int64, error) {
	row, ok := m.rows[id]
	if !ok || row.RevokedAt != nil {
		return 0, nil
	}
	revokedAt := m.now()
	row.RevokedAt = &revokedAt
	return 1, nil
}

type stubAuditStore struct {
	actions []string
}

func (s *stubAuditStore) Log(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
	s.actions = append(s.actions, action)
	return nil
}

func adminUser(t *testing.T) store.User {
	t.Helper()
	salt, err := auth.NewSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}
	return store.User{
		ID:             "user-1",
		Email:          "admin@example.com",
		Name:           "Admin",
		PasswordDigest: auth.HashPassword("pass1234", salt),
		Salt:           salt,
		Role:           "admin",
	}
}

func newService(users UserStore, tokens TokenStore, audit AuditStore) *SessionService {
	return NewSessionService(fakeTxRunner{}, users, tokens, audit, "secret", 15*time.Minute, 7*24*time.Hour)
}

func TestLoginSuccess(t *testing.T) {
	user := adminUser(t)
	tokens := newMemoryTokenStore(time.Now)
	audit := &stubAuditStore{}
	svc := newService(stubUserStore{
		getByEmailFn: func(_ context.Context, email string) (store.User, error) {
			if email != user.Email {
				return store.User{}, sql.ErrNoRows
			}
			return user, nil
		},
	}, tokens, audit)

	session, err := svc.Login(context.Background(), user.Email, "pass1234", RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := auth.ParseToken("secret", session.Token)
	if err != nil {
		t.Fatalf("session assertion should parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != user.Email || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
	if session.RefreshSecret == "" {
		t.Fatalf("expected a refresh secret")
	}
	stored, err := tokens.GetByHash(context.Background(), auth.HashRefreshSecret(session.RefreshSecret))
	if err != nil {
		t.Fatalf("refresh secret hash should be persisted: %v", err)
	}
	if stored.TokenHash == session.RefreshSecret {
		t.Fatalf("raw secret must never be stored")
	}
	if len(audit.actions) != 1 || audit.actions[0] != "login" {
		t.Fatalf("expected a login audit entry, got %v", audit.actions)
	}
}

func TestLoginFailures(t *testing.T) {
	user := adminUser(t)
	nonAdmin := user
	nonAdmin.Role = "user"
	cases := []struct {
		name     string
		store    stubUserStore
		email    string
		password string
	}{
		{
			name:     "unknown email",
			store:    stubUserStore{},
			email:    "nobody@example.com",
			password: "pass1234",
		},
		{
			name: "wrong password",
			store: stubUserStore{getByEmailFn: func(context.Context, string) (store.User, error) {
				return user, nil
			}},
			email:    user.Email,
			password: "wrongpass",
		},
		{
			name: "non-admin role",
			store: stubUserStore{getByEmailFn: func(context.Context, string) (store.User, error) {
				return nonAdmin, nil
			}},
			email:    user.Email,
			password: "pass1234",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(tc.store, newMemoryTokenStore(time.Now), &stubAuditStore{})
			if _, err := svc.Login(context.Background(), tc.email, tc.password, RequestMeta{}); err != ErrInvalidCredentials {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRefreshRotatesSingleUse(t *testing.T) {
	user := adminUser(t)
	tokens := newMemoryTokenStore(time.Now)
	audit := &stubAuditStore{}
	users := stubUserStore{
		getByEmailFn: func(context.Context, string) (store.User, error) { return user, nil },
		getByIDFn:    func(context.Context, string) (store.User, error) { return user, nil },
	}
	svc := newService(users, tokens, audit)

	session, err := svc.Login(context.Background(), user.Email, "pass1234", RequestMeta{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), session.RefreshSecret, RequestMeta{})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.RefreshSecret == session.RefreshSecret {
		t.Fatalf("rotation must issue a fresh secret")
	}

	// The consumed secret can never be used again.
	if _, err := svc.Refresh(context.Background(), session.RefreshSecret, RequestMeta{}); err != ErrInvalidRefreshToken {
		t.Fatalf("expected consumed secret to be rejected, got %v", err)
	}
	reuseSeen := false
	for _, action := range audit.actions {
		if action == "refresh_token_reuse" {
			reuseSeen = true
		}
	}
	if !reuseSeen {
		t.Fatalf("reuse of a revoked secret must be audited, got %v", audit.actions)
	}

	// The replacement works exactly once until its own rotation.
	again, err := svc.Refresh(context.Background(), rotated.RefreshSecret, RequestMeta{})
	if err != nil {
		t.Fatalf("new secret should refresh: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), rotated.RefreshSecret, RequestMeta{}); err != ErrInvalidRefreshToken {
		t.Fatalf("expected rotated-out secret to be rejected, got %v", err)
	}
	if again.Token == "" {
		t.Fatalf("expected a session assertion on refresh")
	}
}

func TestRefreshUnknownSecret(t *testing.T) {
	svc := newService(stubUserStore{}, newMemoryTokenStore(time.Now), &stubAuditStore{})
	if _, err := svc.Refresh(context.Background(), "deadbeef", RequestMeta{}); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshExpiredSecret(t *testing.T) {
	user := adminUser(t)
	tokens := newMemoryTokenStore(time.Now)
	audit := &stubAuditStore{}
	users := stubUserStore{
		getByEmailFn: func(context.Context, string) (store.User, error) { return user, nil },
		getByIDFn:    func(context.Context, string) (store.User, error) { return user, nil },
	}
	svc := newService(users, tokens, audit)
	session, err := svc.Login(context.Background(), user.Email, "pass1234", RequestMeta{})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	// Move the clock past the refresh TTL.
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := svc.Refresh(context.Background(), session.RefreshSecret, RequestMeta{}); err != ErrInvalidRefreshToken {
		t.Fatalf("expected expired secret to be rejected, got %v", err)
	}
}
