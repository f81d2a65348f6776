package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/bonheur15/credit-jambo-admin/internal/auth"
	"github.com/bonheur15/credit-jambo-admin/internal/db"
	"github.com/bonheur15/credit-jambo-admin/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const adminRole = "admin"

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (store.RefreshToken, error)
	Revoke(ctx context.Context, tx store.Execer, id string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

// SessionService mints signed session assertions and runs the single-use
// refresh-token chain over the credential store and the token ledger.
type SessionService struct {
	txRunner   db.TxRunner
	users      UserStore
	tokens     TokenStore
	audit      AuditStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Session struct {
	Token         string
	RefreshSecret string
}

// RequestMeta carries request attribution into the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func NewSessionService(txRunner db.TxRunner, users UserStore, tokens TokenStore, audit AuditStore, jwtSecret string, accessTTL, refreshTTL time.Duration) *SessionService {
	return &SessionService{
		txRunner:   txRunner,
		users:      users,
		tokens:     tokens,
		audit:      audit,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Login authenticates an admin and issues a session. Unknown email,
// non-admin role, and digest mismatch all collapse into the same error so
// the response does not leak which check failed.
func (s *SessionService) Login(ctx context.Context, email, password string, meta RequestMeta) (Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.Role != adminRole {
		return Session{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.PasswordDigest, user.Salt, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, user, "login", meta)
}

// Refresh exchanges a live refresh secret for a new session, revoking the
// presented secret in the same transaction that records its replacement.
// A revoked secret showing up again is audited as reuse before being
// rejected.
func (s *SessionService) Refresh(ctx context.Context, refreshSecret string, meta RequestMeta) (Session, error) {
	tokenHash := auth.HashRefreshSecret(refreshSecret)
	token, err := s.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, err
	}
	now := s.now()
	if token.RevokedAt != nil {
		s.auditReuse(ctx, token, meta)
		return Session{}, ErrInvalidRefreshToken
	}
	if !now.Before(token.ExpiresAt) {
		return Session{}, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, err
	}

	jwt, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Email, user.Role, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	secret, hash, err := auth.NewRefreshSecret()
	if err != nil {
		return Session{}, err
	}
	newTokenID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		revoked, err := s.tokens.Revoke(ctx, tx, token.ID)
		if err != nil {
			return err
		}
		if revoked == 0 {
			// A concurrent refresh consumed this token first.
			return ErrInvalidRefreshToken
		}
		if err := s.tokens.Create(ctx, tx, newTokenID, user.ID, hash, now.Add(s.refreshTTL)); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"rotated_token_id": token.ID,
			"new_token_id":     newTokenID,
			"ip":               meta.IP,
			"user_agent":       meta.UserAgent,
		})
		return s.audit.Log(ctx, tx, user.ID, "refresh_token_rotate", "refresh_token", newTokenID, string(data))
	})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: jwt, RefreshSecret: secret}, nil
}

func (s *SessionService) issue(ctx context.Context, user store.User, action string, meta RequestMeta) (Session, error) {
	jwt, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Email, user.Role, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	secret, hash, err := auth.NewRefreshSecret()
	if err != nil {
		return Session{}, err
	}
	tokenID := uuid.NewString()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.tokens.Create(ctx, tx, tokenID, user.ID, hash, s.now().Add(s.refreshTTL)); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"token_id":   tokenID,
			"ip":         meta.IP,
			"user_agent": meta.UserAgent,
		})
		return s.audit.Log(ctx, tx, user.ID, action, "user", user.ID, string(data))
	})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: jwt, RefreshSecret: secret}, nil
}

func (s *SessionService) auditReuse(ctx context.Context, token store.RefreshToken, meta RequestMeta) {
	_ = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"token_id":   token.ID,
			"ip":         meta.IP,
			"user_agent": meta.UserAgent,
		})
		return s.audit.Log(ctx, tx, token.UserID, "refresh_token_reuse", "refresh_token", token.ID, string(data))
	})
}
