package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bonheur15/credit-jambo-admin/internal/auth"
	"github.com/bonheur15/credit-jambo-admin/internal/config"
	"github.com/bonheur15/credit-jambo-admin/internal/services"
	"github.com/bonheur15/credit-jambo-admin/internal/store"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	getByIDFn func(ctx context.Context, userID string) (store.User, error)
	listFn    func(ctx context.Context) ([]store.User, error)
	countFn   func(ctx context.Context) (int64, error)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) List(ctx context.Context) ([]store.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubUserStore) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}

type stubAccountStore struct {
	getByIDFn                func(ctx context.Context, accountID string) (store.Account, error)
	balanceFn                func(ctx context.Context, accountID string) (int64, error)
	listByUserWithBalancesFn func(ctx context.Context, userID string) ([]store.AccountWithBalance, error)
}

func (s stubAccountStore) GetByID(ctx context.Context, accountID string) (store.Account, error) {
	if s.getByIDFn == nil {
		return store.Account{ID: accountID}, nil
	}
	return s.getByIDFn(ctx, accountID)
}

func (s stubAccountStore) Balance(ctx context.Context, accountID string) (int64, error) {
	if s.balanceFn == nil {
		return 0, nil
	}
	return s.balanceFn(ctx, accountID)
}

func (s stubAccountStore) ListByUserWithBalances(ctx context.Context, userID string) ([]store.AccountWithBalance, error) {
	if s.listByUserWithBalancesFn == nil {
		return nil, nil
	}
	return s.listByUserWithBalancesFn(ctx, userID)
}

type stubDeviceStore struct {
	getByIDFn            func(ctx context.Context, id string) (store.Device, error)
	listFn               func(ctx context.Context) ([]store.Device, error)
	appendVerificationFn func(ctx context.Context, tx store.Execer, input store.VerificationInput) error
	setStatusFn          func(ctx context.Context, tx store.Execer, deviceID, status string) (int64, error)
	listVerificationsFn  func(ctx context.Context, deviceID string) ([]store.DeviceVerification, error)
	countFn              func(ctx context.Context) (int64, error)
}

func (s stubDeviceStore) GetByID(ctx context.Context, id string) (store.Device, error) {
	if s.getByIDFn == nil {
		return store.Device{ID: id}, nil
	}
	return s.getByIDFn(ctx, id)
}

func (s stubDeviceStore) List(ctx context.Context) ([]store.Device, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubDeviceStore) AppendVerification(ctx context.Context, tx store.Execer, input store.VerificationInput) error {
	if s.appendVerificationFn == nil {
		return nil
	}
	return s.appendVerificationFn(ctx, tx, input)
}

func (s stubDeviceStore) SetStatus(ctx context.Context, tx store.Execer, deviceID, status string) (int64, error) {
	if s.setStatusFn == nil {
		return 1, nil
	}
	return s.setStatusFn(ctx, tx, deviceID, status)
}

func (s stubDeviceStore) ListVerifications(ctx context.Context, deviceID string) ([]store.DeviceVerification, error) {
	if s.listVerificationsFn == nil {
		return nil, nil
	}
	return s.listVerificationsFn(ctx, deviceID)
}

func (s stubDeviceStore) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}

type stubTransactionStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	getByIDFn       func(ctx context.Context, id string) (store.Transaction, error)
	listByAccountFn func(ctx context.Context, accountID string, limit int) ([]store.Transaction, error)
	listAllFn       func(ctx context.Context) ([]store.Transaction, error)
	listRecentFn    func(ctx context.Context, limit int) ([]store.Transaction, error)
	countFn         func(ctx context.Context) (int64, error)
	sumVolumeFn     func(ctx context.Context) (int64, error)
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) GetByID(ctx context.Context, id string) (store.Transaction, error) {
	if s.getByIDFn == nil {
		return store.Transaction{ID: id}, nil
	}
	return s.getByIDFn(ctx, id)
}

func (s stubTransactionStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]store.Transaction, error) {
	if s.listByAccountFn == nil {
		return nil, nil
	}
	return s.listByAccountFn(ctx, accountID, limit)
}

func (s stubTransactionStore) ListAll(ctx context.Context) ([]store.Transaction, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

func (s stubTransactionStore) ListRecent(ctx context.Context, limit int) ([]store.Transaction, error) {
	if s.listRecentFn == nil {
		return nil, nil
	}
	return s.listRecentFn(ctx, limit)
}

func (s stubTransactionStore) Count(ctx context.Context) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}

func (s stubTransactionStore) SumVolume(ctx context.Context) (int64, error) {
	if s.sumVolumeFn == nil {
		return 0, nil
	}
	return s.sumVolumeFn(ctx)
}

type stubSnapshotStore struct {
	recordFn func(ctx context.Context, tx store.Execer, id, accountID string, balance int64) error
	latestFn func(ctx context.Context, accountID string) (store.BalanceSnapshot, error)
}

func (s stubSnapshotStore) Record(ctx context.Context, tx store.Execer, id, accountID string, balance int64) error {
	if s.recordFn == nil {
		return nil
	}
	return s.recordFn(ctx, tx, id, accountID, balance)
}

func (s stubSnapshotStore) Latest(ctx context.Context, accountID string) (store.BalanceSnapshot, error) {
	if s.latestFn == nil {
		return store.BalanceSnapshot{}, nil
	}
	return s.latestFn(ctx, accountID)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubSessionService struct {
	loginFn   func(ctx context.Context, email, password string, meta services.RequestMeta) (services.Session, error)
	refreshFn func(ctx context.Context, refreshSecret string, meta services.RequestMeta) (services.Session, error)
}

func (s stubSessionService) Login(ctx context.Context, email, password string, meta services.RequestMeta) (services.Session, error) {
	if s.loginFn == nil {
		return services.Session{}, nil
	}
	return s.loginFn(ctx, email, password, meta)
}

func (s stubSessionService) Refresh(ctx context.Context, refreshSecret string, meta services.RequestMeta) (services.Session, error) {
	if s.refreshFn == nil {
		return services.Session{}, nil
	}
	return s.refreshFn(ctx, refreshSecret, meta)
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		AllowedOrigins:  "*",
	}
}

func newTestHandler(users UserStore, accounts AccountStore, devices DeviceStore, transactions TransactionStore, snapshots SnapshotStore, audit AuditStore, sessions SessionService) *Handler {
	return New(fakeTxRunner{}, testConfig(), users, accounts, devices, transactions, snapshots, audit, sessions, nil)
}

func adminContext(t *testing.T, r *http.Request) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", "admin-1", "admin@example.com", "admin", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func serveAuthed(t *testing.T, handler *Handler, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, adminContext(t, r))
	return rr
}
