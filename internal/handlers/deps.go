package handlers

import (
	"context"

	"github.com/bonheur15/credit-jambo-admin/internal/services"
	"github.com/bonheur15/credit-jambo-admin/internal/store"
)

type UserStore interface {
	GetByID(ctx context.Context, userID string) (store.User, error)
	List(ctx context.Context) ([]store.User, error)
	Count(ctx context.Context) (int64, error)
}

type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (store.Account, error)
	Balance(ctx context.Context, accountID string) (int64, error)
	ListByUserWithBalances(ctx context.Context, userID string) ([]store.AccountWithBalance, error)
}

type DeviceStore interface {
	GetByID(ctx context.Context, id string) (store.Device, error)
	List(ctx context.Context) ([]store.Device, error)
	AppendVerification(ctx context.Context, tx store.Execer, input store.VerificationInput) error
	SetStatus(ctx context.Context, tx store.Execer, deviceID, status string) (int64, error)
	ListVerifications(ctx context.Context, deviceID string) ([]store.DeviceVerification, error)
	Count(ctx context.Context) (int64, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetByID(ctx context.Context, id string) (store.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]store.Transaction, error)
	ListAll(ctx context.Context) ([]store.Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]store.Transaction, error)
	Count(ctx context.Context) (int64, error)
	SumVolume(ctx context.Context) (int64, error)
}

type SnapshotStore interface {
	Record(ctx context.Context, tx store.Execer, id, accountID string, balance int64) error
	Latest(ctx context.Context, accountID string) (store.BalanceSnapshot, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type SessionService interface {
	Login(ctx context.Context, email, password string, meta services.RequestMeta) (services.Session, error)
	Refresh(ctx context.Context, refreshSecret string, meta services.RequestMeta) (services.Session, error)
}
