package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bonheur15/credit-jambo-admin/internal/store"
)

func TestListUsersHidesCredentials(t *testing.T) {
	users := stubUserStore{
		listFn: func(ctx context.Context) ([]store.User, error) {
			return []store.User{
				{ID: "user-1", Email: "one@example.com", Name: "One", PasswordDigest: "deadbeef", Salt: "cafe", Role: "user"},
				{ID: "user-2", Email: "two@example.com", Name: "Two", PasswordDigest: "deadbeef", Salt: "cafe", Role: "admin"},
			}, nil
		},
	}
	handler := newTestHandler(users, stubAccountStore{}, stubDeviceStore{}, stubTransactionStore{}, stubSnapshotStore{}, stubAuditStore{}, stubSessionService{})

	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	rr := serveAuthed(t, handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp))
	}
	for _, row := range resp {
		for _, forbidden := range []string{"password_digest", "salt"} {
			if _, ok := row[forbidden]; ok {
				t.Fatalf("response leaked %s: %+v", forbidden, row)
			}
		}
	}
	if resp[0]["email"] != "one@example.com" {
		t.Fatalf("unexpected first user: %+v", resp[0])
	}
}

func TestGetUserWithAccountBalances(t *testing.T) {
	users := stubUserStore{
		getByIDFn: func(ctx context.Context, userID string) (store.User, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return store.User{ID: "user-1", Email: "one@example.com", Name: "One", Role: "user"}, nil
		},
	}
	accounts := stubAccountStore{
		listByUserWithBalancesFn: func(ctx context.Context, userID string) ([]store.AccountWithBalance, error) {
			return []store.AccountWithBalance{
				{ID: "acct-1", Currency: "RWF", Balance: 7500},
			}, nil
		},
	}
	handler := newTestHandler(users, accounts, stubDeviceStore{}, stubTransactionStore{}, stubSnapshotStore{}, stubAuditStore{}, stubSessionService{})

	req := httptest.NewRequest(http.MethodGet, "/users/user-1", nil)
	rr := serveAuthed(t, handler, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	accountsRaw, ok := resp["accounts"].([]any)
	if !ok || len(accountsRaw) != 1 {
		t.Fatalf("expected one account, got %+v", resp["accounts"])
	}
	account := accountsRaw[0].(map[string]any)
	if account["balance"] != "75.00" {
		t.Fatalf("expected formatted balance 75.00, got %v", account["balance"])
	}
}

func TestGetUserNotFound(t *testing.T) {
	users := stubUserStore{
		getByIDFn: func(ctx context.Context, userID string) (store.User, error) {
			return store.User{}, sql.ErrNoRows
		},
	}
	handler := newTestHandler(users, stubAccountStore{}, stubDeviceStore{}, stubTransactionStore{}, stubSnapshotStore{}, stubAuditStore{}, stubSessionService{})

	req := httptest.NewRequest(http.MethodGet, "/users/missing", nil)
	rr := serveAuthed(t, handler, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
