package store

import (
	"context"
	"strings"
	"testing"
)

func TestAccountStoreBalanceFold(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SUM(CASE WHEN type = 'DEPOSIT' THEN amount ELSE -amount END)") {
				t.Fatalf("balance must be a signed fold over the log: %s", query)
			}
			if len(args) != 1 || args[0] != "acc-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			// DEPOSIT 100.00, WITHDRAWAL 30.00, DEPOSIT 5.00 -> 75.00
			*(dest.(*int64)) = 7500
			return nil
		},
	})
	balance, err := store.Balance(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 7500 {
		t.Fatalf("expected 7500 minor units, got %d", balance)
	}
}

func TestAccountStoreBalanceEmptyAccount(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "COALESCE") {
				t.Fatalf("fold must coalesce an empty log to zero: %s", query)
			}
			*(dest.(*int64)) = 0
			return nil
		},
	})
	balance, err := store.Balance(ctx, "acc-empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected 0 for account without transactions, got %d", balance)
	}
}

func TestAccountStoreGetByID(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM accounts") {
				t.Fatalf("unexpected query: %s", query)
			}
			row := dest.(*Account)
			*row = Account{ID: "acc-1", Currency: "RWF"}
			return nil
		},
	})
	row, err := store.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Currency != "RWF" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestAccountStoreListByUserWithBalances(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "GROUP BY a.id, a.currency") {
				t.Fatalf("expected grouped fold per account: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			rows := dest.(*[]AccountWithBalance)
			*rows = []AccountWithBalance{{ID: "acc-1", Currency: "RWF", Balance: 7500}}
			return nil
		},
	})
	rows, err := store.ListByUserWithBalances(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Balance != 7500 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
