package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestDeviceStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewDeviceStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "FROM devices") {
				t.Fatalf("unexpected query: %s", query)
			}
			if strings.Contains(query, "JOIN") {
				t.Fatalf("listing must not join the verification log: %s", query)
			}
			rows := dest.(*[]Device)
			*rows = []Device{
				{ID: "dev-1", DeviceID: "android-1", Status: DeviceStatusVerified},
				{ID: "dev-2", DeviceID: "android-2", Status: DeviceStatusPending},
			}
			return nil
		},
	})
	rows, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per device, got %d", len(rows))
	}
	if rows[1].Status != DeviceStatusPending {
		t.Fatalf("device without verification events must report PENDING, got %s", rows[1].Status)
	}
}

func TestDeviceStoreAppendVerification(t *testing.T) {
	ctx := context.Background()
	adminID := "admin-1"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO device_verifications") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 || args[1] != "dev-1" || args[3] != DeviceStatusVerified {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewDeviceStore(stubDB{})
	err := store.AppendVerification(ctx, execer, VerificationInput{
		ID:       "ver-1",
		DeviceID: "dev-1",
		AdminID:  &adminID,
		Status:   DeviceStatusVerified,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeviceStoreSetStatus(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "UPDATE devices") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != DeviceStatusVerified || args[1] != "dev-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewDeviceStore(stubDB{})
	rows, err := store.SetStatus(ctx, execer, "dev-1", DeviceStatusVerified)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row affected, got %d", rows)
	}
}

func TestDeviceStoreListVerifications(t *testing.T) {
	ctx := context.Background()
	store := NewDeviceStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM device_verifications") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "dev-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			rows := dest.(*[]DeviceVerification)
			*rows = []DeviceVerification{
				{ID: "ver-2", DeviceID: "dev-1", Status: DeviceStatusVerified},
				{ID: "ver-1", DeviceID: "dev-1", Status: DeviceStatusVerified},
			}
			return nil
		},
	})
	rows, err := store.ListVerifications(ctx, "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("approval history must be retained, got %d rows", len(rows))
	}
}
