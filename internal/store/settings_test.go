package store

import (
	"context"
	"testing"

	"github.com/erazemk/eventify/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSettingRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, "timezone")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value for unset key, got %q", v)
	}

	if err := SetSetting(ctx, database, "timezone", "Asia/Kolkata"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, "timezone", "Europe/Ljubljana"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}

	v, _ = GetSetting(ctx, database, "timezone")
	if v != "Europe/Ljubljana" {
		t.Errorf("expected overwritten value, got %q", v)
	}
}
