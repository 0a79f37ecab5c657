package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/erazemk/eventify/internal/db"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("booking created", "resource_id", 1)
	logger.Warn("publishing notification")
	logger.With("request_id", "abc").Error("request failed")

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(stdout.String(), "booking created") || !strings.Contains(stdout.String(), "publishing notification") {
		t.Errorf("expected info and warn on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "request failed") {
		t.Error("error record written to stdout")
	}
	if !strings.Contains(stderr.String(), "request_id=abc") {
		t.Errorf("expected error with attrs on stderr, got %q", stderr.String())
	}
}

func TestLevelRouterDebug(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(&stdout, &stderr, slog.LevelDebug))

	logger.WithGroup("lock").Debug("retrying event transaction", "attempt", 1)
	if !strings.Contains(stdout.String(), "lock.attempt=1") {
		t.Errorf("expected grouped debug record, got %q", stdout.String())
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	b, _ := generatePassword(16)
	if len(a) != 16 || len(b) != 16 {
		t.Errorf("expected 16 characters, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Error("expected different passwords")
	}
}

func TestPinTimeZone(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := pinTimeZone(ctx, database, "Europe/Ljubljana"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := pinTimeZone(ctx, database, "Europe/Ljubljana"); err != nil {
		t.Errorf("same zone: %v", err)
	}
	if err := pinTimeZone(ctx, database, "UTC"); err == nil {
		t.Error("expected error for a different zone")
	}
}
