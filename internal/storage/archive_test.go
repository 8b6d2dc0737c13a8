package storage

import (
	"context"
	"testing"
	"time"

	"garment-backend/internal/config"
)

func TestSlipKey(t *testing.T) {
	got := SlipKey("STL-000042", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	if got != "slips/2024-03/STL-000042.pdf" {
		t.Fatalf("SlipKey = %q", got)
	}
}

func TestDisabledArchiver(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}

	a, err := NewArchiver(ctx, cfg)
	if err != nil || a != nil {
		t.Fatalf("disabled storage: archiver=%v err=%v", a, err)
	}
	if a.Enabled() {
		t.Fatal("nil archiver reports enabled")
	}
	if err := a.Put(ctx, "k", []byte("x"), "application/pdf"); err != nil {
		t.Fatalf("Put on nil archiver: %v", err)
	}

	cfg.Storage.Enabled = true
	if _, err := NewArchiver(ctx, cfg); err == nil {
		t.Fatal("expected error for enabled storage without bucket")
	}
}
