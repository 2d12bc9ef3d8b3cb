package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"veira/backend/internal/config"
	"veira/backend/internal/domain"
)

func TestValidateSecurityConfigRejectsWeakProductionSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{AppEnv: "production", AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak production secret to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{AppEnv: "production", AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestSnapshotRoundTripThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	logger := zap.NewNop()

	first := loadMemoryStore(path, logger)
	if _, err := first.CreateProduct(context.Background(), domain.Product{
		ID: "p-x", Name: "Snapshot Product", PriceCents: 1500,
	}, "main", 7); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if err := saveSnapshot(first, path); err != nil {
		t.Fatalf("saveSnapshot: %v", err)
	}

	second := loadMemoryStore(path, logger)
	p, err := second.GetProduct(context.Background(), "main", "p-x")
	if err != nil {
		t.Fatalf("GetProduct after restore: %v", err)
	}
	if p.Name != "Snapshot Product" || p.Stock != 7 {
		t.Fatalf("restored product = %+v", p)
	}
}

func TestLoadMemoryStoreIgnoresCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}
	s := loadMemoryStore(path, zap.NewNop())
	products, err := s.ListProducts(context.Background(), "main")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) == 0 {
		t.Fatalf("expected seeded catalog after corrupt snapshot")
	}
}
