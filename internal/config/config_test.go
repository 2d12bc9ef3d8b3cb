package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("expected empty GEMINI_API_KEY when unset, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoadRejectsBadVATRate(t *testing.T) {
	t.Setenv("VAT_RATE", "1.5")
	if got := Load().VATRate; got != 0.16 {
		t.Fatalf("VAT rate = %v, want default 0.16", got)
	}
	t.Setenv("VAT_RATE", "not-a-number")
	if got := Load().VATRate; got != 0.16 {
		t.Fatalf("VAT rate = %v, want default 0.16", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_BRANCH_ID", "")
	t.Setenv("SUMMARY_CACHE_TTL_MINUTES", "0")

	cfg := Load()
	if cfg.Port != "8080" || cfg.Address() != ":8080" {
		t.Fatalf("port = %q addr = %q", cfg.Port, cfg.Address())
	}
	if cfg.DefaultBranch != "main" {
		t.Fatalf("default branch = %q", cfg.DefaultBranch)
	}
	if cfg.SummaryCacheTTLMinutes != 15 {
		t.Fatalf("summary ttl = %d, want fallback 15", cfg.SummaryCacheTTLMinutes)
	}
}
