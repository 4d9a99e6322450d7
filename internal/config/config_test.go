package config

import (
	"testing"
	"time"
)

// setRequiredEnv seeds the variables without which Load always fails.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_OWNER_ADDRESS", "0xowner")
	t.Setenv("LEDGER_ORACLE_ADDRESS", "0xoracle")
	t.Setenv("LEDGER_PLATFORM_FEE_ADDRESS", "0xfees")
	t.Setenv("TREASURY_BASE_URL", "http://treasury.local")
}

func TestLoad_RequiredAddresses(t *testing.T) {
	cases := []string{
		"LEDGER_OWNER_ADDRESS",
		"LEDGER_ORACLE_ADDRESS",
		"LEDGER_PLATFORM_FEE_ADDRESS",
		"TREASURY_BASE_URL",
	}
	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")
			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s is missing", missing)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppEnv != EnvDev {
		t.Fatalf("unexpected AppEnv: %q", cfg.AppEnv)
	}
	if cfg.ServiceName != "squad-ledger-api" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.PlatformFeeRateBps != 1000 {
		t.Fatalf("unexpected PlatformFeeRateBps: %d", cfg.PlatformFeeRateBps)
	}
	if cfg.TicketLaxIndexCheck {
		t.Fatalf("expected TicketLaxIndexCheck=false by default")
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected CacheTTL: %s", cfg.CacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.HeimdallBaseURL != "http://localhost:8081" {
		t.Fatalf("unexpected HeimdallBaseURL: %q", cfg.HeimdallBaseURL)
	}
	if cfg.HeimdallIntrospectPath != "/v1/auth/introspect" {
		t.Fatalf("unexpected HeimdallIntrospectPath: %q", cfg.HeimdallIntrospectPath)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_FeeRateBounds(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("LEDGER_PLATFORM_FEE_RATE_BPS", "10001")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for fee rate above 10000")
	}

	t.Setenv("LEDGER_PLATFORM_FEE_RATE_BPS", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric fee rate")
	}

	t.Setenv("LEDGER_PLATFORM_FEE_RATE_BPS", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PlatformFeeRateBps != 0 {
		t.Fatalf("unexpected PlatformFeeRateBps: %d", cfg.PlatformFeeRateBps)
	}
}

func TestLoad_ArchiveRequiresDBURLWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("ARCHIVE_DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when ARCHIVE_ENABLED=true without ARCHIVE_DB_URL")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_TreasuryConfigParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TREASURY_API_KEY", "key-123")
	t.Setenv("TREASURY_TIMEOUT", "4s")
	t.Setenv("TREASURY_MAX_RETRIES", "5")
	t.Setenv("TREASURY_CIRCUIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TreasuryAPIKey != "key-123" {
		t.Fatalf("unexpected TreasuryAPIKey")
	}
	if cfg.TreasuryTimeout != 4*time.Second {
		t.Fatalf("unexpected TreasuryTimeout: %s", cfg.TreasuryTimeout)
	}
	if cfg.TreasuryMaxRetries != 5 {
		t.Fatalf("unexpected TreasuryMaxRetries: %d", cfg.TreasuryMaxRetries)
	}
	if cfg.TreasuryCircuitEnabled {
		t.Fatalf("expected TreasuryCircuitEnabled=false")
	}
}

func TestLoad_CORSParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[0] != "https://a.example.com" || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}
