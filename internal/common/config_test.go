package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPAddr != ":8000" {
		t.Errorf("http addr = %q, want :8000", cfg.Server.HTTPAddr)
	}
	if cfg.Fraud.AvgCostMultiplier != 1.5 {
		t.Errorf("avg cost multiplier = %v, want 1.5", cfg.Fraud.AvgCostMultiplier)
	}
	if cfg.Fraud.HighAmount != 100000 {
		t.Errorf("high amount = %d, want 100000", cfg.Fraud.HighAmount)
	}
	if cfg.OCR.Timeout != 90*time.Second {
		t.Errorf("ocr timeout = %v, want 90s", cfg.OCR.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "server:\n  http_addr: \":9000\"\nfraud:\n  high_amount: 250000\n  strict_location: true\nreference:\n  hospitals_path: /data/h.xlsx\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9000" {
		t.Errorf("http addr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Fraud.HighAmount != 250000 {
		t.Errorf("high amount = %d", cfg.Fraud.HighAmount)
	}
	if !cfg.Fraud.StrictLocation {
		t.Error("expected strict_location from file")
	}
	if cfg.Reference.HospitalsPath != "/data/h.xlsx" {
		t.Errorf("hospitals path = %q", cfg.Reference.HospitalsPath)
	}
	// untouched keys keep defaults
	if cfg.Fraud.MinClaimIDLength != 5 {
		t.Errorf("min claim id length = %d", cfg.Fraud.MinClaimIDLength)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/claims.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CLAIMS_SERVER_HTTP_ADDR", ":7000")
	t.Setenv("DB_URL", "postgres://u:p@localhost/claims")
	t.Setenv("GRPC_ADDR", "9090")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.HTTPAddr != ":7000" {
		t.Errorf("http addr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.DSN != "postgres://u:p@localhost/claims" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Server.GRPCAddr != ":9090" {
		t.Errorf("grpc addr = %q", cfg.Server.GRPCAddr)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg, _ := LoadConfig("")
	cfg.Log.Format = "xml"
	cfg.Fraud.AvgCostMultiplier = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if !IsConfigError(err) {
		t.Errorf("expected config error code, got %v", err)
	}
}
