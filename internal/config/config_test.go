package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMainConfig_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "store: memory\n")

	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("store: %q", cfg.Store)
	}
	if cfg.DefaultCurrency != "XAF" || cfg.MaxDisplayedErrors != 5 || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.FilenameFormat != "debts_{user}_{timestamp}.csv" {
		t.Fatalf("filename format: %q", cfg.FilenameFormat)
	}
}

func TestLoadMainConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
store: memory
default_currency: eur
phone_region: cm
enforce_due_after_loan: true
report_dropped_rows: true
max_displayed_errors: 3
log_format: text
`)

	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.DefaultCurrency != "EUR" || cfg.PhoneRegion != "CM" {
		t.Fatalf("codes must be upper-cased: %+v", cfg)
	}
	if !cfg.EnforceDueAfterLoan || !cfg.ReportDroppedRows || cfg.MaxDisplayedErrors != 3 {
		t.Fatalf("flags not read: %+v", cfg)
	}
}

func TestLoadMainConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "store: mysql\nlog_level: info\n")
	t.Setenv("DEBTLEDGER_STORE", "memory")
	t.Setenv("DEBTLEDGER_LOG_LEVEL", "debug")

	cfg, err := LoadMainConfig(path)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.LogLevel != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"store":     "store: postgres\n",
		"log level": "store: memory\nlog_level: loud\n",
		"format":    "store: memory\nlog_format: xml\n",
		"yaml":      "store: [memory\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadMainConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestLoadMainConfigOrDefault_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := LoadMainConfig(missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	cfg, err := LoadMainConfigOrDefault(missing)
	if err != nil {
		t.Fatalf("LoadMainConfigOrDefault: %v", err)
	}
	if cfg.Store != StoreMySQL || cfg.DefaultCurrency != "XAF" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn", "text")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level: %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected text formatter, got %T", logger.Formatter)
	}

	if _, err := NewLogger("nope", "json"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}
