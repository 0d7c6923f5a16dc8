// =============================================================================
// Debt Ledger - Configuration Module
// =============================================================================
//
// This module loads the application configuration.
//
// SOURCES (later wins):
//   1. Built-in defaults (Default)
//   2. The YAML file given with --config (config.yaml by default)
//   3. Environment variables, optionally from a .env file:
//        DEBTLEDGER_STORE, DEBTLEDGER_DATABASE_DSN, DEBTLEDGER_DEFAULT_CURRENCY,
//        DEBTLEDGER_PHONE_REGION, DEBTLEDGER_LOG_LEVEL, DEBTLEDGER_LOG_FORMAT,
//        DEBTLEDGER_OUTPUT_DIR, DEBTLEDGER_LISTEN_ADDR
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// STORAGE
	// =========================================================================

	// Store selects the record store backend: "mysql" or "memory".
	// Default: "mysql"
	Store string `yaml:"store"`

	// DatabaseDSN is the MySQL data source name used by the mysql store.
	// Example: "user:pass@tcp(127.0.0.1:3306)/debts?parseTime=true"
	DatabaseDSN string `yaml:"database_dsn"`

	// =========================================================================
	// IMPORT / VALIDATION
	// =========================================================================

	// DefaultCurrency replaces an empty currency column on import.
	// Default: "XAF"
	DefaultCurrency string `yaml:"default_currency"`

	// PhoneRegion, when set, makes contact_phone validation region-aware
	// (ISO 3166 alpha-2, e.g. "CM").
	PhoneRegion string `yaml:"phone_region"`

	// CheckEmail rejects malformed contact_email values on import.
	CheckEmail bool `yaml:"check_email"`

	// EnforceDueAfterLoan rejects rows whose due_date precedes loan_date.
	EnforceDueAfterLoan bool `yaml:"enforce_due_after_loan"`

	// ReportDroppedRows surfaces rows the lenient decoder discarded as
	// import errors instead of only logging them.
	ReportDroppedRows bool `yaml:"report_dropped_rows"`

	// MaxDisplayedErrors caps the error lines shown in an import summary.
	// Default: 5
	MaxDisplayedErrors int `yaml:"max_displayed_errors"`

	// ArchiveTimestampSubdirs files archived imports under YYYY/MM/DD
	// subdirectories of the archive directory.
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs"`

	// =========================================================================
	// EXPORT
	// =========================================================================

	// OutputDir is where exported files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// FilenameFormat names exported files. Placeholders: {user}, {uuid},
	// {timestamp}, {date}, {time}.
	// Default: "debts_{user}_{timestamp}.csv"
	FilenameFormat string `yaml:"filename_format"`

	// =========================================================================
	// LOGGING / SERVER
	// =========================================================================

	// LogLevel: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat: "json" or "text".
	// Default: "json"
	LogFormat string `yaml:"log_format"`

	// ListenAddr is the HTTP listen address for the serve command.
	// Default: ":8080"
	ListenAddr string `yaml:"listen_addr"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied and environment
// overrides read.
func Default() *MainConfig {
	var config MainConfig
	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadMainConfigOrDefault behaves like LoadMainConfig but falls back to
// Default when the file does not exist.
func LoadMainConfigOrDefault(configPath string) (*MainConfig, error) {
	config, err := LoadMainConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		config = Default()
		if err := validateMainConfig(config); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return config, nil
	}
	return config, err
}

// applyEnvOverrides reads .env (if present) and copies DEBTLEDGER_* variables
// over the file values.
func applyEnvOverrides(config *MainConfig) {
	// A missing .env file is normal.
	_ = godotenv.Load()

	overrides := map[string]*string{
		"DEBTLEDGER_STORE":            &config.Store,
		"DEBTLEDGER_DATABASE_DSN":     &config.DatabaseDSN,
		"DEBTLEDGER_DEFAULT_CURRENCY": &config.DefaultCurrency,
		"DEBTLEDGER_PHONE_REGION":     &config.PhoneRegion,
		"DEBTLEDGER_LOG_LEVEL":        &config.LogLevel,
		"DEBTLEDGER_LOG_FORMAT":       &config.LogFormat,
		"DEBTLEDGER_OUTPUT_DIR":       &config.OutputDir,
		"DEBTLEDGER_LISTEN_ADDR":      &config.ListenAddr,
	}
	for key, target := range overrides {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*target = value
		}
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Store == "" {
		config.Store = StoreMySQL
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "XAF"
	}
	if config.MaxDisplayedErrors <= 0 {
		config.MaxDisplayedErrors = 5
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.FilenameFormat == "" {
		config.FilenameFormat = "debts_{user}_{timestamp}.csv"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "json"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	config.DefaultCurrency = strings.ToUpper(config.DefaultCurrency)
	config.PhoneRegion = strings.ToUpper(config.PhoneRegion)
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch config.Store {
	case StoreMySQL, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %q or %q)", config.Store, StoreMySQL, StoreMemory)
	}

	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch config.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log_format %q", config.LogFormat)
	}

	if len(config.DefaultCurrency) < 2 || len(config.DefaultCurrency) > 4 {
		return fmt.Errorf("default_currency %q is not a currency code", config.DefaultCurrency)
	}

	return nil
}
