// =============================================================================
// Debt Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the runtime every
// subcommand shares (configuration, logger, record store).
//
// COBRA CLI STRUCTURE:
//   rootCmd (debtledger)
//   ├── exportCmd      (debtledger export)
//   ├── importCmd      (debtledger import)
//   ├── validateCmd    (debtledger validate)
//   ├── markOverdueCmd (debtledger mark-overdue)
//   ├── serveCmd       (debtledger serve)
//   └── versionCmd     (debtledger version)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/debtledger/internal/config"
	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/importer"
	"github.com/ginjaninja78/debtledger/internal/notify"
	"github.com/ginjaninja78/debtledger/internal/store"
	"github.com/ginjaninja78/debtledger/internal/validation"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// storeKind overrides the configured store backend when non-empty.
var storeKind string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "debtledger",
	Short: "Debt Ledger - import and export personal debt records as CSV",
	Long: `Debt Ledger keeps track of money lent and borrowed and moves those records
in and out of CSV files.

Key Features:
  - Export every record of a user as CSV or XLSX
  - Import CSV or XLSX files with per-row error reporting
  - Pre-flight validation before anything is written
  - HTTP API for the same operations

Example Usage:
  debtledger export --user 42
  debtledger import --user 42 --file debts.csv --dry-run
  debtledger serve --addr :8080`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&storeKind,
		"store",
		"",
		"Record store backend: mysql or memory (overrides the config file). memory keeps nothing after the process exits; use it for tests and dry runs only",
	)
}

// =============================================================================
// SHARED RUNTIME
// =============================================================================

// app bundles what the subcommands need.
type app struct {
	cfg       *config.MainConfig
	logger    *logrus.Logger
	store     store.Store
	codec     *csvcodec.Codec
	validator *validation.Validator
	close     func() error
}

// setup loads configuration, builds the logger and opens the record store.
// When needStore is false no store is opened.
func setup(ctx context.Context, needStore bool) (*app, error) {
	cfg, err := config.LoadMainConfigOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if storeKind != "" {
		cfg.Store = storeKind
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		codec:  csvcodec.New(cfg.DefaultCurrency, logger),
		validator: validation.New(validation.Options{
			EnforceDueAfterLoan: cfg.EnforceDueAfterLoan,
			PhoneRegion:         cfg.PhoneRegion,
			CheckEmail:          cfg.CheckEmail,
		}),
		close: func() error { return nil },
	}

	if !needStore {
		return a, nil
	}

	switch cfg.Store {
	case config.StoreMemory:
		logger.WithField("module", "cmd").Warn("memory store in use: records are discarded when the process exits")
		a.store = store.NewMemoryStore()
	case config.StoreMySQL:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("database_dsn is required for the mysql store")
		}
		gs, err := store.Open(cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, err
		}
		if err := gs.Migrate(ctx); err != nil {
			gs.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.store = gs
		a.close = gs.Close
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	logger.WithFields(logrus.Fields{
		"module": "cmd",
		"store":  cfg.Store,
	}).Debug("store ready")

	return a, nil
}

// orchestrator builds an Orchestrator reporting to sink.
func (a *app) orchestrator(picker importer.FilePicker, sharer importer.Sharer, sink notify.Sink) *importer.Orchestrator {
	return importer.New(a.store, importer.Options{
		Codec:              a.codec,
		Validator:          a.validator,
		Picker:             picker,
		Sharer:             sharer,
		Sink:               sink,
		Logger:             a.logger,
		ReportDroppedRows:  a.cfg.ReportDroppedRows,
		MaxDisplayedErrors: a.cfg.MaxDisplayedErrors,
		FilenameFormat:     a.cfg.FilenameFormat,
	})
}
