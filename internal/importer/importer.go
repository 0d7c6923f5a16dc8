// =============================================================================
// Debt Ledger - Import/Export Orchestrator
// =============================================================================
//
// This module ties the CSV codec, the validator and the record store together
// into the user-facing import and export operations.
//
// EXPORT PIPELINE:
//   1. List the user's records from the store
//   2. Encode them as CSV text
//   3. (ExportAndShare) hand the text to the sharing facility
//
// IMPORT PIPELINE:
//   1. Decode the CSV text into candidate records
//   2. Validate the candidates
//   3. Persist every valid candidate, one at a time, in input order
//   4. Build an ImportReport and push it to the notification sink
//
// FAILURE SEMANTICS:
//   - A structural decode failure aborts the call with a single error.
//   - A row that fails validation or persistence is recorded as
//     "Row N: ..." (N counts the header as row 1) and the batch continues.
//   - Nothing is retried. There is no surrounding transaction.
//
// =============================================================================

package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/debtledger/internal/config"
	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/notify"
	"github.com/ginjaninja78/debtledger/internal/types"
	"github.com/ginjaninja78/debtledger/internal/validation"
	"github.com/ginjaninja78/debtledger/pkg/utils"
)

const moduleName = "importer"

// ErrNoRecords is returned when an export finds nothing to export.
var ErrNoRecords = errors.New("no records")

// =============================================================================
// COLLABORATORS
// =============================================================================

// RecordStore is the persistence the orchestrator reads from and writes to.
type RecordStore interface {
	ListRecords(ctx context.Context, userID string) ([]types.DebtRecord, error)
	CreateRecord(ctx context.Context, userID string, record types.DebtRecord) error
}

// FilePicker resolves the text of a file chosen by the user. cancelled is
// true when the user backed out without choosing.
type FilePicker interface {
	PickTextFile(ctx context.Context) (text string, cancelled bool, err error)
}

// Sharer delivers exported text under a file name and returns where it went.
type Sharer interface {
	WriteAndShare(ctx context.Context, text, filename string) (string, error)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Options configures an Orchestrator. Zero values are usable: the package
// defaults for the codec and validator are used, and messages are discarded.
type Options struct {
	Codec     *csvcodec.Codec
	Validator *validation.Validator
	Picker    FilePicker
	Sharer    Sharer
	Sink      notify.Sink
	Logger    logrus.FieldLogger

	// ReportDroppedRows appends rows the decoder discarded to the report
	// as "Line N: reason" entries.
	ReportDroppedRows bool

	// MaxDisplayedErrors caps the error lines in the sink message.
	MaxDisplayedErrors int

	// FilenameFormat names files handed to the Sharer.
	FilenameFormat string
}

// Orchestrator runs import and export for one store.
type Orchestrator struct {
	store RecordStore
	opts  Options
}

// New creates an Orchestrator over store.
func New(store RecordStore, opts Options) *Orchestrator {
	if opts.Logger == nil {
		logg := logrus.New()
		logg.SetOutput(io.Discard)
		opts.Logger = logg
	}
	if opts.Codec == nil {
		opts.Codec = csvcodec.New(csvcodec.DefaultCurrency, opts.Logger)
	}
	if opts.Validator == nil {
		opts.Validator = validation.New(validation.Options{})
	}
	if opts.Sink == nil {
		opts.Sink = notify.Discard
	}
	if opts.MaxDisplayedErrors <= 0 {
		opts.MaxDisplayedErrors = 5
	}
	if opts.FilenameFormat == "" {
		opts.FilenameFormat = "debts_{user}_{timestamp}.csv"
	}
	return &Orchestrator{store: store, opts: opts}
}

// =============================================================================
// EXPORT
// =============================================================================

// GenerateExportData encodes every record of userID as CSV text.
func (o *Orchestrator) GenerateExportData(ctx context.Context, userID string) types.ExportResult {
	text, err := o.exportText(ctx, userID)
	if err != nil {
		return types.ExportResult{Success: false, Error: err.Error()}
	}
	return types.ExportResult{Success: true, CSVData: text}
}

// ExportAndShare exports userID's records and hands them to the Sharer.
// It returns the location reported by the Sharer.
func (o *Orchestrator) ExportAndShare(ctx context.Context, userID string) (string, error) {
	if o.opts.Sharer == nil {
		return "", errors.New("no sharing facility configured")
	}

	text, err := o.exportText(ctx, userID)
	if err != nil {
		o.opts.Sink.Error(fmt.Sprintf("Export failed: %v", err))
		return "", err
	}

	filename := utils.GenerateOutputFileName(o.opts.FilenameFormat, map[string]string{"user": userID})
	location, err := o.opts.Sharer.WriteAndShare(ctx, text, filename)
	if err != nil {
		config.LogError(o.opts.Logger, moduleName, "ExportAndShare", "write and share", userID, err)
		o.opts.Sink.Error(fmt.Sprintf("Export failed: %v", err))
		return "", fmt.Errorf("share export: %w", err)
	}

	o.opts.Logger.WithFields(logrus.Fields{
		"module":   moduleName,
		"user_id":  userID,
		"location": location,
	}).Info("export shared")
	o.opts.Sink.Success(fmt.Sprintf("Exported to %s", location))
	return location, nil
}

func (o *Orchestrator) exportText(ctx context.Context, userID string) (string, error) {
	records, err := o.store.ListRecords(ctx, userID)
	if err != nil {
		config.LogError(o.opts.Logger, moduleName, "GenerateExportData", "list records", userID, err)
		return "", fmt.Errorf("list records: %w", err)
	}
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	return o.opts.Codec.Encode(records), nil
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportFromCSVText decodes, validates and persists text for userID.
func (o *Orchestrator) ImportFromCSVText(ctx context.Context, userID, text string) types.ImportReport {
	report := o.importText(ctx, userID, text)
	notify.Deliver(o.opts.Sink, report, o.opts.MaxDisplayedErrors)
	return report
}

// ImportFromFile asks the FilePicker for a file and imports its text.
func (o *Orchestrator) ImportFromFile(ctx context.Context, userID string) types.ImportReport {
	text, problem := o.pickFile(ctx)
	if problem != "" {
		report := failure(problem)
		notify.Deliver(o.opts.Sink, report, o.opts.MaxDisplayedErrors)
		return report
	}
	return o.ImportFromCSVText(ctx, userID, text)
}

// pickFile returns the picked text, or a message explaining why there is none.
func (o *Orchestrator) pickFile(ctx context.Context) (string, string) {
	if o.opts.Picker == nil {
		return "", "file import is not available"
	}

	text, cancelled, err := o.opts.Picker.PickTextFile(ctx)
	switch {
	case errors.Is(err, utils.ErrPickerUnavailable):
		return "", "file import is not available"
	case err != nil:
		config.LogError(o.opts.Logger, moduleName, "ImportFromFile", "pick file", nil, err)
		return "", fmt.Sprintf("could not read file: %v", err)
	case cancelled:
		return "", "no file selected"
	}
	return text, ""
}

func (o *Orchestrator) importText(ctx context.Context, userID, text string) types.ImportReport {
	logg := o.opts.Logger.WithFields(logrus.Fields{
		"module":  moduleName,
		"user_id": userID,
	})

	decoded, err := o.opts.Codec.DecodeDetailed(text)
	if err != nil {
		logg.WithError(err).Warn("import aborted: decode failed")
		return failure(err.Error())
	}

	var dropped []string
	if o.opts.ReportDroppedRows {
		for _, d := range decoded.Dropped {
			dropped = append(dropped, fmt.Sprintf("Line %d: %s", d.Line, d.Reason))
		}
	}

	candidates := decoded.Records
	if len(candidates) == 0 {
		report := failure("no importable rows found in file")
		report.Errors = append(report.Errors, dropped...)
		return report
	}

	report := types.ImportReport{
		Total:  len(candidates),
		Errors: []string{},
	}

	for i, candidate := range candidates {
		row := i + 2

		if problems := o.opts.Validator.Check(candidate); len(problems) > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %s", row, strings.Join(problems, "; ")))
			logg.WithField("row", row).Debug("row failed validation")
			continue
		}

		if err := o.store.CreateRecord(ctx, userID, candidate); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %v", row, err))
			config.LogError(logg, moduleName, "ImportFromCSVText", fmt.Sprintf("persist row %d", row), candidate.ContactName, err)
			continue
		}
		report.Imported++
	}

	report.Errors = append(report.Errors, dropped...)
	report.Success = report.Imported > 0

	logg.WithFields(logrus.Fields{
		"imported": report.Imported,
		"total":    report.Total,
		"errors":   len(report.Errors),
	}).Info("import finished")

	return report
}

func failure(message string) types.ImportReport {
	return types.ImportReport{
		Success:  false,
		Imported: 0,
		Total:    0,
		Errors:   []string{message},
	}
}
