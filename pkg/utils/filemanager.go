// =============================================================================
// Debt Ledger - File Manager Utility
// =============================================================================
//
// This module provides the file side of import and export:
//   - Picking the file to import (CSV text or an XLSX workbook)
//   - Writing exported text into the output directory
//   - Archiving imported files
//   - Import error logs
//   - File naming utilities
//
// PICKING:
//   The file to import is chosen up front (the --file flag). An empty path
//   means the user did not choose one and is reported as a cancellation.
//   "-" reads standard input.
//
// =============================================================================

package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/debtledger/internal/sheet"
	"github.com/ginjaninja78/debtledger/internal/types"
)

// ErrPickerUnavailable is returned when there is no way to obtain a file.
var ErrPickerUnavailable = errors.New("file picker unavailable")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for import and export.
type FileManager struct {
	// ImportPath is the file PickTextFile reads. Empty means cancelled.
	ImportPath string

	// Stdin is read when ImportPath is "-". Nil makes "-" unavailable.
	Stdin io.Reader

	// OutputDir is where exported files are written.
	OutputDir string

	// ArchiveDir receives imported files when archiving is requested.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/debts.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager.
func NewFileManager(importPath, outputDir string) *FileManager {
	return &FileManager{
		ImportPath: importPath,
		Stdin:      os.Stdin,
		OutputDir:  outputDir,
		ArchiveDir: filepath.Join(outputDir, "archive"),
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureOutputDir creates OutputDir if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// PICKING
// =============================================================================

// PickTextFile returns the CSV text of ImportPath. Workbooks (.xlsx) are
// converted to CSV text first.
func (fm *FileManager) PickTextFile(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if fm.ImportPath == "" {
		return "", true, nil
	}

	if fm.ImportPath == "-" {
		if fm.Stdin == nil {
			return "", false, ErrPickerUnavailable
		}
		data, err := io.ReadAll(fm.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), false, nil
	}

	file, err := os.Open(fm.ImportPath)
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", fm.ImportPath, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(fm.ImportPath), ".xlsx") {
		text, err := sheet.ReadWorkbookAsCSV(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read %s: %w", fm.ImportPath, err)
		}
		return text, false, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", fm.ImportPath, err)
	}
	return string(data), false, nil
}

// =============================================================================
// WRITING
// =============================================================================

// WriteAndShare writes text to filename inside OutputDir and returns the path.
func (fm *FileManager) WriteAndShare(ctx context.Context, text, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := fm.EnsureOutputDir(); err != nil {
		return "", err
	}

	path := filepath.Join(fm.OutputDir, filepath.Base(filename))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveImportedFile moves the imported file into ArchiveDir. An archived
// file with the same name is never overwritten.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveImportedFile() (string, error) {
	if fm.ImportPath == "" || fm.ImportPath == "-" {
		return "", fmt.Errorf("nothing to archive")
	}

	archivePath := fm.getArchivePath(fm.ImportPath)
	if FileExists(archivePath) {
		return "", fmt.Errorf("archive already contains %s", archivePath)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(fm.ImportPath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(fm.ImportPath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(fm.ImportPath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//   - params: Extra placeholder values, e.g. {"user": "42"} for {user}.
//
// A name without an extension gets ".csv".
//
// EXAMPLE:
//   format: "debts_{user}_{timestamp}.csv"
//   params: {"user": "42"}
//   output: "debts_42_20240115_143022.csv"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if filepath.Ext(result) == "" {
		result += ".csv"
	}

	return result
}

// =============================================================================
// IMPORT ERROR LOG
// =============================================================================

// WriteImportLog writes the errors of an import report to a log file in
// outputDir. Nothing is written for a report without errors.
//
// RETURNS:
//   - The path to the log file, or "" when nothing was written.
//   - An error if writing fails.
func WriteImportLog(report types.ImportReport, source, outputDir string) (string, error) {
	if len(report.Errors) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", outputDir, err)
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("import_errors_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Debt Ledger - Import Error Log\n"+
		"Generated: %s\n"+
		"Source:    %s\n"+
		"Imported:  %d of %d\n"+
		"Errors:    %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		source,
		report.Imported,
		report.Total,
		len(report.Errors))

	for i, e := range report.Errors {
		fmt.Fprintf(writer, "Error #%d\n  %s\n\n", i+1, e)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
