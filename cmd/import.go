// =============================================================================
// Debt Ledger - Import Command
// =============================================================================
//
// COMMAND USAGE:
//   debtledger import --user ID --file PATH [flags]
//
// FLAGS:
//   --file     : CSV or XLSX file to import ("-" reads stdin)
//   --dry-run  : Decode and validate only, write nothing
//   --archive  : Move the file to the archive directory after a successful import
//
// IMPORT PIPELINE:
//   1. Read the file (XLSX is converted to CSV text)
//   2. Decode and validate every row
//   3. Persist valid rows one at a time
//   4. Print the summary; write an error log when rows failed
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/debtledger/internal/notify"
	"github.com/ginjaninja78/debtledger/pkg/utils"
)

var (
	importUser    string
	importFile    string
	importDryRun  bool
	importArchive bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import debt records from a CSV or XLSX file",
	Long: `The import command reads a CSV (or XLSX) file and adds its rows to the user's
records. Rows that cannot be decoded, fail validation or fail to save are
reported individually; the remaining rows are still imported.

Use --dry-run (or the validate command) to see which rows would fail before
writing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importDryRun {
			return runPreflight(cmd, importFile)
		}
		return runImport(cmd)
	},
}

func runImport(cmd *cobra.Command) error {
	a, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	fm := utils.NewFileManager(importFile, a.cfg.OutputDir)
	fm.Stdin = cmd.InOrStdin()
	fm.UseTimestampSubdirs = a.cfg.ArchiveTimestampSubdirs

	report := a.orchestrator(fm, nil, notify.WriterSink{W: cmd.OutOrStdout()}).ImportFromFile(cmd.Context(), importUser)

	logPath, err := utils.WriteImportLog(report, importFile, a.cfg.OutputDir)
	if err != nil {
		a.logger.WithError(err).Warn("could not write import error log")
	} else if logPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Error log: %s\n", logPath)
	}

	if !report.Success {
		return fmt.Errorf("nothing imported")
	}

	if importArchive && importFile != "-" {
		archived, err := fm.ArchiveImportedFile()
		if err != nil {
			return err
		}
		a.logger.WithFields(logrus.Fields{
			"module":   "cmd",
			"file":     importFile,
			"archived": archived,
		}).Info("import file archived")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importUser, "user", "u", "", "User the records belong to")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", `CSV or XLSX file to import ("-" for stdin)`)
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without importing it")
	importCmd.Flags().BoolVar(&importArchive, "archive", false, "Archive the file after a successful import")
	importCmd.MarkFlagRequired("user")
}
