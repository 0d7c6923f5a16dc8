// =============================================================================
// Debt Ledger - Export Command
// =============================================================================
//
// COMMAND USAGE:
//   debtledger export --user ID [--out DIR] [--format csv|xlsx]
//
// The file is written into the output directory (output_dir in the config,
// or --out) and its path printed.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/debtledger/internal/importer"
	"github.com/ginjaninja78/debtledger/internal/notify"
	"github.com/ginjaninja78/debtledger/internal/sheet"
	"github.com/ginjaninja78/debtledger/pkg/utils"
)

var (
	exportUser   string
	exportOutDir string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's debt records",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		outDir := a.cfg.OutputDir
		if exportOutDir != "" {
			outDir = exportOutDir
		}
		fm := utils.NewFileManager("", outDir)

		switch exportFormat {
		case "csv":
			_, err := a.orchestrator(nil, fm, notify.WriterSink{W: cmd.OutOrStdout()}).ExportAndShare(cmd.Context(), exportUser)
			return err
		case "xlsx":
			return exportWorkbook(cmd, a, outDir)
		default:
			return fmt.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
		}
	},
}

func exportWorkbook(cmd *cobra.Command, a *app, outDir string) error {
	records, err := a.store.ListRecords(cmd.Context(), exportUser)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return importer.ErrNoRecords
	}

	f, err := sheet.WriteWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := utils.NewFileManager("", outDir).EnsureOutputDir(); err != nil {
		return err
	}
	path := filepath.Join(outDir, utils.GenerateOutputFileName("debts_{user}_{timestamp}.xlsx", map[string]string{"user": exportUser}))
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportUser, "user", "u", "", "User whose records are exported")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory (defaults to output_dir)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or xlsx")
	exportCmd.MarkFlagRequired("user")
}
