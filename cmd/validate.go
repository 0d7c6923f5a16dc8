// =============================================================================
// Debt Ledger - Validate Command
// =============================================================================
//
// This file defines the 'validate' command: the pre-flight check run before
// an import. It decodes and validates the file and reports every problem
// without touching the record store.
//
// COMMAND USAGE:
//   debtledger validate --file debts.csv
//
// EXIT STATUS:
//   0 when every row is importable, 1 otherwise.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/debtledger/internal/validation"
	"github.com/ginjaninja78/debtledger/pkg/utils"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a CSV or XLSX file without importing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreflight(cmd, validateFile)
	},
}

// runPreflight decodes and validates path and prints the outcome.
func runPreflight(cmd *cobra.Command, path string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(path, a.cfg.OutputDir)
	fm.Stdin = cmd.InOrStdin()

	text, cancelled, err := fm.PickTextFile(cmd.Context())
	if err != nil {
		return err
	}
	if cancelled {
		return fmt.Errorf("no file selected")
	}

	decoded, err := a.codec.DecodeDetailed(text)
	if err != nil {
		return err
	}
	outcome := a.validator.Validate(decoded.Records)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows decoded: %d\n", len(decoded.Records))
	fmt.Fprintf(out, "Valid:        %d\n", len(outcome.Valid))
	fmt.Fprintf(out, "Invalid:      %d\n", len(outcome.Invalid))
	fmt.Fprintf(out, "Skipped:      %d\n\n", len(decoded.Dropped))

	fmt.Fprintln(out, validation.FormatErrors(outcome))
	for _, d := range decoded.Dropped {
		fmt.Fprintf(out, "Line %d skipped: %s\n", d.Line, d.Reason)
	}

	if len(outcome.Invalid) > 0 || len(decoded.Dropped) > 0 {
		return fmt.Errorf("%d row(s) would not be imported", len(outcome.Invalid)+len(decoded.Dropped))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", `CSV or XLSX file to check ("-" for stdin)`)
	validateCmd.MarkFlagRequired("file")
}
