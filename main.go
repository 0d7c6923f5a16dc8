// =============================================================================
// Debt Ledger - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Debt Ledger CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   debtledger export        - Export a user's records as CSV or XLSX
//   debtledger import        - Import records from a CSV or XLSX file
//   debtledger validate      - Check a file without importing it
//   debtledger mark-overdue  - Flag pending debts past their due date
//   debtledger serve         - Run the HTTP API
//   debtledger version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core logic (codec, validation, importer, store, api)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/debtledger/cmd"
)

func main() {
	cmd.Execute()
}
