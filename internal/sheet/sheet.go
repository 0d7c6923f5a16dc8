// =============================================================================
// Debt Ledger - Spreadsheet Support
// =============================================================================
//
// This module converts between debt records and XLSX workbooks.
//
// WORKBOOK LAYOUT:
//   Sheet "Debts", row 1 holds the column names in CSV order, one record per
//   following row:
//
//   | A            | B             | ... | K         |
//   |--------------|---------------|-----|-----------|
//   | contact_name | contact_phone | ... | debt_type |
//   | John Doe     | +237123456789 | ... | OWING     |
//
// Reading goes the other way through CSV text: the first sheet is rendered as
// CSV so the regular decoder applies the same defaults and row filtering to
// spreadsheets as to CSV files.
//
// =============================================================================

package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/types"
)

// SheetName is the name of the sheet WriteWorkbook fills.
const SheetName = "Debts"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// amountColumn is the zero-based position of "amount" in types.Columns.
const amountColumn = 3

// =============================================================================
// WRITING
// =============================================================================

// WriteWorkbook builds a workbook holding records. The caller must Close it.
func WriteWorkbook(records []types.DebtRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	// Rename the default sheet instead of adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, name := range types.Columns {
		if err := setCell(f, col, 1, name); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, record := range records {
		row := i + 2
		for col, value := range record.Values() {
			var cell interface{} = value
			if col == amountColumn {
				cell = amountCell(record.Amount)
			}
			if err := setCell(f, col, row, cell); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	return f, nil
}

// amountCell returns a numeric cell value when the amount survives a float64
// round trip, and the decimal text otherwise.
func amountCell(amount decimal.Decimal) interface{} {
	f := amount.InexactFloat64()
	if decimal.NewFromFloat(f).Equal(amount) {
		return f
	}
	return amount.String()
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	return nil
}

// =============================================================================
// READING
// =============================================================================

// ReadWorkbookAsCSV renders the first sheet of the workbook in r as CSV text.
// Fully empty rows are skipped. Short rows are padded to the header width.
func ReadWorkbookAsCSV(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return "", fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to read rows: %w", err)
	}

	var (
		lines []string
		width int
	)
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		if width == 0 {
			width = len(row)
		}
		lines = append(lines, csvLine(row, width))
	}

	return strings.Join(lines, "\n"), nil
}

func csvLine(row []string, width int) string {
	fields := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		fields[i] = csvcodec.QuoteField(strings.TrimSpace(row[i]))
	}
	return strings.Join(fields, ",")
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
