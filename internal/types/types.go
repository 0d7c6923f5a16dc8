// =============================================================================
// Debt Ledger - Shared Types
// =============================================================================
//
// This package contains the types shared by the CSV pipeline to avoid import
// cycles. Types defined here are used by:
//   - csvcodec   (decode produces DebtRecord candidates)
//   - validation (partitions candidates into a ValidationOutcome)
//   - importer   (returns ImportReport and ExportResult)
//   - store, api, cmd
//
// =============================================================================

package types

import (
	"slices"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Status is the payment status of a debt.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{StatusPending, StatusPaid, StatusOverdue}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// DebtType tells which side of the obligation the user is on.
type DebtType string

const (
	// DebtTypeOwing means a third party owes the user.
	DebtTypeOwing DebtType = "OWING"

	// DebtTypeOwed means the user owes a third party.
	DebtTypeOwed DebtType = "OWED"
)

// DebtTypes lists every valid DebtType in display order.
var DebtTypes = []DebtType{DebtTypeOwing, DebtTypeOwed}

// Valid reports whether t is one of the known debt types.
func (t DebtType) Valid() bool {
	return slices.Contains(DebtTypes, t)
}

// =============================================================================
// DEBT RECORD
// =============================================================================

// Columns is the fixed, ordered column list of the CSV format.
var Columns = []string{
	"contact_name",
	"contact_phone",
	"contact_email",
	"amount",
	"currency",
	"description",
	"loan_date",
	"due_date",
	"repayment_date",
	"status",
	"debt_type",
}

// DebtRecord is one tracked obligation between the user and a contact.
//
// Dates are kept as ISO text (YYYY-MM-DD) rather than time.Time so that a
// malformed date survives decoding long enough for the validator to report it.
type DebtRecord struct {
	ContactName  string          `json:"contact_name"`
	ContactPhone string          `json:"contact_phone"`
	ContactEmail string          `json:"contact_email,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description,omitempty"`
	LoanDate     string          `json:"loan_date"`
	DueDate      string          `json:"due_date"`

	// RepaymentDate is empty while the debt is outstanding.
	RepaymentDate string   `json:"repayment_date,omitempty"`
	Status        Status   `json:"status"`
	DebtType      DebtType `json:"debt_type"`
}

// Values returns the record's fields as text in Columns order.
func (r DebtRecord) Values() []string {
	return []string{
		r.ContactName,
		r.ContactPhone,
		r.ContactEmail,
		r.Amount.String(),
		r.Currency,
		r.Description,
		r.LoanDate,
		r.DueDate,
		r.RepaymentDate,
		string(r.Status),
		string(r.DebtType),
	}
}

// =============================================================================
// PIPELINE RESULTS
// =============================================================================

// InvalidRow is a candidate that failed one or more validation checks.
type InvalidRow struct {
	// Index is the 1-based position of the row within the validated batch.
	Index  int      `json:"index"`
	Errors []string `json:"errors"`
}

// ValidationOutcome partitions a batch of candidates.
type ValidationOutcome struct {
	Valid   []DebtRecord `json:"valid"`
	Invalid []InvalidRow `json:"invalid"`
}

// DroppedRow is a data row the lenient decoder discarded.
type DroppedRow struct {
	// Line is the 1-based physical line where the row starts (the header is line 1).
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarises one import call.
type ImportReport struct {
	// Success is true iff at least one record was persisted.
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors"`
}

// ExportResult is the outcome of generating export data for a user.
type ExportResult struct {
	Success bool   `json:"success"`
	CSVData string `json:"csv_data,omitempty"`
	Error   string `json:"error,omitempty"`
}
