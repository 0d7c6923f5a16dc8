// =============================================================================
// Debt Ledger - Validation Engine
// =============================================================================
//
// This module checks a decoded batch of candidate records and partitions it
// into valid and invalid rows.
//
// VALIDATION STRATEGY:
//   Every check runs for every row; errors are collected, never thrown. The
//   base checks, in reporting order, are:
//     1. contact_name present
//     2. contact_phone present
//     3. amount greater than 0
//     4. loan_date is a real YYYY-MM-DD date
//     5. due_date is a real YYYY-MM-DD date
//     6. status in {PENDING, PAID, OVERDUE}
//     7. debt_type in {OWING, OWED}
//   No cross-row checks (duplicates etc.) are performed.
//
// OPTIONAL CHECKS (off by default, see Options):
//   - due_date must not precede loan_date
//   - contact_phone must be a valid number for a region (libphonenumber)
//   - contact_email must be a well-formed address when present
//
// =============================================================================

package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"

	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options enables checks beyond the base set.
type Options struct {
	// EnforceDueAfterLoan rejects rows whose due_date precedes loan_date.
	EnforceDueAfterLoan bool

	// PhoneRegion, when set (e.g. "CM"), requires contact_phone to be a valid
	// number for that region.
	PhoneRegion string

	// CheckEmail rejects a non-empty contact_email that is not an address.
	CheckEmail bool
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator partitions candidate batches.
type Validator struct {
	options  Options
	validate *validator.Validate
}

// recordView is the shape the struct-tag rules run against. Field order is
// the order errors are reported in.
type recordView struct {
	ContactName  string `csv:"contact_name" validate:"required"`
	ContactPhone string `csv:"contact_phone" validate:"required"`
	LoanDate     string `csv:"loan_date" validate:"isodate"`
	DueDate      string `csv:"due_date" validate:"isodate"`
	Status       string `csv:"status" validate:"debtstatus"`
	DebtType     string `csv:"debt_type" validate:"debttype"`
}

// New creates a Validator with the given options.
func New(options Options) *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("csv")
	})

	// Registration only fails for an empty tag or a nil function.
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return csvcodec.IsValidDate(fl.Field().String())
	})
	_ = v.RegisterValidation("debtstatus", func(fl validator.FieldLevel) bool {
		return types.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("debttype", func(fl validator.FieldLevel) bool {
		return types.DebtType(fl.Field().String()).Valid()
	})

	return &Validator{
		options:  options,
		validate: v,
	}
}

// Validate runs the base checks only.
func Validate(candidates []types.DebtRecord) types.ValidationOutcome {
	return New(Options{}).Validate(candidates)
}

// Validate partitions candidates. Invalid rows carry their 1-based batch
// index and every error message that applies.
func (v *Validator) Validate(candidates []types.DebtRecord) types.ValidationOutcome {
	outcome := types.ValidationOutcome{
		Valid:   make([]types.DebtRecord, 0, len(candidates)),
		Invalid: make([]types.InvalidRow, 0),
	}

	for i, candidate := range candidates {
		errs := v.Check(candidate)
		if len(errs) == 0 {
			outcome.Valid = append(outcome.Valid, candidate)
			continue
		}
		outcome.Invalid = append(outcome.Invalid, types.InvalidRow{
			Index:  i + 1,
			Errors: errs,
		})
	}

	return outcome
}

// Check returns every error message for one record, or nil.
func (v *Validator) Check(record types.DebtRecord) []string {
	view := recordView{
		ContactName:  strings.TrimSpace(record.ContactName),
		ContactPhone: strings.TrimSpace(record.ContactPhone),
		LoanDate:     record.LoanDate,
		DueDate:      record.DueDate,
		Status:       string(record.Status),
		DebtType:     string(record.DebtType),
	}

	failed := make(map[string]string)
	if err := v.validate.Struct(view); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				failed[fe.Field()] = fe.Tag()
			}
		}
	}

	var errs []string

	if _, bad := failed["contact_name"]; bad {
		errs = append(errs, "contact_name is required")
	}
	if _, bad := failed["contact_phone"]; bad {
		errs = append(errs, "contact_phone is required")
	} else if msg := v.checkPhone(view.ContactPhone); msg != "" {
		errs = append(errs, msg)
	}
	if !record.Amount.GreaterThan(decimal.Zero) {
		errs = append(errs, "amount must be greater than 0")
	}
	if _, bad := failed["loan_date"]; bad {
		errs = append(errs, fmt.Sprintf("loan_date %q is not a valid date (YYYY-MM-DD)", record.LoanDate))
	}
	if _, bad := failed["due_date"]; bad {
		errs = append(errs, fmt.Sprintf("due_date %q is not a valid date (YYYY-MM-DD)", record.DueDate))
	}
	if _, bad := failed["status"]; bad {
		errs = append(errs, fmt.Sprintf("status %q must be one of %s", record.Status, joinValues(types.Statuses)))
	}
	if _, bad := failed["debt_type"]; bad {
		errs = append(errs, fmt.Sprintf("debt_type %q must be one of %s", record.DebtType, joinValues(types.DebtTypes)))
	}

	// Optional checks.

	if v.options.EnforceDueAfterLoan && failed["loan_date"] == "" && failed["due_date"] == "" {
		// Both are valid ISO dates here, so string order is date order.
		if record.DueDate < record.LoanDate {
			errs = append(errs, "due_date must not be before loan_date")
		}
	}
	if v.options.CheckEmail && record.ContactEmail != "" {
		if err := v.validate.Var(record.ContactEmail, "email"); err != nil {
			errs = append(errs, fmt.Sprintf("contact_email %q is not a valid email address", record.ContactEmail))
		}
	}

	return errs
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = string(value)
	}
	return strings.Join(parts, ", ")
}

// checkPhone applies the optional region-specific phone check.
func (v *Validator) checkPhone(phone string) string {
	if v.options.PhoneRegion == "" {
		return ""
	}
	number, err := libphonenumber.Parse(phone, v.options.PhoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(number) {
		return fmt.Sprintf("contact_phone %q is not a valid %s phone number", phone, v.options.PhoneRegion)
	}
	return ""
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats the invalid rows of an outcome for display or logging.
func FormatErrors(outcome types.ValidationOutcome) string {
	if len(outcome.Invalid) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%d of %d row(s) failed validation:\n\n",
		len(outcome.Invalid), len(outcome.Invalid)+len(outcome.Valid)))

	for _, row := range outcome.Invalid {
		builder.WriteString(fmt.Sprintf("Row %d: %s\n", row.Index, strings.Join(row.Errors, "; ")))
	}

	return builder.String()
}
