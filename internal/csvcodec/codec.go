// =============================================================================
// Debt Ledger - CSV Record Codec
// =============================================================================
//
// This module converts between DebtRecord values and their CSV text form.
//
// ENCODING:
//   - Fixed header line (types.Columns), one row per record
//   - A field is quoted iff it contains a comma, a double quote or a newline;
//     internal double quotes are doubled
//   - An empty record list encodes to an empty string (no header either)
//
// DECODING:
//   - The header is split naively on commas, trimmed and de-quoted
//   - Data rows use a quote-aware splitter ("" inside quotes is a literal ")
//   - Decoding is lenient: rows with the wrong column count, a missing
//     required field or a malformed date are dropped and logged, not raised
//   - Only "fewer than two lines" is a structural error
//
// =============================================================================

package csvcodec

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/debtledger/internal/types"
)

// DefaultCurrency is used when a row carries no currency.
const DefaultCurrency = "XAF"

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

// ErrTooFewLines is returned when the input has no data row after the header.
var ErrTooFewLines = errors.New("CSV must contain a header row and at least one data row")

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// =============================================================================
// CODEC
// =============================================================================

// Codec encodes and decodes debt records.
type Codec struct {
	// DefaultCurrency replaces an empty currency column on decode.
	DefaultCurrency string

	// Logger receives one debug entry per dropped row.
	Logger logrus.FieldLogger
}

// New creates a Codec. An empty currency falls back to DefaultCurrency and a
// nil logger discards output.
func New(defaultCurrency string, logger logrus.FieldLogger) *Codec {
	if defaultCurrency == "" {
		defaultCurrency = DefaultCurrency
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Codec{
		DefaultCurrency: defaultCurrency,
		Logger:          logger,
	}
}

// DecodeResult is the detailed output of DecodeDetailed.
type DecodeResult struct {
	// Records are the candidate rows that survived lenient decoding.
	Records []types.DebtRecord

	// Dropped lists the data rows that were discarded, in input order.
	Dropped []types.DroppedRow
}

// Encode renders records with the default codec.
func Encode(records []types.DebtRecord) string {
	return New("", nil).Encode(records)
}

// Decode parses text with the default codec.
func Decode(text string) ([]types.DebtRecord, error) {
	return New("", nil).Decode(text)
}

// =============================================================================
// ENCODE
// =============================================================================

// Encode renders records as CSV text.
func (c *Codec) Encode(records []types.DebtRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Join(types.Columns, ","))

	for _, record := range records {
		b.WriteByte('\n')
		for i, value := range record.Values() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(QuoteField(value))
		}
	}

	return b.String()
}

// QuoteField wraps value in double quotes when it contains a comma, a double
// quote or a newline, doubling any internal quotes.
func QuoteField(value string) string {
	if !strings.ContainsAny(value, ",\"\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// =============================================================================
// DECODE
// =============================================================================

// Decode parses CSV text into candidate records, silently dropping rows that
// cannot be used.
func (c *Codec) Decode(text string) ([]types.DebtRecord, error) {
	result, err := c.DecodeDetailed(text)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// DecodeDetailed is Decode plus the list of dropped rows and why they were
// dropped.
func (c *Codec) DecodeDetailed(text string) (*DecodeResult, error) {
	lines := splitRecords(text)
	if len(lines) < 2 {
		return nil, ErrTooFewLines
	}

	header := parseHeader(lines[0].text)
	result := &DecodeResult{
		Records: make([]types.DebtRecord, 0, len(lines)-1),
	}

	for _, line := range lines[1:] {
		tokens := SplitLine(line.text)
		if len(tokens) != len(header) {
			c.drop(result, line.number, fmt.Sprintf("expected %d columns, found %d", len(header), len(tokens)))
			continue
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = tokens[i]
		}

		record, reason := c.buildRecord(fields)
		if reason != "" {
			c.drop(result, line.number, reason)
			continue
		}

		result.Records = append(result.Records, record)
	}

	return result, nil
}

// buildRecord applies defaults and coercions to one raw row. A non-empty
// reason means the row must be dropped.
func (c *Codec) buildRecord(fields map[string]string) (types.DebtRecord, string) {
	amount, err := decimal.NewFromString(fields["amount"])
	if err != nil {
		amount = decimal.Zero
	}

	currency := fields["currency"]
	if currency == "" {
		currency = c.DefaultCurrency
	}

	status := types.Status(fields["status"])
	if !status.Valid() {
		status = types.StatusPending
	}

	debtType := types.DebtType(fields["debt_type"])
	if !debtType.Valid() {
		debtType = types.DebtTypeOwing
	}

	record := types.DebtRecord{
		ContactName:   fields["contact_name"],
		ContactPhone:  fields["contact_phone"],
		ContactEmail:  fields["contact_email"],
		Amount:        amount,
		Currency:      currency,
		Description:   fields["description"],
		LoanDate:      fields["loan_date"],
		DueDate:       fields["due_date"],
		RepaymentDate: fields["repayment_date"],
		Status:        status,
		DebtType:      debtType,
	}

	required := []struct {
		name  string
		value string
	}{
		{"contact_name", record.ContactName},
		{"contact_phone", record.ContactPhone},
		{"loan_date", record.LoanDate},
		{"due_date", record.DueDate},
	}
	for _, field := range required {
		if field.value == "" {
			return record, "missing required field " + field.name
		}
	}

	if !IsValidDate(record.LoanDate) {
		return record, "invalid loan_date " + record.LoanDate
	}
	if !IsValidDate(record.DueDate) {
		return record, "invalid due_date " + record.DueDate
	}

	return record, ""
}

func (c *Codec) drop(result *DecodeResult, line int, reason string) {
	c.Logger.WithFields(logrus.Fields{
		"module": "csvcodec",
		"line":   line,
		"reason": reason,
	}).Debug("skipping CSV row")

	result.Dropped = append(result.Dropped, types.DroppedRow{Line: line, Reason: reason})
}

// =============================================================================
// TOKENIZING
// =============================================================================

type logicalLine struct {
	text   string
	number int
}

// splitRecords breaks text into logical lines. A newline inside a quoted field
// does not end the line; a field is quoted only when its first non-blank
// character is a double quote, so a stray quote mid-field is literal. If a
// quoted field is still open at the end of the text, the lines it swallowed
// are returned one by one. Blank lines are skipped but still counted so that
// line numbers match what the user sees in an editor.
func splitRecords(text string) []logicalLine {
	// Spreadsheet tools often save UTF-8 CSV with a byte order mark.
	text = strings.TrimPrefix(text, "\uFEFF")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		lines     []logicalLine
		pending   []string
		startLine int
		inQuotes  bool
	)

	emit := func(value string, number int) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, logicalLine{text: value, number: number})
		}
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if !inQuotes {
			startLine = i + 1
		}
		pending = append(pending, line)

		inQuotes = scanQuotes(line, inQuotes)
		if !inQuotes {
			emit(strings.Join(pending, "\n"), startLine)
			pending = pending[:0]
		}
	}

	for j, line := range pending {
		emit(line, startLine+j)
	}

	return lines
}

// scanQuotes walks one physical line and reports whether a quoted field is
// still open at its end. inQuotes is the state carried in from the previous
// line.
func scanQuotes(line string, inQuotes bool) bool {
	atFieldStart := !inQuotes

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case inQuotes:
			if ch != '"' {
				continue
			}
			if i+1 < len(runes) && runes[i+1] == '"' {
				i++
				continue
			}
			inQuotes = false
		case ch == '"' && atFieldStart:
			inQuotes = true
			atFieldStart = false
		case ch == ',':
			atFieldStart = true
		case ch == ' ' || ch == '\t':
		default:
			atFieldStart = false
		}
	}

	return inQuotes
}

// parseHeader splits the header naively on commas.
func parseHeader(line string) []string {
	parts := strings.Split(line, ",")
	header := make([]string, len(parts))
	for i, part := range parts {
		header[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"`))
	}
	return header
}

// SplitLine tokenizes one data line, honoring double-quoted fields. A quote
// opens a field only as its first non-blank character; elsewhere it is kept
// as text. Each token is trimmed of surrounding whitespace.
func SplitLine(line string) []string {
	var (
		tokens       []string
		current      strings.Builder
		inQuotes     bool
		atFieldStart = true
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case inQuotes && ch == '"':
			if i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = false
		case inQuotes:
			current.WriteRune(ch)
		case ch == '"' && atFieldStart:
			inQuotes = true
			atFieldStart = false
		case ch == ',':
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
			atFieldStart = true
		case ch == ' ' || ch == '\t':
			current.WriteRune(ch)
		default:
			current.WriteRune(ch)
			atFieldStart = false
		}
	}
	tokens = append(tokens, strings.TrimSpace(current.String()))

	return tokens
}

// =============================================================================
// DATES
// =============================================================================

// IsValidDate reports whether s is YYYY-MM-DD and names a real calendar day.
func IsValidDate(s string) bool {
	if !isoDatePattern.MatchString(s) {
		return false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	return t.Format(DateLayout) == s
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
