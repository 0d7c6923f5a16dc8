package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/store"
	"github.com/ginjaninja78/debtledger/internal/types"
	"github.com/ginjaninja78/debtledger/pkg/utils"
)

const header = "contact_name,contact_phone,amount,currency,loan_date,due_date,status,debt_type"

func csvText(rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n")
}

type fakePicker struct {
	text      string
	cancelled bool
	err       error
}

func (p fakePicker) PickTextFile(context.Context) (string, bool, error) {
	return p.text, p.cancelled, p.err
}

type fakeSharer struct {
	text, filename string
	err            error
}

func (s *fakeSharer) WriteAndShare(_ context.Context, text, filename string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.text, s.filename = text, filename
	return "/out/" + filename, nil
}

type recordingSink struct {
	successes, warnings, errors []string
}

func (r *recordingSink) Success(m string) { r.successes = append(r.successes, m) }
func (r *recordingSink) Warning(m string) { r.warnings = append(r.warnings, m) }
func (r *recordingSink) Error(m string)   { r.errors = append(r.errors, m) }

func TestImportFromCSVText_ConcreteScenario(t *testing.T) {
	s := store.NewMemoryStore()
	o := New(s, Options{})

	report := o.ImportFromCSVText(context.Background(), "u1",
		csvText("John Doe,+237123456789,50000,XAF,2024-01-15,2024-02-15,PENDING,OWING"))

	if !report.Success || report.Imported != 1 || report.Total != 1 || len(report.Errors) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	got, _ := s.ListRecords(context.Background(), "u1")
	if len(got) != 1 || !got[0].Amount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unexpected stored records: %+v", got)
	}
}

func TestImportFromCSVText_PartialPersistenceFailure(t *testing.T) {
	s := store.NewMemoryStore()
	s.FailCreate = func(call int, _ types.DebtRecord) error {
		if call == 2 {
			return errors.New("constraint violation")
		}
		return nil
	}
	sink := &recordingSink{}
	o := New(s, Options{Sink: sink})

	report := o.ImportFromCSVText(context.Background(), "u1", csvText(
		"A,+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING",
		"B,+2,20,XAF,2024-01-01,2024-02-01,PENDING,OWING",
		"C,+3,30,XAF,2024-01-01,2024-02-01,PENDING,OWING",
	))

	if !report.Success || report.Imported != 2 || report.Total != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Row 3:") {
		t.Fatalf("expected one error for row 3, got %v", report.Errors)
	}
	if !strings.Contains(report.Errors[0], "constraint violation") {
		t.Fatalf("error lost the cause: %q", report.Errors[0])
	}
	if len(sink.warnings) != 1 || !strings.HasPrefix(sink.warnings[0], "2/3 imported") {
		t.Fatalf("expected a warning summary, got %+v", sink)
	}
}

func TestImportFromCSVText_AllFailIsUnsuccessful(t *testing.T) {
	s := store.NewMemoryStore()
	s.FailCreate = func(int, types.DebtRecord) error { return errors.New("offline") }
	sink := &recordingSink{}

	report := New(s, Options{Sink: sink}).ImportFromCSVText(context.Background(), "u1",
		csvText("A,+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING"))

	if report.Success || report.Imported != 0 || report.Total != 1 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(sink.errors) != 1 {
		t.Fatalf("expected an error notification, got %+v", sink)
	}
}

func TestImportFromCSVText_DecodeFailure(t *testing.T) {
	report := New(store.NewMemoryStore(), Options{}).ImportFromCSVText(context.Background(), "u1", header)

	if report.Success || report.Imported != 0 || report.Total != 0 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Errors[0] != csvcodec.ErrTooFewLines.Error() {
		t.Fatalf("unexpected error text: %q", report.Errors[0])
	}
}

func TestImportFromCSVText_NoCandidates(t *testing.T) {
	text := csvText(",+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING")

	report := New(store.NewMemoryStore(), Options{}).ImportFromCSVText(context.Background(), "u1", text)
	if report.Success || report.Total != 0 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	report = New(store.NewMemoryStore(), Options{ReportDroppedRows: true}).ImportFromCSVText(context.Background(), "u1", text)
	if len(report.Errors) != 2 || !strings.HasPrefix(report.Errors[1], "Line 2:") {
		t.Fatalf("dropped row not reported: %v", report.Errors)
	}
}

func TestImportFromCSVText_ValidationErrors(t *testing.T) {
	s := store.NewMemoryStore()
	report := New(s, Options{}).ImportFromCSVText(context.Background(), "u1", csvText(
		"A,+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING",
		"B,+2,-5,XAF,2024-01-01,2024-02-01,PENDING,OWING",
	))

	if !report.Success || report.Imported != 1 || report.Total != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Row 3:") || !strings.Contains(report.Errors[0], "amount") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}

	got, _ := s.ListRecords(context.Background(), "u1")
	if len(got) != 1 || got[0].ContactName != "A" {
		t.Fatalf("invalid row persisted: %+v", got)
	}
}

func TestImportFromCSVText_DroppedRowsReportedAfterRowErrors(t *testing.T) {
	report := New(store.NewMemoryStore(), Options{ReportDroppedRows: true}).ImportFromCSVText(context.Background(), "u1", csvText(
		"A,+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING",
		"B,+2,10,XAF,2024-01-01,not-a-date,PENDING,OWING",
	))

	if report.Imported != 1 || report.Total != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Line 3:") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
}

func TestImportFromFile(t *testing.T) {
	valid := csvText("A,+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING")

	cases := []struct {
		name     string
		picker   FilePicker
		imported int
		wantErr  string
	}{
		{"picked", fakePicker{text: valid}, 1, ""},
		{"cancelled", fakePicker{cancelled: true}, 0, "no file selected"},
		{"unavailable", fakePicker{err: utils.ErrPickerUnavailable}, 0, "file import is not available"},
		{"no picker", nil, 0, "file import is not available"},
		{"read error", fakePicker{err: errors.New("permission denied")}, 0, "could not read file: permission denied"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := New(store.NewMemoryStore(), Options{Picker: tc.picker}).ImportFromFile(context.Background(), "u1")
			if report.Imported != tc.imported {
				t.Fatalf("imported: want %d, got %d", tc.imported, report.Imported)
			}
			if tc.wantErr == "" {
				if len(report.Errors) != 0 {
					t.Fatalf("unexpected errors: %v", report.Errors)
				}
				return
			}
			if report.Success || report.Total != 0 || len(report.Errors) != 1 || report.Errors[0] != tc.wantErr {
				t.Fatalf("unexpected report: %+v", report)
			}
		})
	}
}

func TestGenerateExportData(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	o := New(s, Options{})

	empty := o.GenerateExportData(ctx, "u1")
	if empty.Success || empty.Error != "no records" || empty.CSVData != "" {
		t.Fatalf("unexpected empty export: %+v", empty)
	}

	o.ImportFromCSVText(ctx, "u1", csvText(`"Doe, John",+1,10,XAF,2024-01-01,2024-02-01,PAID,OWED`))

	result := o.GenerateExportData(ctx, "u1")
	if !result.Success {
		t.Fatalf("export failed: %+v", result)
	}
	lines := strings.Split(result.CSVData, "\n")
	if lines[0] != strings.Join(types.Columns, ",") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != `"Doe, John",+1,,10,XAF,,2024-01-01,2024-02-01,,PAID,OWED` {
		t.Fatalf("unexpected row %q", lines[1])
	}

	// Exported text imports back to the same records.
	other := store.NewMemoryStore()
	back := New(other, Options{}).ImportFromCSVText(ctx, "u2", result.CSVData)
	if back.Imported != 1 {
		t.Fatalf("re-import failed: %+v", back)
	}
}

func TestExportAndShare(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	sharer := &fakeSharer{}
	sink := &recordingSink{}
	o := New(s, Options{Sharer: sharer, Sink: sink, FilenameFormat: "debts_{user}.csv"})

	if _, err := o.ExportAndShare(ctx, "u1"); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}

	o.ImportFromCSVText(ctx, "u1", csvText("A,+1,10,XAF,2024-01-01,2024-02-01,PENDING,OWING"))

	location, err := o.ExportAndShare(ctx, "u1")
	if err != nil {
		t.Fatalf("ExportAndShare: %v", err)
	}
	if sharer.filename != "debts_u1.csv" || location != "/out/debts_u1.csv" {
		t.Fatalf("unexpected file name %q at %q", sharer.filename, location)
	}
	if !strings.HasPrefix(sharer.text, "contact_name,") {
		t.Fatalf("unexpected shared text %q", sharer.text)
	}

	sharer.err = errors.New("share sheet closed")
	if _, err := o.ExportAndShare(ctx, "u1"); err == nil {
		t.Fatalf("expected a share error")
	}
	if len(sink.errors) != 2 {
		t.Fatalf("expected two error notifications, got %v", sink.errors)
	}

	if _, err := New(s, Options{}).ExportAndShare(ctx, "u1"); err == nil {
		t.Fatalf("expected an error without a sharer")
	}
}
