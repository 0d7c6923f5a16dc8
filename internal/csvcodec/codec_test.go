package csvcodec

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/debtledger/internal/types"
)

func sampleRecord(name, description string) types.DebtRecord {
	return types.DebtRecord{
		ContactName:  name,
		ContactPhone: "+237123456789",
		ContactEmail: "",
		Amount:       decimal.RequireFromString("1500.5"),
		Currency:     "XAF",
		Description:  description,
		LoanDate:     "2024-01-15",
		DueDate:      "2024-02-15",
		Status:       types.StatusPending,
		DebtType:     types.DebtTypeOwed,
	}
}

func assertSameRecord(t *testing.T, want, got types.DebtRecord) {
	t.Helper()
	if !want.Amount.Equal(got.Amount) {
		t.Fatalf("amount: want %s, got %s", want.Amount, got.Amount)
	}
	want.Amount, got.Amount = decimal.Zero, decimal.Zero
	if want != got {
		t.Fatalf("record mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestEncode_Empty(t *testing.T) {
	if got := Encode(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestEncode_HeaderAndRow(t *testing.T) {
	got := Encode([]types.DebtRecord{sampleRecord("John Doe", "rent")})
	want := "contact_name,contact_phone,contact_email,amount,currency,description,loan_date,due_date,repayment_date,status,debt_type\n" +
		"John Doe,+237123456789,,1500.5,XAF,rent,2024-01-15,2024-02-15,,PENDING,OWED"
	if got != want {
		t.Fatalf("unexpected encoding:\nwant %q\ngot  %q", want, got)
	}
}

func TestQuoteField(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"two\nlines", "\"two\nlines\""},
	}
	for _, tc := range cases {
		if got := QuoteField(tc.in); got != tc.want {
			t.Errorf("QuoteField(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	records := []types.DebtRecord{
		sampleRecord("John Doe", "rent"),
		sampleRecord("Doe, Jane", `lent "cash", twice`),
		sampleRecord("Multi", "first line\nsecond line"),
	}
	records[2].RepaymentDate = "2024-03-01"
	records[2].Status = types.StatusPaid
	records[2].ContactEmail = "multi@example.com"

	decoded, err := Decode(Encode(records))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(decoded))
	}
	for i := range records {
		assertSameRecord(t, records[i], decoded[i])
	}
}

func TestQuotingRoundTripsDescriptionExactly(t *testing.T) {
	description := `a, "quoted" word` + "\nand a new line"
	text := Encode([]types.DebtRecord{sampleRecord("John", description)})

	decoded, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(decoded))
	}
	if decoded[0].Description != description {
		t.Fatalf("description: want %q, got %q", description, decoded[0].Description)
	}
}

func TestDecode_TooFewLines(t *testing.T) {
	for _, in := range []string{"", "   ", "contact_name,contact_phone", "contact_name\n\n\n"} {
		if _, err := Decode(in); !errors.Is(err, ErrTooFewLines) {
			t.Errorf("Decode(%q): expected ErrTooFewLines, got %v", in, err)
		}
	}
}

func TestDecode_ConcreteScenario(t *testing.T) {
	text := "contact_name,contact_phone,amount,currency,loan_date,due_date,status,debt_type\n" +
		"John Doe,+237123456789,50000,XAF,2024-01-15,2024-02-15,PENDING,OWING"

	records, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if !r.Amount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("amount: %s", r.Amount)
	}
	if r.Currency != "XAF" || r.Status != types.StatusPending || r.DebtType != types.DebtTypeOwing {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.ContactEmail != "" || r.Description != "" || r.RepaymentDate != "" {
		t.Fatalf("absent columns must decode as empty strings: %+v", r)
	}
}

func TestDecode_DropsRowMissingContactName(t *testing.T) {
	text := "contact_name,contact_phone,amount,loan_date,due_date\n" +
		"John,+237111,10,2024-01-01,2024-02-01\n" +
		",+237222,20,2024-01-01,2024-02-01"

	result, err := New("", nil).DecodeDetailed(text)
	if err != nil {
		t.Fatalf("DecodeDetailed: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].ContactName != "John" {
		t.Fatalf("expected only John, got %+v", result.Records)
	}
	if len(result.Dropped) != 1 || result.Dropped[0].Line != 3 {
		t.Fatalf("expected one drop on line 3, got %+v", result.Dropped)
	}
	if !strings.Contains(result.Dropped[0].Reason, "contact_name") {
		t.Fatalf("drop reason should name the field: %q", result.Dropped[0].Reason)
	}
}

func TestDecode_DropsMismatchedColumnCountAndBadDates(t *testing.T) {
	text := "contact_name,contact_phone,loan_date,due_date\n" +
		"Short,+1\n" +
		"BadLoan,+1,2024-02-30,2024-03-01\n" +
		"BadDue,+1,2024-01-01,01/03/2024\n" +
		"Good,+1,2024-01-01,2024-03-01"

	result, err := New("", nil).DecodeDetailed(text)
	if err != nil {
		t.Fatalf("DecodeDetailed: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].ContactName != "Good" {
		t.Fatalf("expected only Good, got %+v", result.Records)
	}
	if len(result.Dropped) != 3 {
		t.Fatalf("expected 3 drops, got %+v", result.Dropped)
	}
}

func TestDecode_Coercions(t *testing.T) {
	text := "contact_name,contact_phone,amount,currency,loan_date,due_date,status,debt_type\n" +
		"A,+1,abc,,2024-01-01,2024-01-02,UNKNOWN,XYZ"

	records, err := New("EUR", nil).Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if !r.Amount.IsZero() {
		t.Errorf("invalid amount must coerce to 0, got %s", r.Amount)
	}
	if r.Currency != "EUR" {
		t.Errorf("empty currency must use the configured default, got %q", r.Currency)
	}
	if r.Status != types.StatusPending {
		t.Errorf("UNKNOWN status must coerce to PENDING, got %q", r.Status)
	}
	if r.DebtType != types.DebtTypeOwing {
		t.Errorf("XYZ debt type must coerce to OWING, got %q", r.DebtType)
	}
}

func TestDecode_DefaultCurrencyIsXAF(t *testing.T) {
	records, err := Decode("contact_name,contact_phone,loan_date,due_date\nA,+1,2024-01-01,2024-01-02")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if records[0].Currency != "XAF" {
		t.Fatalf("expected XAF, got %q", records[0].Currency)
	}
}

func TestDecode_QuotedHeaderAndCRLF(t *testing.T) {
	text := "\"contact_name\", \"contact_phone\",loan_date,due_date\r\n" +
		"  John  ,+1,2024-01-01,2024-01-02\r\n"

	records, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 || records[0].ContactName != "John" || records[0].DueDate != "2024-01-02" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestDecode_ByteOrderMark(t *testing.T) {
	text := "\uFEFFcontact_name,contact_phone,loan_date,due_date\nAnn,+1,2024-01-01,2024-01-02"

	records, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 || records[0].ContactName != "Ann" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestDecode_StrayQuoteMidFieldKeepsFollowingRows(t *testing.T) {
	text := "contact_name,contact_phone,amount,description,loan_date,due_date\n" +
		"Ann,+1,10,12\" ruler,2024-01-01,2024-02-01\n" +
		"Bob,+1,20,ok,2024-01-01,2024-02-01\n" +
		"Cid,+1,30,ok,2024-01-01,2024-02-01"

	result, err := New("", nil).DecodeDetailed(text)
	if err != nil {
		t.Fatalf("DecodeDetailed: %v", err)
	}
	if len(result.Dropped) != 0 {
		t.Fatalf("expected no drops, got %+v", result.Dropped)
	}
	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %+v", result.Records)
	}
	if got := result.Records[0].Description; got != `12" ruler` {
		t.Fatalf("description: want %q, got %q", `12" ruler`, got)
	}
	if result.Records[1].ContactName != "Bob" || result.Records[2].ContactName != "Cid" {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
}

func TestDecode_UnterminatedQuoteDropsOnlyItsRow(t *testing.T) {
	text := "contact_name,contact_phone,amount,description,loan_date,due_date\n" +
		"Ann,+1,10,\"never closed,2024-01-01,2024-02-01\n" +
		"Bob,+1,20,ok,2024-01-01,2024-02-01\n" +
		"Cid,+1,30,ok,2024-01-01,2024-02-01"

	result, err := New("", nil).DecodeDetailed(text)
	if err != nil {
		t.Fatalf("DecodeDetailed: %v", err)
	}
	if len(result.Records) != 2 || result.Records[0].ContactName != "Bob" || result.Records[1].ContactName != "Cid" {
		t.Fatalf("expected Bob and Cid, got %+v", result.Records)
	}
	if len(result.Dropped) != 1 || result.Dropped[0].Line != 2 {
		t.Fatalf("expected one drop on line 2, got %+v", result.Dropped)
	}
}

func TestDecode_QuotedNewlineLineNumbers(t *testing.T) {
	text := "contact_name,contact_phone,description,loan_date,due_date\n" +
		"Ann,+1,\"two\nlines\",2024-01-01,2024-02-01\n" +
		",+1,x,2024-01-01,2024-02-01"

	result, err := New("", nil).DecodeDetailed(text)
	if err != nil {
		t.Fatalf("DecodeDetailed: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Description != "two\nlines" {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
	if len(result.Dropped) != 1 || result.Dropped[0].Line != 4 {
		t.Fatalf("expected one drop on line 4, got %+v", result.Dropped)
	}
}

func TestSplitLine(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{` a , b `, []string{"a", "b"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{`"",`, []string{"", ""}},
		{`12" ruler,b`, []string{`12" ruler`, "b"}},
		{` "a" ,b`, []string{"a", "b"}},
	}
	for _, tc := range cases {
		got := SplitLine(tc.in)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Errorf("SplitLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-02-30", false},
		{"2024-13-01", false},
		{"2024-1-01", false},
		{"24-01-01", false},
		{"2024/01/01", false},
		{"", false},
		{"2024-01-15", true},
	}
	for _, tc := range cases {
		if got := IsValidDate(tc.in); got != tc.want {
			t.Errorf("IsValidDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
