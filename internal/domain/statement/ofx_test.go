package statement

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<STMTRS>
<CURDEF>BRL
<BANKTRANLIST>
<DTSTART>20240301000000[-3:BRT]
<DTEND>20240331000000[-3:BRT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305120000[-3:BRT]
<TRNAMT>-45.00
<FITID>2024030501
<MEMO>UBER TRIP 1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240315
<TRNAMT>3000,00
<FITID>2024031502
<NAME>EMPRESA XYZ LTDA
<MEMO>Salário Mensal
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240320
<TRNAMT>-12.34
<MEMO>PADARIA DO ZE
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func readAll(t *testing.T, r *Reader) []*Record {
	t.Helper()

	var records []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		records = append(records, rec)
	}
}

func TestReaderParsesStatement(t *testing.T) {
	records := readAll(t, NewReader(strings.NewReader(sampleOFX)))

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.ExternalID != "2024030501" {
		t.Errorf("expected external id 2024030501, got %q", first.ExternalID)
	}
	if first.Amount != -45.00 {
		t.Errorf("expected amount -45.00, got %v", first.Amount)
	}
	if first.Description() != "UBER TRIP 1234" {
		t.Errorf("unexpected description %q", first.Description())
	}
	wantDate := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	if !first.Date.Equal(wantDate) {
		t.Errorf("expected date %v, got %v", wantDate, first.Date)
	}

	// Decimal comma amounts must be accepted.
	if records[1].Amount != 3000.00 {
		t.Errorf("expected amount 3000.00, got %v", records[1].Amount)
	}
	if records[1].Description() != "Salário Mensal" {
		t.Errorf("unexpected description %q", records[1].Description())
	}
}

func TestReaderRecordWithoutExternalID(t *testing.T) {
	records := readAll(t, NewReader(strings.NewReader(sampleOFX)))

	last := records[2]
	if last.ExternalID != "" {
		t.Errorf("expected empty external id, got %q", last.ExternalID)
	}
	if last.Description() != "PADARIA DO ZE" {
		t.Errorf("unexpected description %q", last.Description())
	}
}

func TestReaderDescriptionFallsBackToPayee(t *testing.T) {
	rec := &Record{Payee: "EMPRESA XYZ"}
	if rec.Description() != "EMPRESA XYZ" {
		t.Errorf("expected payee fallback, got %q", rec.Description())
	}
}

func TestReaderRejectsNonOFX(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain text", input: "this is not a statement"},
		{name: "empty", input: ""},
		{name: "html", input: "<html><body>hello</body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).Next()

			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected *FormatError, got %v", err)
			}
		})
	}
}

func TestReaderRejectsBadAmount(t *testing.T) {
	input := `<OFX><STMTTRN><DTPOSTED>20240305<TRNAMT>abc<FITID>1</STMTTRN></OFX>`

	_, err := NewReader(strings.NewReader(input)).Next()

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
}

func TestReaderRejectsMissingFields(t *testing.T) {
	input := `<OFX><STMTTRN><FITID>1<MEMO>no date or amount</STMTTRN></OFX>`

	_, err := NewReader(strings.NewReader(input)).Next()

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
}

func TestReaderUnclosedTransactions(t *testing.T) {
	// OFX 1.x allows aggregates to go unclosed; a transaction then ends
	// implicitly at the next STMTTRN or when the list closes.
	input := `OFXHEADER:100

<OFX>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305
<TRNAMT>-45.00
<FITID>A1
<MEMO>UBER TRIP 1234
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240315
<TRNAMT>3000.00
<FITID>B2
<MEMO>Salário Mensal
</BANKTRANLIST>
</OFX>
`
	records := readAll(t, NewReader(strings.NewReader(input)))

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ExternalID != "A1" || records[0].Amount != -45.00 {
		t.Errorf("first record corrupted: %+v", records[0])
	}
	if records[0].Description() != "UBER TRIP 1234" {
		t.Errorf("unexpected first description %q", records[0].Description())
	}
	if records[1].ExternalID != "B2" || records[1].Amount != 3000.00 {
		t.Errorf("second record corrupted: %+v", records[1])
	}
}

func TestReaderSinglePass(t *testing.T) {
	r := NewReader(strings.NewReader(sampleOFX))
	readAll(t, r)

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after exhaustion, got %v", err)
	}
}
