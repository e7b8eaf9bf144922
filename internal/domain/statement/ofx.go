// Package statement decodes OFX bank statement files into raw transaction
// records. Only the SGML flavor emitted by Brazilian banks is handled; the
// decoder is tag-oriented and tolerates unclosed elements, which are the
// norm in OFX 1.x.
package statement

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// FormatError indicates the stream is not a well-formed OFX statement.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid OFX statement: %s", e.Reason)
}

// Record is one raw transaction as it appears in the statement.
type Record struct {
	ExternalID string // FITID, may be empty for sources that omit it
	Date       time.Time
	Amount     float64
	Memo       string
	Payee      string
}

// Description returns the memo, falling back to the payee name when the
// memo is absent.
func (r *Record) Description() string {
	if r.Memo != "" {
		return r.Memo
	}
	return r.Payee
}

// Reader yields transaction records from an OFX stream, one per call to
// Next. It performs a single forward pass and cannot be restarted.
type Reader struct {
	sc *bufio.Scanner
	// pendingTxn is set when an unclosed STMTTRN ended implicitly at the
	// next STMTTRN open tag, which then still has to be read.
	pendingTxn bool
	sawOFX     bool
	done       bool
}

// NewReader returns a Reader over the given OFX stream.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanTokens)
	return &Reader{sc: sc}
}

// Next returns the next transaction record. It returns io.EOF when the
// stream is exhausted and *FormatError when the stream is not OFX.
func (r *Reader) Next() (*Record, error) {
	if r.done {
		return nil, io.EOF
	}

	if r.pendingTxn {
		r.pendingTxn = false
		rec, err := r.readTransaction()
		if err != nil {
			r.done = true
			return nil, err
		}
		return rec, nil
	}

	for r.sc.Scan() {
		tok := r.sc.Text()
		tag, ok := asTag(tok)
		if !ok {
			continue
		}

		switch tag {
		case "OFX":
			r.sawOFX = true
		case "STMTTRN":
			if !r.sawOFX {
				r.done = true
				return nil, &FormatError{Reason: "transaction outside OFX document"}
			}
			rec, err := r.readTransaction()
			if err != nil {
				r.done = true
				return nil, err
			}
			return rec, nil
		}
	}

	r.done = true
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	if !r.sawOFX {
		return nil, &FormatError{Reason: "missing OFX element"}
	}
	return nil, io.EOF
}

// readTransaction consumes tokens until the STMTTRN closes (explicitly or
// implicitly by the next STMTTRN or the end of the transaction list).
func (r *Reader) readTransaction() (*Record, error) {
	rec := &Record{}
	var field string
	sawAmount := false
	sawDate := false

	for r.sc.Scan() {
		tok := r.sc.Text()

		if tag, ok := asTag(tok); ok {
			if tag == "/STMTTRN" {
				break
			}
			// An unclosed aggregate ends implicitly at the next
			// transaction or when the enclosing list closes.
			if tag == "STMTTRN" {
				r.pendingTxn = true
				break
			}
			if tag == "/BANKTRANLIST" || tag == "/OFX" {
				break
			}
			field = tag
			continue
		}

		value := strings.TrimSpace(tok)
		if value == "" {
			continue
		}

		switch field {
		case "FITID":
			rec.ExternalID = value
		case "DTPOSTED":
			date, err := parseOFXDate(value)
			if err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("bad DTPOSTED %q", value)}
			}
			rec.Date = date
			sawDate = true
		case "TRNAMT":
			amount, err := parseOFXAmount(value)
			if err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("bad TRNAMT %q", value)}
			}
			rec.Amount = amount
			sawAmount = true
		case "MEMO":
			rec.Memo = value
		case "NAME":
			rec.Payee = value
		}
		field = ""
	}

	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	if !sawDate || !sawAmount {
		return nil, &FormatError{Reason: "transaction missing DTPOSTED or TRNAMT"}
	}
	return rec, nil
}

// asTag reports whether a token is a markup tag and returns its upper-cased
// name without the angle brackets.
func asTag(tok string) (string, bool) {
	if len(tok) < 3 || tok[0] != '<' || tok[len(tok)-1] != '>' {
		return "", false
	}
	return strings.ToUpper(tok[1 : len(tok)-1]), true
}

// scanTokens splits the stream into tags ("<NAME>") and the text between
// them. OFX 1.x headers ("OFXHEADER:100" etc.) come through as plain text
// and are ignored by the reader.
func scanTokens(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) == 0 && atEOF {
		return 0, nil, nil
	}

	if data[0] == '<' {
		for i := 1; i < len(data); i++ {
			if data[i] == '>' {
				return i + 1, data[:i+1], nil
			}
		}
		if atEOF {
			// Dangling '<' at end of stream, emit as text.
			return len(data), data, nil
		}
		return 0, nil, nil
	}

	for i := 0; i < len(data); i++ {
		if data[i] == '<' {
			return i, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseOFXDate parses the leading YYYYMMDD or YYYYMMDDHHMMSS portion of a
// DTPOSTED value, ignoring fractional seconds and timezone suffixes like
// "[-3:BRT]".
func parseOFXDate(value string) (time.Time, error) {
	digits := value
	for i, c := range value {
		if c < '0' || c > '9' {
			digits = value[:i]
			break
		}
	}

	switch {
	case len(digits) >= 14:
		return time.Parse("20060102150405", digits[:14])
	case len(digits) >= 8:
		return time.Parse("20060102", digits[:8])
	default:
		return time.Time{}, fmt.Errorf("date too short: %q", value)
	}
}

// parseOFXAmount parses a signed decimal amount. Some banks emit decimal
// commas ("-45,00"); those are normalized before parsing.
func parseOFXAmount(value string) (float64, error) {
	normalized := strings.ReplaceAll(value, ",", ".")
	return strconv.ParseFloat(normalized, 64)
}
