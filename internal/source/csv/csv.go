// Package csv parses delimited text into a table.Raw. The first record is the
// header; labels are trimmed and made unique, empty cells become nil and
// every other cell stays text.
//
// Input may be in any encoding known to the WHATWG encoding index (e.g.
// "gbk", "shift_jis", "big5"). With no encoding configured the input is
// treated as UTF-8, and a UTF-8 or UTF-16 byte order mark selects the
// matching decoder.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"wordconv/internal/table"
)

// Options configures the CSV parser. The zero value parses UTF-8,
// comma-separated input with strict quoting.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// Encoding names the input character set; empty means UTF-8.
	Encoding string

	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes).
	LazyQuotes bool
}

// Parser parses CSV input according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Load parses the file at path.
func Load(path string, opt Options) (*table.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := NewParser(opt).Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return t, nil
}

// Decoder returns the decoder for the named encoding. Unknown names are an
// error.
func Decoder(name string) (*encoding.Decoder, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("csv: unknown encoding %q: %w", name, err)
	}
	return enc.NewDecoder(), nil
}

// Parse reads the whole input and returns the table. Records wider than the
// header are truncated; shorter ones are padded with nil.
func (p *Parser) Parse(r io.Reader) (*table.Raw, error) {
	dec, err := Decoder(p.opt.Encoding)
	if err != nil {
		return nil, err
	}
	// A byte order mark overrides the configured decoder.
	r = transform.NewReader(r, unicode.BOMOverride(dec))

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1 // width is enforced by alignment below

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: no header row")
		}
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	headers := table.NormalizeLabels(h)

	t := &table.Raw{Columns: headers}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}

		rec := make([]any, len(row))
		for i, val := range row {
			rec[i] = emptyToNil(val)
		}
		t.Rows = append(t.Rows, table.Align(rec, len(headers)))
	}
	return t, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
