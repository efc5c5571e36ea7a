// Package table holds the in-memory tabular dataset produced by the source
// loaders and consumed by column resolution and record normalization.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Raw is a loaded dataset: ordered column labels and rows aligned to them.
//
// Cell values are one of:
//   - nil     empty or missing cell
//   - string  text cell
//   - float64 numeric spreadsheet cell
//   - bool    boolean spreadsheet cell
type Raw struct {
	Columns []string
	Rows    [][]any
}

// Cell returns the value at row i, column ix, or nil when ix is out of range.
func (t *Raw) Cell(i, ix int) any {
	if ix < 0 || i < 0 || i >= len(t.Rows) {
		return nil
	}
	row := t.Rows[i]
	if ix >= len(row) {
		return nil
	}
	return row[ix]
}

// Len returns the number of data rows.
func (t *Raw) Len() int { return len(t.Rows) }

// NormalizeLabels trims every header cell, strips a UTF-8 BOM from the first
// one and makes the result unique: blank labels become "Unnamed: N" and
// repeats of a label get ".1", ".2", ... suffixes so the first occurrence
// keeps the plain spelling.
func NormalizeLabels(h []string) []string {
	res := make([]string, len(h))
	used := make(map[string]bool, len(h))
	next := make(map[string]int, len(h))
	for i, col := range h {
		c := col
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[c] {
			base := c
			n := next[base]
			if n == 0 {
				n = 1
			}
			for used[fmt.Sprintf("%s.%d", base, n)] {
				n++
			}
			c = fmt.Sprintf("%s.%d", base, n)
			next[base] = n + 1
		}
		used[c] = true
		res[i] = c
	}
	return res
}

// Align pads or truncates row to width cells.
func Align(row []any, width int) []any {
	if len(row) == width {
		return row
	}
	if len(row) > width {
		return row[:width]
	}
	out := make([]any, width)
	copy(out, row)
	return out
}

// Text renders a cell value as text. Missing cells become "", numbers use
// their shortest decimal form (3 for 3.0) and a NaN number renders as "nan".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
