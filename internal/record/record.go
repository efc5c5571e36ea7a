// Package record turns raw table rows into canonical word records.
package record

import (
	"math"
	"strconv"
	"strings"

	"wordconv/internal/columns"
	"wordconv/internal/table"
)

// Word is one entry of the output document. Field order matches the JSON key
// order of the output.
type Word struct {
	Word     string `json:"word"`
	POS      string `json:"pos"`
	Phonetic string `json:"phonetic"`
	Meaning  string `json:"meaning"`
	Example  string `json:"example"`
	Position *int64 `json:"position"`
}

// Int64 returns a pointer to v; handy for building Position values.
func Int64(v int64) *int64 { return &v }

// Result is the outcome of normalizing a table.
type Result struct {
	Records []Word
	Dropped int // rows whose word cell was empty or a "nan" marker
}

// Normalize converts every row of t into at most one Word using m. Rows are
// visited in order and surviving records keep that order.
func Normalize(t *table.Raw, m columns.Mapping) Result {
	res := Result{Records: make([]Word, 0, t.Len())}
	for i := range t.Rows {
		w, ok := FromRow(t, i, m)
		if !ok {
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, w)
	}
	return res
}

// FromRow builds the record for row i. It reports false when the row carries
// no usable word.
func FromRow(t *table.Raw, i int, m columns.Mapping) (Word, bool) {
	word := strings.TrimSpace(table.Text(t.Cell(i, m.Index(columns.Word))))
	if word == "" || strings.EqualFold(word, "nan") {
		return Word{}, false
	}

	text := func(f columns.Field) string {
		ix := m.Index(f)
		if ix < 0 {
			return ""
		}
		return strings.TrimSpace(table.Text(t.Cell(i, ix)))
	}

	w := Word{
		Word:     word,
		POS:      text(columns.POS),
		Phonetic: text(columns.Phonetic),
		Meaning:  text(columns.Meaning),
		Example:  text(columns.Example),
	}
	if ix := m.Index(columns.Position); ix >= 0 {
		w.Position = CleanNumber(t.Cell(i, ix))
	}
	return w, true
}

// CleanNumber interprets v as a real number and truncates it toward zero.
// It never fails: missing values, NaN, infinities, unparseable text and values
// outside the int64 range all yield nil.
func CleanNumber(v any) *int64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return Int64(int64(x))
	case int64:
		return Int64(x)
	case bool:
		if x {
			return Int64(1)
		}
		return Int64(0)
	case string:
		p, ok := parseReal(x)
		if !ok {
			return nil
		}
		f = p
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Trunc(f)
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	return Int64(int64(f))
}

// parseReal parses decimal text the way a spreadsheet user writes it:
// surrounding whitespace is ignored and hexadecimal literals are rejected.
func parseReal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
