// Package columns resolves the loosely named, multilingual header labels of a
// vocabulary table to the six canonical fields of a word record.
//
// Each field owns an ordered list of accepted label spellings. Resolution
// scans that list in order and picks the first spelling present among the
// (trimmed) table labels, so earlier synonyms win over later ones when a table
// carries more than one of them.
package columns

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingWordColumn is returned when no label matches the word field.
var ErrMissingWordColumn = errors.New("word column not found")

// Field is one of the canonical record roles a column may be mapped to.
type Field int

const (
	Word Field = iota
	POS
	Phonetic
	Meaning
	Example
	Position
)

// Fields lists every canonical field in output order.
var Fields = [...]Field{Word, POS, Phonetic, Meaning, Example, Position}

var fieldNames = [...]string{
	Word:     "word",
	POS:      "pos",
	Phonetic: "phonetic",
	Meaning:  "meaning",
	Example:  "example",
	Position: "position",
}

// String returns the JSON key of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// candidates holds the accepted spellings per field in priority order:
// simplified Chinese, traditional Chinese, Japanese, then English variants.
var candidates = [...][]string{
	Word:     {"单词", "單詞", "単語", "word", "Word", "WORD"},
	POS:      {"词性", "詞性", "品詞", "pos", "POS"},
	Phonetic: {"音标", "音標", "発音記号", "phonetic", "Phonetic"},
	Meaning:  {"词义", "詞義", "意味", "meaning", "Meaning"},
	Example:  {"例句", "例文", "example", "Example"},
	Position: {"单词量", "單詞量", "単語量", "单词量位置", "位置", "position", "Position"},
}

// Candidates returns a copy of the accepted label spellings for f.
func Candidates(f Field) []string {
	if f < 0 || int(f) >= len(candidates) {
		return nil
	}
	return append([]string(nil), candidates[f]...)
}

// Column identifies a resolved source column.
type Column struct {
	Label string
	Index int
}

// Mapping maps each canonical field to a source column. The zero value has
// every field absent; use Resolve to build one.
type Mapping struct {
	cols    [len(fieldNames)]Column
	present [len(fieldNames)]bool
}

// Lookup returns the column mapped to f and whether f is present.
func (m Mapping) Lookup(f Field) (Column, bool) {
	if f < 0 || int(f) >= len(m.cols) {
		return Column{}, false
	}
	return m.cols[f], m.present[f]
}

// Index returns the column index mapped to f, or -1 when f is absent.
func (m Mapping) Index(f Field) int {
	c, ok := m.Lookup(f)
	if !ok {
		return -1
	}
	return c.Index
}

// String renders the mapping as field=label pairs, absent fields as "-".
func (m Mapping) String() string {
	var b strings.Builder
	for i, f := range Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.String())
		b.WriteByte('=')
		if c, ok := m.Lookup(f); ok {
			b.WriteString(c.Label)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Pick returns the first candidate of f that appears among labels.
func Pick(labels []string, f Field) (Column, bool) {
	if f < 0 || int(f) >= len(candidates) {
		return Column{}, false
	}
	index := indexLabels(labels)
	return pick(index, candidates[f])
}

// Resolve maps every canonical field to a column of labels. The word field is
// mandatory; any other unmatched field is recorded as absent.
func Resolve(labels []string) (Mapping, error) {
	index := indexLabels(labels)

	var m Mapping
	for _, f := range Fields {
		c, ok := pick(index, candidates[f])
		if !ok {
			continue
		}
		m.cols[f] = c
		m.present[f] = true
	}
	if !m.present[Word] {
		return Mapping{}, fmt.Errorf("%w (accepted labels: %s)", ErrMissingWordColumn, strings.Join(candidates[Word], ", "))
	}
	return m, nil
}

// indexLabels maps each trimmed label to the index of its first occurrence.
func indexLabels(labels []string) map[string]int {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if _, dup := index[l]; !dup {
			index[l] = i
		}
	}
	return index
}

func pick(index map[string]int, spellings []string) (Column, bool) {
	for _, s := range spellings {
		if i, ok := index[s]; ok {
			return Column{Label: s, Index: i}, true
		}
	}
	return Column{}, false
}
