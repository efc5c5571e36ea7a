// Package builtin contains the record transformers applied after
// normalization.
//
// DeDup collapses records sharing the same word. The latest occurrence in
// the batch wins, and it takes over the slot where that word was first seen,
// so the relative order of distinct words follows their first appearance.
// Keys compare by exact string equality; normalization trims but never
// case-folds, so "Apple" and "apple" stay distinct.
package builtin

import "wordconv/internal/record"

// DeDup implements last-write-wins de-duplication keyed by Word.
type DeDup struct{}

// Apply returns a new slice holding one record per distinct word.
func (DeDup) Apply(in []record.Word) []record.Word {
	if len(in) == 0 {
		return in
	}

	slot := make(map[string]int, len(in))
	out := make([]record.Word, 0, len(in))
	for _, r := range in {
		if i, ok := slot[r.Word]; ok {
			out[i] = r
			continue
		}
		slot[r.Word] = len(out)
		out = append(out, r)
	}
	return out
}
