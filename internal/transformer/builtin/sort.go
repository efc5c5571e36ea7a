package builtin

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"wordconv/internal/record"
)

// Sort orders records for output:
//
//  1. records with a position come before records without one;
//  2. positioned records ascend by position;
//  3. ties (equal or both missing) ascend by the lowercased word.
//
// The sort is stable, so records whose keys compare equal keep their input
// order. Lowercasing uses full Unicode case mapping.
type Sort struct{}

// Apply sorts in place and returns in.
func (Sort) Apply(in []record.Word) []record.Word {
	lower := cases.Lower(language.Und)
	keys := make([]string, len(in))
	for i, r := range in {
		keys[i] = lower.String(r.Word)
	}

	idx := make([]int, len(in))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return less(in[idx[a]], keys[idx[a]], in[idx[b]], keys[idx[b]])
	})

	sorted := make([]record.Word, len(in))
	for i, j := range idx {
		sorted[i] = in[j]
	}
	copy(in, sorted)
	return in
}

func less(a record.Word, ak string, b record.Word, bk string) bool {
	switch {
	case a.Position != nil && b.Position == nil:
		return true
	case a.Position == nil && b.Position != nil:
		return false
	case a.Position != nil && *a.Position != *b.Position:
		return *a.Position < *b.Position
	}
	return ak < bk
}
