// Package transformer defines the record-level transformation contract used
// after normalization. Transformers operate on a whole in-memory batch of
// records and return the (possibly shorter or reordered) result.
package transformer

import "wordconv/internal/record"

// Transformer rewrites a batch of word records.
type Transformer interface {
	Apply([]record.Word) []record.Word
}

// Func adapts a plain function to the Transformer interface.
type Func func([]record.Word) []record.Word

// Apply calls f.
func (f Func) Apply(in []record.Word) []record.Word { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, feeding each the previous output.
func (c Chain) Apply(in []record.Word) []record.Word {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
