// Package packer implements greedy, order-preserving batching of text units
// under a token budget. Forward packing groups document paragraphs into
// chunks; BuildWindow assembles a conversation window most-recent-first.
// Neither is optimal bin-packing; both are deterministic and never drop or
// truncate a unit on token grounds alone.
package packer

import (
	"fmt"
	"strings"
)

// Paragraph is one input unit with its precomputed token count.
type Paragraph struct {
	Text   string
	Tokens int
}

// Batch is an ordered group of paragraphs whose summed tokens stay within the
// budget, except when it holds a single paragraph that alone exceeds it.
type Batch struct {
	Paragraphs []Paragraph
	Tokens     int
}

// Text joins the batch paragraphs with a single space.
func (b Batch) Text() string {
	parts := make([]string, len(b.Paragraphs))
	for i, p := range b.Paragraphs {
		parts[i] = p.Text
	}
	return strings.Join(parts, " ")
}

// PackForward accumulates paragraphs in order. When adding a paragraph would
// push the running batch over budget, the batch is closed and a new one opens
// with that paragraph. The trailing batch is always emitted. A paragraph whose
// own count exceeds the budget forms its own oversized batch; it is never
// split. An empty input produces no batches.
func PackForward(paragraphs []Paragraph, budget int) ([]Batch, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("pack forward: budget must be positive, got %d", budget)
	}

	var batches []Batch
	var current Batch
	for _, p := range paragraphs {
		if len(current.Paragraphs) > 0 && current.Tokens+p.Tokens > budget {
			batches = append(batches, current)
			current = Batch{}
		}
		current.Paragraphs = append(current.Paragraphs, p)
		current.Tokens += p.Tokens
	}
	if len(current.Paragraphs) > 0 {
		batches = append(batches, current)
	}
	return batches, nil
}
