// Package runner defines the boundary to the span-scoring model and its
// tokenizer. The engine owns none of the model internals; it hands batches of
// (prompt, content) pairs to a Runner and gets back per-token start/end
// probability tables plus the offset mapping needed to slice answers out of
// the source text.
package runner

import (
	"context"

	"github.com/spanlab/uex/internal/decode"
)

// Encoding is the tokenized form of one batch of (prompt, content) pairs.
// All tensors share the batch dimension; rows are padded to a common length.
type Encoding struct {
	TokenIDs      [][]int64         `json:"token_ids"`
	TypeIDs       [][]int64         `json:"type_ids"`
	AttentionMask [][]int64         `json:"attention_mask"`
	Offsets       [][]decode.Offset `json:"offset_mapping"`
}

// BatchSize returns the number of pairs in the encoding.
func (e *Encoding) BatchSize() int {
	if e == nil {
		return 0
	}
	return len(e.TokenIDs)
}

// Runner is the model/tokenizer collaborator. Implementations must express
// offsets in rune positions of prompt+content, with (0,0) for non-text
// tokens, and return probability rows of the padded sequence length in
// batch order.
type Runner interface {
	// Name returns the runner identifier (e.g. "http", "mock").
	Name() string

	// Encode tokenizes the pairs in one batch. prompts and contents are
	// parallel; entries longer than maxLength tokens are truncated, shorter
	// ones padded.
	Encode(ctx context.Context, prompts, contents []string, maxLength int) (*Encoding, error)

	// Run scores an encoded batch and returns the start and end probability
	// tables, one row per pair, values in [0,1].
	Run(ctx context.Context, enc *Encoding) (start, end [][]float64, err error)
}
