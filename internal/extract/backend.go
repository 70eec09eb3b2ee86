// Package extract drives schema-defined extraction protocols over a
// span-producing backend: batches of (prompt, content) pairs go in, lists of
// extracted text spans come out, and the engine composes multi-stage
// cascades from a declarative schema.
package extract

import (
	"context"

	"github.com/spanlab/uex/internal/modelcall"
)

// Backend produces extracted spans for a batch of (prompt, content) pairs.
// Implementations must preserve the batch dimension: result order matches
// input order exactly, one span list per pair, empty when nothing was found.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// ExtractByPrompts runs one batch. contents and prompts are parallel;
	// callers may repeat the same content across prompts or vice versa.
	ExtractByPrompts(ctx context.Context, contents, prompts []string, maxLength int, threshold float64) ([][]string, error)
}

// Recorder receives a record of every model invocation a backend performs.
// *modelcall.Store satisfies it.
type Recorder interface {
	Record(c *modelcall.Call)
}
