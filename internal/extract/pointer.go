package extract

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/spanlab/uex/internal/decode"
	"github.com/spanlab/uex/internal/modelcall"
	"github.com/spanlab/uex/internal/runner"
)

// PointerBackend extracts spans with a pointer-network scorer: the runner
// encodes and scores a batch, and the probability tables are decoded into
// text spans. Each batch is atomic; a malformed row from the scorer fails
// the whole call.
type PointerBackend struct {
	runner   runner.Runner
	recorder Recorder
	logger   *slog.Logger
}

// PointerOption customises a PointerBackend.
type PointerOption func(*PointerBackend)

// WithPointerLogger injects a logger.
func WithPointerLogger(logger *slog.Logger) PointerOption {
	return func(b *PointerBackend) { b.logger = logger }
}

// WithRecorder records every scorer invocation.
func WithRecorder(rec Recorder) PointerOption {
	return func(b *PointerBackend) { b.recorder = rec }
}

// NewPointer creates a backend over the given runner.
func NewPointer(r runner.Runner, opts ...PointerOption) *PointerBackend {
	b := &PointerBackend{runner: r}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Name returns the backend identifier.
func (b *PointerBackend) Name() string {
	return "pointer/" + b.runner.Name()
}

// ExtractByPrompts implements Backend.
func (b *PointerBackend) ExtractByPrompts(ctx context.Context, contents, prompts []string, maxLength int, threshold float64) ([][]string, error) {
	if err := ValidateParams(contents, prompts, maxLength, threshold); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return [][]string{}, nil
	}

	call := modelcall.Begin(b.runner.Name(), len(prompts), maxLength, threshold)
	results, err := b.runBatch(ctx, contents, prompts, maxLength, threshold)
	if b.recorder != nil {
		spans := 0
		for _, r := range results {
			spans += len(r)
		}
		b.recorder.Record(call.Finish(spans, err))
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (b *PointerBackend) runBatch(ctx context.Context, contents, prompts []string, maxLength int, threshold float64) ([][]string, error) {
	enc, err := b.runner.Encode(ctx, prompts, contents, maxLength)
	if err != nil {
		return nil, fmt.Errorf("encode failed: %w", err)
	}

	startProbs, endProbs, err := b.runner.Run(ctx, enc)
	if err != nil {
		return nil, fmt.Errorf("model run failed: %w", err)
	}
	if len(startProbs) != len(prompts) {
		return nil, &decode.ShapeError{Row: -1, Got: len(startProbs), Want: len(prompts)}
	}
	if len(endProbs) != len(prompts) {
		return nil, &decode.ShapeError{Row: -1, Got: len(endProbs), Want: len(prompts)}
	}

	startIDs, err := decode.Binarize(startProbs, threshold)
	if err != nil {
		return nil, fmt.Errorf("start probabilities: %w", err)
	}
	endIDs, err := decode.Binarize(endProbs, threshold)
	if err != nil {
		return nil, fmt.Errorf("end probabilities: %w", err)
	}

	results := make([][]string, len(prompts))
	for i := range prompts {
		offsets := enc.Offsets[i]
		if len(startProbs[i]) != len(offsets) {
			return nil, &decode.ShapeError{Row: i, Got: len(startProbs[i]), Want: len(offsets)}
		}
		if len(endProbs[i]) != len(offsets) {
			return nil, &decode.ShapeError{Row: i, Got: len(endProbs[i]), Want: len(offsets)}
		}

		spans := decode.AssembleSpans(startIDs[i], endIDs[i])
		text := prompts[i] + contents[i]
		texts, err := decode.DecodeSpans(spans, offsets, text, utf8.RuneCountInString(prompts[i]))
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		results[i] = texts
	}

	b.logger.Debug("batch extracted",
		"runner", b.runner.Name(),
		"pairs", len(prompts),
		"threshold", threshold)
	return results, nil
}
