package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spanlab/uex/internal/decode"
	"github.com/spanlab/uex/internal/modelcall"
	"github.com/spanlab/uex/internal/runner"
)

func TestPointerExtractByPrompts(t *testing.T) {
	m := runner.NewMock()
	m.Answers = func(prompt, content string) []string {
		switch prompt {
		case "颜色":
			return []string{"红色"}
		case "类型":
			return []string{"电视剧"}
		}
		return nil
	}
	backend := NewPointer(m)

	contents := []string{"这辆车是红色的", "《琅琊榜》是一部电视剧"}
	prompts := []string{"颜色", "类型"}

	got, err := backend.ExtractByPrompts(context.Background(), contents, prompts, 128, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}

	want := [][]string{{"红色"}, {"电视剧"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPointerPreservesBatchOrder(t *testing.T) {
	m := runner.NewMock()
	m.Answers = func(prompt, content string) []string {
		// Each prompt "finds" itself in the content.
		return []string{prompt}
	}
	backend := NewPointer(m)

	prompts := []string{"bb", "aa", "cc"}
	contents := []string{"xx bb yy", "aa zz", "qq cc"}

	got, err := backend.ExtractByPrompts(context.Background(), contents, prompts, 128, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	want := [][]string{{"bb"}, {"aa"}, {"cc"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result order must match input order (-want +got):\n%s", diff)
	}
}

func TestPointerNoMatches(t *testing.T) {
	backend := NewPointer(runner.NewMock())

	got, err := backend.ExtractByPrompts(context.Background(), []string{"天气很好"}, []string{"颜色"}, 64, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	if len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("expected one empty span list, got %v", got)
	}
}

func TestPointerValidation(t *testing.T) {
	backend := NewPointer(runner.NewMock())
	ctx := context.Background()

	tests := []struct {
		name      string
		contents  []string
		prompts   []string
		maxLength int
		threshold float64
	}{
		{"mismatched lengths", []string{"a", "b"}, []string{"p"}, 64, 0.5},
		{"non-positive max length", []string{"a"}, []string{"p"}, 0, 0.5},
		{"negative threshold", []string{"a"}, []string{"p"}, 64, -0.1},
		{"threshold above one", []string{"a"}, []string{"p"}, 64, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backend.ExtractByPrompts(ctx, tt.contents, tt.prompts, tt.maxLength, tt.threshold)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}

	t.Run("validation happens before any model call", func(t *testing.T) {
		m := runner.NewMock()
		backend := NewPointer(m)
		_, _ = backend.ExtractByPrompts(ctx, []string{"a"}, []string{"p"}, -1, 0.5)
		if m.RequestCount() != 0 {
			t.Errorf("expected no model calls, got %d", m.RequestCount())
		}
	})
}

func TestPointerEmptyBatch(t *testing.T) {
	m := runner.NewMock()
	backend := NewPointer(m)

	got, err := backend.ExtractByPrompts(context.Background(), nil, nil, 64, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if m.RequestCount() != 0 {
		t.Errorf("empty batch should not reach the runner, got %d calls", m.RequestCount())
	}
}

// badShapeRunner returns probability tables whose row width disagrees with
// the offset mapping.
type badShapeRunner struct {
	*runner.Mock
}

func (r *badShapeRunner) Run(ctx context.Context, enc *runner.Encoding) ([][]float64, [][]float64, error) {
	start := make([][]float64, enc.BatchSize())
	end := make([][]float64, enc.BatchSize())
	for i := range start {
		start[i] = []float64{0.9}
		end[i] = []float64{0.9}
	}
	return start, end, nil
}

func TestPointerShapeViolation(t *testing.T) {
	backend := NewPointer(&badShapeRunner{runner.NewMock()})

	_, err := backend.ExtractByPrompts(context.Background(), []string{"红色的车"}, []string{"颜色"}, 64, 0.5)
	var shapeErr *decode.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
}

// badEndShapeRunner returns well-formed start rows but truncated end rows.
type badEndShapeRunner struct {
	*runner.Mock
}

func (r *badEndShapeRunner) Run(ctx context.Context, enc *runner.Encoding) ([][]float64, [][]float64, error) {
	start, end, err := r.Mock.Run(ctx, enc)
	if err != nil {
		return nil, nil, err
	}
	for i := range end {
		end[i] = end[i][:1]
	}
	return start, end, nil
}

func TestPointerEndShapeViolation(t *testing.T) {
	backend := NewPointer(&badEndShapeRunner{runner.NewMock()})

	_, err := backend.ExtractByPrompts(context.Background(), []string{"红色的车"}, []string{"颜色"}, 64, 0.5)
	var shapeErr *decode.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if shapeErr.Row != 0 {
		t.Errorf("expected row 0, got %d", shapeErr.Row)
	}
}

func TestPointerRecordsCalls(t *testing.T) {
	m := runner.NewMock()
	m.Answers = func(prompt, content string) []string { return []string{"红色"} }
	store := modelcall.NewStore(10)
	backend := NewPointer(m, WithRecorder(store))

	_, err := backend.ExtractByPrompts(context.Background(), []string{"红色的车"}, []string{"颜色"}, 64, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}

	calls := store.List(0)
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	c := calls[0]
	if c.Runner != runner.MockRunnerName || c.BatchSize != 1 || !c.Success || c.Spans != 1 {
		t.Errorf("unexpected call record: %+v", c)
	}
}
