package decode

import (
	"errors"
	"testing"
)

func TestBinarize(t *testing.T) {
	t.Run("selects positions strictly above threshold", func(t *testing.T) {
		table := [][]float64{
			{0.1, 0.6, 0.5, 0.9},
			{0.2, 0.2, 0.2, 0.2},
		}

		got, err := Binarize(table, 0.5)
		if err != nil {
			t.Fatalf("Binarize() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(got))
		}
		if len(got[0]) != 2 || got[0][0] != 1 || got[0][1] != 3 {
			t.Errorf("row 0: expected [1 3], got %v", got[0])
		}
		if len(got[1]) != 0 {
			t.Errorf("row 1: expected empty set, got %v", got[1])
		}
	})

	t.Run("boundary value is excluded", func(t *testing.T) {
		got, err := Binarize([][]float64{{0.5}}, 0.5)
		if err != nil {
			t.Fatalf("Binarize() error = %v", err)
		}
		if len(got[0]) != 0 {
			t.Errorf("probability equal to threshold must not be selected, got %v", got[0])
		}
	})

	t.Run("empty table", func(t *testing.T) {
		got, err := Binarize(nil, 0.5)
		if err != nil {
			t.Fatalf("Binarize() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no rows, got %v", got)
		}
	})

	t.Run("ragged table returns ShapeError", func(t *testing.T) {
		table := [][]float64{
			{0.1, 0.2, 0.3},
			{0.1, 0.2},
		}

		_, err := Binarize(table, 0.5)
		var shapeErr *ShapeError
		if !errors.As(err, &shapeErr) {
			t.Fatalf("expected ShapeError, got %v", err)
		}
		if shapeErr.Row != 1 || shapeErr.Got != 2 || shapeErr.Want != 3 {
			t.Errorf("unexpected error detail: %+v", shapeErr)
		}
	})
}

// Lowering the threshold may only grow each row's index set.
func TestBinarizeMonotonicity(t *testing.T) {
	table := [][]float64{
		{0.05, 0.3, 0.45, 0.55, 0.7, 0.95},
		{0.5, 0.5, 0.51, 0.49, 0.99, 0.01},
	}

	low, err := Binarize(table, 0.3)
	if err != nil {
		t.Fatalf("Binarize(0.3) error = %v", err)
	}
	high, err := Binarize(table, 0.7)
	if err != nil {
		t.Fatalf("Binarize(0.7) error = %v", err)
	}

	for row := range table {
		members := make(map[int]bool, len(low[row]))
		for _, pos := range low[row] {
			members[pos] = true
		}
		for _, pos := range high[row] {
			if !members[pos] {
				t.Errorf("row %d: position %d selected at 0.7 but not at 0.3", row, pos)
			}
		}
	}
}
