// Package decode converts a pointer network's per-token start/end probability
// tables into text spans: probabilities are binarized against a threshold,
// start and end positions are paired into token spans, and spans are mapped
// back onto the source text through the tokenizer's offset table.
package decode

// Binarize returns, for every row of the probability table, the ascending
// token positions whose probability is strictly greater than threshold.
// Rows with no position above threshold yield an empty set. The table must
// be rectangular; ragged input returns a ShapeError.
func Binarize(table [][]float64, threshold float64) ([][]int, error) {
	out := make([][]int, len(table))
	if len(table) == 0 {
		return out, nil
	}

	width := len(table[0])
	for i, row := range table {
		if len(row) != width {
			return nil, &ShapeError{Row: i, Got: len(row), Want: width}
		}
		ids := make([]int, 0, 4)
		for pos, p := range row {
			if p > threshold {
				ids = append(ids, pos)
			}
		}
		out[i] = ids
	}
	return out, nil
}
