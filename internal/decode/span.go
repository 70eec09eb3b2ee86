package decode

// Span is an inclusive token-index range believed to delimit one extracted
// answer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// AssembleSpans pairs binarized start positions with end positions using an
// ordered two-pointer sweep. Both inputs must be ascending (Binarize emits
// them that way).
//
// Matching rule: an end position smaller than the current start has no viable
// start and is dropped; otherwise the earliest unmatched start is paired with
// the earliest end at or after it, and both are consumed. Each start and each
// end contributes to at most one span, so starts=[2,5] ends=[5,6] yields
// (2,5) and (5,6) rather than reusing position 5. Leftover positions on
// either side once the other is exhausted are dropped.
func AssembleSpans(starts, ends []int) []Span {
	n := len(starts)
	if len(ends) < n {
		n = len(ends)
	}
	spans := make([]Span, 0, n)

	var si, ei int
	for si < len(starts) && ei < len(ends) {
		s, e := starts[si], ends[ei]
		if s > e {
			ei++
			continue
		}
		spans = append(spans, Span{Start: s, End: e})
		si++
		ei++
	}
	return spans
}
