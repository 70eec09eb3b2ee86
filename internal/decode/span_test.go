package decode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssembleSpans(t *testing.T) {
	tests := []struct {
		name   string
		starts []int
		ends   []int
		want   []Span
	}{
		{
			name:   "aligned pairs",
			starts: []int{5, 9},
			ends:   []int{7, 10},
			want:   []Span{{5, 7}, {9, 10}},
		},
		{
			name:   "shared boundary position is not reused",
			starts: []int{2, 5},
			ends:   []int{5, 6},
			want:   []Span{{2, 5}, {5, 6}},
		},
		{
			name:   "single token span",
			starts: []int{4},
			ends:   []int{4},
			want:   []Span{{4, 4}},
		},
		{
			name:   "end before any start is dropped",
			starts: []int{6},
			ends:   []int{3, 8},
			want:   []Span{{6, 8}},
		},
		{
			name:   "surplus starts are dropped",
			starts: []int{2, 4, 9},
			ends:   []int{5},
			want:   []Span{{2, 5}},
		},
		{
			name:   "surplus ends are dropped",
			starts: []int{2},
			ends:   []int{3, 7, 9},
			want:   []Span{{2, 3}},
		},
		{
			name:   "empty starts",
			starts: nil,
			ends:   []int{1, 2},
			want:   []Span{},
		},
		{
			name:   "empty ends",
			starts: []int{1, 2},
			ends:   nil,
			want:   []Span{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleSpans(tt.starts, tt.ends)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AssembleSpans() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssembleSpansSoundness(t *testing.T) {
	starts := []int{1, 3, 3, 6, 10, 15}
	ends := []int{2, 4, 5, 5, 9, 12, 20}

	got := AssembleSpans(starts, ends)

	usedEnds := make(map[int]bool)
	for _, sp := range got {
		if sp.Start > sp.End {
			t.Errorf("span %+v has start after end", sp)
		}
		if usedEnds[sp.End] {
			t.Errorf("end position %d used by more than one span", sp.End)
		}
		usedEnds[sp.End] = true
	}
}

func TestAssembleSpansDeterminism(t *testing.T) {
	starts := []int{2, 5, 8}
	ends := []int{3, 6, 9}

	first := AssembleSpans(starts, ends)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, AssembleSpans(starts, ends)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}
