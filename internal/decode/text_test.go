package decode

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// identityOffsets builds a rune-per-token offset table over text with the
// usual [CLS] prompt [SEP] content framing.
func identityOffsets(promptLen, contentLen int) []Offset {
	offsets := make([]Offset, 0, promptLen+contentLen+2)
	offsets = append(offsets, Offset{}) // [CLS]
	for i := 0; i < promptLen; i++ {
		offsets = append(offsets, Offset{Start: i, End: i + 1})
	}
	offsets = append(offsets, Offset{}) // [SEP]
	for i := 0; i < contentLen; i++ {
		offsets = append(offsets, Offset{Start: promptLen + i, End: promptLen + i + 1})
	}
	return offsets
}

func TestDecodeSpans(t *testing.T) {
	prompt := "颜色"
	content := "这辆车是红色的"
	text := prompt + content
	offsets := identityOffsets(2, 7)

	t.Run("decodes content span", func(t *testing.T) {
		// "红色" sits at content runes 4..5, token indices 2+2+4..5.
		got, err := DecodeSpans([]Span{{Start: 8, End: 9}}, offsets, text, 2)
		if err != nil {
			t.Fatalf("DecodeSpans() error = %v", err)
		}
		if diff := cmp.Diff([]string{"红色"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("discards spans anchored in the prompt region", func(t *testing.T) {
		got, err := DecodeSpans([]Span{{Start: 1, End: 2}, {Start: 3, End: 4}}, offsets, text, 2)
		if err != nil {
			t.Fatalf("DecodeSpans() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected prompt-region spans to be dropped, got %v", got)
		}
	})

	t.Run("keeps span starting exactly at the content boundary", func(t *testing.T) {
		got, err := DecodeSpans([]Span{{Start: 4, End: 4}}, offsets, text, 2)
		if err != nil {
			t.Fatalf("DecodeSpans() error = %v", err)
		}
		if diff := cmp.Diff([]string{"这"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("preserves span emission order", func(t *testing.T) {
		spans := []Span{{Start: 8, End: 9}, {Start: 4, End: 5}}
		got, err := DecodeSpans(spans, offsets, text, 2)
		if err != nil {
			t.Fatalf("DecodeSpans() error = %v", err)
		}
		if diff := cmp.Diff([]string{"红色", "这辆"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("span beyond offset table returns OffsetError", func(t *testing.T) {
		_, err := DecodeSpans([]Span{{Start: 5, End: 99}}, offsets, text, 2)
		var offErr *OffsetError
		if !errors.As(err, &offErr) {
			t.Fatalf("expected OffsetError, got %v", err)
		}
	})

	t.Run("offset beyond text returns OffsetError", func(t *testing.T) {
		bad := make([]Offset, len(offsets))
		copy(bad, offsets)
		bad[5] = Offset{Start: 0, End: 1000}

		_, err := DecodeSpans([]Span{{Start: 5, End: 6}}, bad, text, 2)
		var offErr *OffsetError
		if !errors.As(err, &offErr) {
			t.Fatalf("expected OffsetError, got %v", err)
		}
	})
}

// With identity offsets the decoded text must equal the exact rune slice
// between the first token's start and the last token's end.
func TestDecodeSpansRoundTrip(t *testing.T) {
	prompt := "ab"
	content := "hello world"
	text := prompt + content
	offsets := identityOffsets(2, len(content))

	span := Span{Start: 7, End: 11} // content runes 3..7 -> "lo wo"
	got, err := DecodeSpans([]Span{span}, offsets, text, 2)
	if err != nil {
		t.Fatalf("DecodeSpans() error = %v", err)
	}

	runes := []rune(text)
	want := string(runes[offsets[span.Start].Start:offsets[span.End].End])
	if got[0] != want {
		t.Errorf("expected %q, got %q", want, got[0])
	}
}

func TestOffsetJSONPairForm(t *testing.T) {
	data, err := json.Marshal(Offset{Start: 3, End: 7})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "[3,7]" {
		t.Errorf("expected [3,7], got %s", data)
	}

	var o Offset
	if err := json.Unmarshal([]byte("[10,12]"), &o); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if o.Start != 10 || o.End != 12 {
		t.Errorf("unexpected offset: %+v", o)
	}

	if err := json.Unmarshal([]byte(`{"start":1}`), &o); err == nil {
		t.Error("expected error for non-pair form")
	}
}
