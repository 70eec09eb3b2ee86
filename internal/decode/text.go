package decode

import (
	"encoding/json"
	"fmt"
	"strings"
)

// framingTokens is the number of non-text positions that precede the content
// region in an encoded pair: the leading [CLS] plus the [SEP] between prompt
// and content. The first content token therefore sits at prompt length + 2.
// This matches BERT-style tokenizers; a different framing convention needs a
// different constant.
const framingTokens = 2

// Offset is a half-open character range into the concatenation of prompt and
// content text. Non-text tokens (specials, padding) carry (0,0). Character
// positions count runes, not bytes, matching tokenizer offset conventions.
//
// Offsets serialize as two-element arrays, the shape tokenizers emit for
// offset mappings.
type Offset struct {
	Start int
	End   int
}

// MarshalJSON renders the offset as [start, end].
func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{o.Start, o.End})
}

// UnmarshalJSON accepts the [start, end] pair form.
func (o *Offset) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("offset must be a [start, end] pair: %w", err)
	}
	o.Start, o.End = pair[0], pair[1]
	return nil
}

// DecodeSpans maps token spans back onto the source text. text is the
// concatenation prompt+content and promptLen the prompt's length in runes.
//
// Spans starting before promptLen+2 token positions are anchored inside the
// instruction text rather than the content and are discarded as false
// positives; a span starting exactly at promptLen+2 is kept. Surviving spans
// are rendered by concatenating the character ranges of every covered token,
// in span order. An offset that leaves the text, or a span that leaves the
// offset table, returns an OffsetError.
func DecodeSpans(spans []Span, offsets []Offset, text string, promptLen int) ([]string, error) {
	runes := []rune(text)
	out := make([]string, 0, len(spans))

	for _, sp := range spans {
		if sp.Start < promptLen+framingTokens {
			continue
		}
		if sp.End >= len(offsets) {
			return nil, &OffsetError{Token: sp.End, TextLen: len(runes)}
		}

		var b strings.Builder
		for i := sp.Start; i <= sp.End; i++ {
			off := offsets[i]
			if off.Start < 0 || off.End > len(runes) || off.Start > off.End {
				return nil, &OffsetError{Token: i, Start: off.Start, End: off.End, TextLen: len(runes)}
			}
			b.WriteString(string(runes[off.Start:off.End]))
		}
		out = append(out, b.String())
	}
	return out, nil
}
