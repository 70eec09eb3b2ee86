package decode

import "fmt"

// ShapeError reports a malformed probability table: ragged rows, or a row
// count/length that does not line up with the rest of the batch. It indicates
// a broken scorer contract, so callers should abort the whole batch.
type ShapeError struct {
	Row  int // -1 when the batch dimension itself is wrong
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("probability table has %d rows, want %d", e.Got, e.Want)
	}
	return fmt.Sprintf("probability table row %d has length %d, want %d", e.Row, e.Got, e.Want)
}

// OffsetError reports a span or offset entry that references positions outside
// the offset table or beyond the encoded text. Like ShapeError it is a
// collaborator contract violation, not a user input error.
type OffsetError struct {
	Token   int
	Start   int
	End     int
	TextLen int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset entry for token %d spans [%d,%d) outside text of length %d",
		e.Token, e.Start, e.End, e.TextLen)
}
