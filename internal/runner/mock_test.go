package runner

import (
	"context"
	"testing"
	"unicode/utf8"
)

func TestMockEncodeFraming(t *testing.T) {
	m := NewMock()
	prompt, content := "颜色", "红色的车"

	enc, err := m.Encode(context.Background(), []string{prompt}, []string{content}, 64)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	promptLen := utf8.RuneCountInString(prompt)
	wantTokens := promptLen + utf8.RuneCountInString(content) + 2
	if len(enc.TokenIDs[0]) != wantTokens {
		t.Fatalf("expected %d tokens, got %d", wantTokens, len(enc.TokenIDs[0]))
	}

	// Specials carry (0,0); the first content token starts at promptLen+2.
	if cls := enc.Offsets[0][0]; cls.Start != 0 || cls.End != 0 {
		t.Errorf("[CLS] offset should be zero, got %+v", cls)
	}
	first := enc.Offsets[0][promptLen+2]
	if first.Start != promptLen || first.End != promptLen+1 {
		t.Errorf("first content token offset = %+v, want [%d,%d)", first, promptLen, promptLen+1)
	}
}

func TestMockRunMarksAnswers(t *testing.T) {
	m := NewMock()
	m.Answers = func(prompt, content string) []string {
		return []string{"红色"}
	}

	prompt, content := "颜色", "红色的车是红色"
	enc, err := m.Encode(context.Background(), []string{prompt}, []string{content}, 64)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	start, end, err := m.Run(context.Background(), enc)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// "红色" occurs at content runes 0 and 5; prompt is 2 runes.
	for _, at := range []int{0, 5} {
		s := 2 + 2 + at
		if start[0][s] < 0.5 {
			t.Errorf("expected high start probability at %d, got %f", s, start[0][s])
		}
		if end[0][s+1] < 0.5 {
			t.Errorf("expected high end probability at %d, got %f", s+1, end[0][s+1])
		}
	}
}

func TestMockFailAfter(t *testing.T) {
	m := NewMock()
	m.FailAfter = 1

	if _, err := m.Encode(context.Background(), []string{"p"}, []string{"c"}, 16); err != nil {
		t.Fatalf("first call should succeed, got %v", err)
	}
	if _, err := m.Encode(context.Background(), []string{"p"}, []string{"c"}, 16); err == nil {
		t.Fatal("second call should fail")
	}
}
