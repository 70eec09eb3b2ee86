package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/spanlab/uex/internal/decode"
)

const MockRunnerName = "mock"

// Mock is a Runner for testing. It tokenizes one rune per token with
// [CLS] prompt [SEP] content framing and, when scored, marks high start/end
// probabilities at every occurrence of the answers reported by Answers,
// leaving everything else near zero.
type Mock struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)

	// Answers returns the spans the model should "find" in content for a
	// given prompt. Nil means no spans anywhere.
	Answers func(prompt, content string) []string

	// State
	requestCount atomic.Int64

	mu          sync.Mutex
	lastPrompts []string
	lastContent []string
	lastPadded  int
	batches     [][]string // prompts of every Encode call, for assertions
}

// NewMock creates a mock runner with sensible defaults.
func NewMock() *Mock {
	return &Mock{Latency: time.Millisecond}
}

// Name returns the runner identifier.
func (m *Mock) Name() string { return MockRunnerName }

// EncodeBatches returns the prompt batches seen so far.
func (m *Mock) EncodeBatches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.batches))
	copy(out, m.batches)
	return out
}

// RequestCount returns the total number of Encode/Run calls.
func (m *Mock) RequestCount() int64 {
	return m.requestCount.Load()
}

// Encode tokenizes each pair one rune per token: [CLS], prompt runes, [SEP],
// content runes, padded to a common length with (0,0) offsets.
func (m *Mock) Encode(ctx context.Context, prompts, contents []string, maxLength int) (*Encoding, error) {
	if err := m.step(ctx); err != nil {
		return nil, err
	}
	if len(prompts) != len(contents) {
		return nil, fmt.Errorf("mock runner: %d prompts for %d contents", len(prompts), len(contents))
	}

	padded := 0
	for i := range prompts {
		n := utf8.RuneCountInString(prompts[i]) + utf8.RuneCountInString(contents[i]) + 2
		if n > maxLength {
			n = maxLength
		}
		if n > padded {
			padded = n
		}
	}

	enc := &Encoding{}
	for i := range prompts {
		tokenIDs, typeIDs, attention, offsets := mockEncodeRow(prompts[i], contents[i], padded)
		enc.TokenIDs = append(enc.TokenIDs, tokenIDs)
		enc.TypeIDs = append(enc.TypeIDs, typeIDs)
		enc.AttentionMask = append(enc.AttentionMask, attention)
		enc.Offsets = append(enc.Offsets, offsets)
	}

	m.mu.Lock()
	m.lastPrompts = append([]string(nil), prompts...)
	m.lastContent = append([]string(nil), contents...)
	m.lastPadded = padded
	m.batches = append(m.batches, append([]string(nil), prompts...))
	m.mu.Unlock()

	return enc, nil
}

// Run scores the most recently encoded batch.
func (m *Mock) Run(ctx context.Context, enc *Encoding) ([][]float64, [][]float64, error) {
	if err := m.step(ctx); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	prompts := m.lastPrompts
	contents := m.lastContent
	padded := m.lastPadded
	m.mu.Unlock()

	if len(prompts) != enc.BatchSize() {
		return nil, nil, fmt.Errorf("mock runner: encoding does not match last encoded batch")
	}

	start := make([][]float64, len(prompts))
	end := make([][]float64, len(prompts))
	for i := range prompts {
		startRow := make([]float64, padded)
		endRow := make([]float64, padded)
		for j := range startRow {
			startRow[j] = 0.02
			endRow[j] = 0.02
		}

		if m.Answers != nil {
			promptLen := utf8.RuneCountInString(prompts[i])
			content := []rune(contents[i])
			for _, answer := range m.Answers(prompts[i], contents[i]) {
				ans := []rune(answer)
				for _, at := range runeOccurrences(content, ans) {
					s := promptLen + 2 + at
					e := s + len(ans) - 1
					if e < padded {
						startRow[s] = 0.98
						endRow[e] = 0.98
					}
				}
			}
		}
		start[i] = startRow
		end[i] = endRow
	}

	return start, end, nil
}

// step applies latency and configured failures.
func (m *Mock) step(ctx context.Context) error {
	count := m.requestCount.Add(1)
	if m.ShouldFail {
		return fmt.Errorf("mock runner configured to fail")
	}
	if m.FailAfter > 0 && int(count) > m.FailAfter {
		return fmt.Errorf("mock runner failed after %d requests", m.FailAfter)
	}
	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Latency):
		}
	}
	return ctx.Err()
}

// mockEncodeRow builds one encoded row. Offsets index runes of prompt+content.
func mockEncodeRow(prompt, content string, padded int) ([]int64, []int64, []int64, []decode.Offset) {
	promptRunes := []rune(prompt)
	contentRunes := []rune(content)

	tokenIDs := make([]int64, 0, padded)
	typeIDs := make([]int64, 0, padded)
	attention := make([]int64, 0, padded)
	offsets := make([]decode.Offset, 0, padded)

	appendToken := func(id, typeID int64, off decode.Offset) {
		if len(tokenIDs) >= padded {
			return
		}
		tokenIDs = append(tokenIDs, id)
		typeIDs = append(typeIDs, typeID)
		attention = append(attention, 1)
		offsets = append(offsets, off)
	}

	appendToken(101, 0, decode.Offset{}) // [CLS]
	for i, r := range promptRunes {
		appendToken(int64(r), 0, decode.Offset{Start: i, End: i + 1})
	}
	appendToken(102, 0, decode.Offset{}) // [SEP]
	for i, r := range contentRunes {
		appendToken(int64(r), 1, decode.Offset{Start: len(promptRunes) + i, End: len(promptRunes) + i + 1})
	}
	for len(tokenIDs) < padded {
		tokenIDs = append(tokenIDs, 0)
		typeIDs = append(typeIDs, 0)
		attention = append(attention, 0)
		offsets = append(offsets, decode.Offset{})
	}
	return tokenIDs, typeIDs, attention, offsets
}

// runeOccurrences returns every rune index where needle occurs in haystack.
func runeOccurrences(haystack, needle []rune) []int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var out []int
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			out = append(out, i)
		}
	}
	return out
}
