package chatspan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spanlab/uex/internal/extract"
	"github.com/spanlab/uex/internal/modelcall"
)

func completionBody(content string) string {
	msg, _ := json.Marshal(content)
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"model": "gpt-4o",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %s}}]
	}`, msg)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		MaxRetries: 1,
	}, opts...)
}

func TestExtractByPromptsSuccess(t *testing.T) {
	var payload map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(`{"spans": ["red"]}`))
	})

	got, err := client.ExtractByPrompts(context.Background(), []string{"the red car"}, []string{"color"}, 512, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	if diff := cmp.Diff([][]string{{"red"}}, got); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}

	rf, ok := payload["response_format"].(map[string]any)
	if !ok {
		t.Fatalf("request missing response_format: %v", payload)
	}
	if rf["type"] != "json_schema" {
		t.Fatalf("response_format type = %v, want json_schema", rf["type"])
	}
}

func TestExtractByPromptsDropsHallucinatedSpans(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(`{"spans": ["red", "purple", ""]}`))
	})

	got, err := client.ExtractByPrompts(context.Background(), []string{"the red car"}, []string{"color"}, 512, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	if diff := cmp.Diff([][]string{{"red"}}, got); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractByPromptsStripsCodeFence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("```json\n{\"spans\": [\"red\"]}\n```"))
	})

	got, err := client.ExtractByPrompts(context.Background(), []string{"the red car"}, []string{"color"}, 512, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	if diff := cmp.Diff([][]string{{"red"}}, got); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractByPromptsRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "the span is red"},
		{"wrong shape", `{"answers": ["red"]}`},
		{"non-string spans", `{"spans": [1, 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, completionBody(tt.content))
			})

			_, err := client.ExtractByPrompts(context.Background(), []string{"the red car"}, []string{"color"}, 512, 0.5)
			if err == nil {
				t.Fatal("expected error for malformed model output")
			}
		})
	}
}

func TestExtractByPromptsValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the server")
	})

	_, err := client.ExtractByPrompts(context.Background(), []string{"a", "b"}, []string{"color"}, 512, 0.5)
	var cfgErr *extract.ConfigError
	if err == nil || !strings.Contains(err.Error(), "prompts") {
		t.Fatalf("expected prompt-count ConfigError, got %v", err)
	}
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *extract.ConfigError, got %T", err)
	}

	_, err = client.ExtractByPrompts(context.Background(), []string{"a"}, []string{"color"}, 512, 1.5)
	if err == nil {
		t.Fatal("expected threshold error")
	}
}

func TestExtractByPromptsTruncatesContent(t *testing.T) {
	var sent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		sent = payload.Messages[len(payload.Messages)-1].Content
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(`{"spans": []}`))
	})

	_, err := client.ExtractByPrompts(context.Background(), []string{"这辆车是红色的"}, []string{"颜色"}, 4, 0.5)
	if err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}
	if !strings.Contains(sent, "这辆车是") || strings.Contains(sent, "红色") {
		t.Fatalf("content not truncated to 4 runes: %q", sent)
	}
}

func TestExtractByPromptsRecordsCalls(t *testing.T) {
	store := modelcall.NewStore(10)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody(`{"spans": ["red"]}`))
	}, WithRecorder(store))

	if _, err := client.ExtractByPrompts(context.Background(), []string{"the red car"}, []string{"color"}, 512, 0.5); err != nil {
		t.Fatalf("ExtractByPrompts() error = %v", err)
	}

	calls := store.List(0)
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].Runner != Name || !calls[0].Success || calls[0].Spans != 1 {
		t.Fatalf("unexpected call record: %+v", calls[0])
	}
}
