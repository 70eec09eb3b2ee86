// Package chatspan extracts spans with a hosted chat model instead of a
// pointer-network scorer. Each (prompt, content) pair becomes one chat
// completion with a JSON-schema constrained response; the returned spans are
// filtered to substrings of the content so the output contract matches the
// pointer backend's.
package chatspan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/spanlab/uex/internal/extract"
	"github.com/spanlab/uex/internal/modelcall"
)

const (
	Name         = "chat"
	defaultModel = "gpt-4o"
)

// responseSchema constrains the model to {"spans": [...strings]}.
const responseSchema = `{
	"type": "object",
	"required": ["spans"],
	"additionalProperties": false,
	"properties": {
		"spans": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

// Config holds configuration for the chat backend.
type Config struct {
	APIKey     string
	Model      string
	MaxRetries int           // SDK transport retries (default 2)
	Timeout    time.Duration // Per-request timeout (default 2m)
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
	Logger     *slog.Logger
}

// Client implements extract.Backend over a chat completion API.
type Client struct {
	client   openai.Client
	model    string
	logger   *slog.Logger
	recorder extract.Recorder
	schema   *jsonschema.Schema
}

// New creates a chat backend. The response meta-schema is compiled once here;
// a compile failure is a programming error and panics.
func New(cfg Config, opts ...ClientOption) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.HTTPClient))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("spans.json", bytes.NewReader([]byte(responseSchema))); err != nil {
		panic(fmt.Sprintf("chatspan: load response schema: %v", err))
	}
	schema, err := compiler.Compile("spans.json")
	if err != nil {
		panic(fmt.Sprintf("chatspan: compile response schema: %v", err))
	}

	c := &Client{
		client: openai.NewClient(reqOpts...),
		model:  cfg.Model,
		logger: logger,
		schema: schema,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption customises the chat backend.
type ClientOption func(*Client)

// WithRecorder records every completion call.
func WithRecorder(rec extract.Recorder) ClientOption {
	return func(c *Client) { c.recorder = rec }
}

// Name returns the backend identifier.
func (c *Client) Name() string { return Name }

// ExtractByPrompts implements extract.Backend. threshold has no effect on a
// chat model and is only range-checked; maxLength bounds the content sent,
// in runes.
func (c *Client) ExtractByPrompts(ctx context.Context, contents, prompts []string, maxLength int, threshold float64) ([][]string, error) {
	if err := extract.ValidateParams(contents, prompts, maxLength, threshold); err != nil {
		return nil, err
	}

	results := make([][]string, len(prompts))
	for i := range prompts {
		call := modelcall.Begin(Name, 1, maxLength, threshold)
		spans, err := c.extractOne(ctx, prompts[i], truncateRunes(contents[i], maxLength))
		if c.recorder != nil {
			c.recorder.Record(call.Finish(len(spans), err))
		}
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		results[i] = spans
	}
	return results, nil
}

func (c *Client) extractOne(ctx context.Context, prompt, content string) ([]string, error) {
	var schemaDoc map[string]any
	if err := json.Unmarshal([]byte(responseSchema), &schemaDoc); err != nil {
		return nil, fmt.Errorf("response schema: %w", err)
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You extract text spans. Given an extraction prompt and a passage, " +
				"return every span of the passage that answers the prompt, verbatim. " +
				"Return no spans when nothing matches."),
			openai.UserMessage(fmt.Sprintf("Prompt: %s\n\nPassage: %s", prompt, content)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "span_extraction",
					Schema: schemaDoc,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	return c.parseSpans(completion.Choices[0].Message.Content, content)
}

// parseSpans decodes and validates the model output, then drops spans that
// do not occur verbatim in the content.
func (c *Client) parseSpans(raw, content string) ([]string, error) {
	raw = stripCodeFences(strings.TrimSpace(raw))

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("model output does not match span schema: %w", err)
	}

	var parsed struct {
		Spans []string `json:"spans"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	spans := make([]string, 0, len(parsed.Spans))
	for _, span := range parsed.Spans {
		span = strings.TrimSpace(span)
		if span == "" {
			continue
		}
		if !strings.Contains(content, span) {
			c.logger.Debug("dropping hallucinated span", "span", span)
			continue
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// stripCodeFences removes a surrounding markdown fence, a common failure
// mode even with constrained output.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
