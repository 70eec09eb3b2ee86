package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spanlab/uex/internal/chatspan"
	"github.com/spanlab/uex/internal/cliout"
	"github.com/spanlab/uex/internal/config"
	"github.com/spanlab/uex/internal/extract"
	"github.com/spanlab/uex/internal/modelcall"
	"github.com/spanlab/uex/internal/runner"
	"github.com/spanlab/uex/internal/schemafile"
)

var (
	extractPrompts   []string
	extractContents  []string
	extractSentence  string
	extractThreshold float64
	extractMaxLength int
	extractBackend   string
	extractShowCalls bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract spans from text",
	Long: `Extract spans from text with the pointer-network scorer or a chat
model fallback.

Examples:
  uex extract prompts --prompt color --content "the red car"
  uex extract schema events.yaml --sentence "I went to work at dawn"`,
}

var extractPromptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Run raw (prompt, content) pairs",
	Long: `Run a batch of (prompt, content) pairs through the backend.

--prompt and --content are repeatable and pair up positionally. A single
--content is reused for every prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(extractPrompts) == 0 {
			return fmt.Errorf("at least one --prompt is required")
		}
		if len(extractContents) == 0 {
			return fmt.Errorf("at least one --content is required")
		}
		if len(extractContents) == 1 && len(extractPrompts) > 1 {
			content := extractContents[0]
			extractContents = make([]string, len(extractPrompts))
			for i := range extractContents {
				extractContents[i] = content
			}
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		applyExtractDefaults(cfg)

		store := modelcall.NewStore(cfg.CallLog.MaxEntries)
		backend, err := newBackend(cfg, store)
		if err != nil {
			return err
		}

		engine := extract.New(backend)
		spans, err := engine.ExtractByPrompts(cmd.Context(), extractContents, extractPrompts, extractMaxLength, extractThreshold)
		if err != nil {
			return err
		}

		type pairResult struct {
			Prompt string   `json:"prompt" yaml:"prompt"`
			Spans  []string `json:"spans" yaml:"spans"`
		}
		results := make([]pairResult, len(extractPrompts))
		for i := range extractPrompts {
			results[i] = pairResult{Prompt: extractPrompts[i], Spans: spans[i]}
		}
		if err := cliout.Output(results); err != nil {
			return err
		}

		return outputCalls(store)
	},
}

var extractSchemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Extract according to a schema document",
	Long: `Extract from one sentence according to a YAML or JSON schema
document. Flat schemas list attribute names; cascaded schemas map keys to
dependent attributes.

Threshold and max length come from the document when set there, otherwise
from flags or config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if extractSentence == "" {
			return fmt.Errorf("--sentence is required")
		}

		doc, err := schemafile.Load(args[0])
		if err != nil {
			return err
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		applyExtractDefaults(cfg)
		threshold := extractThreshold
		maxLength := extractMaxLength
		if doc.Threshold != nil {
			threshold = *doc.Threshold
		}
		if doc.MaxLength != 0 {
			maxLength = doc.MaxLength
		}

		store := modelcall.NewStore(cfg.CallLog.MaxEntries)
		backend, err := newBackend(cfg, store)
		if err != nil {
			return err
		}

		engine := extract.New(backend)
		result, err := engine.ExtractBySchema(cmd.Context(), extractSentence, doc.Schema, threshold, maxLength)
		if err != nil {
			return err
		}

		if err := cliout.Output(result); err != nil {
			return err
		}

		return outputCalls(store)
	},
}

// applyExtractDefaults fills unset extraction flags from config.
func applyExtractDefaults(cfg *config.Config) {
	if extractThreshold < 0 {
		extractThreshold = cfg.Extract.Threshold
	}
	if extractMaxLength <= 0 {
		extractMaxLength = cfg.Extract.MaxLength
	}
}

// newBackend picks the extraction backend: the scorer when configured, the
// chat model otherwise. --backend forces the choice.
func newBackend(cfg *config.Config, store *modelcall.Store) (extract.Backend, error) {
	choice := extractBackend
	if choice == "auto" {
		switch {
		case cfg.Scorer.Endpoint != "":
			choice = "scorer"
		case cfg.ResolveChatAPIKey() != "":
			choice = "chat"
		default:
			return nil, fmt.Errorf("no backend configured: set scorer.endpoint or chat.api_key (run 'uex config init')")
		}
	}

	switch choice {
	case "scorer":
		if cfg.Scorer.Endpoint == "" {
			return nil, fmt.Errorf("scorer.endpoint is not configured")
		}
		r := runner.NewHTTPRunner(runner.HTTPConfig{
			BaseURL:    cfg.Scorer.Endpoint,
			APIKey:     cfg.ResolveScorerAPIKey(),
			Timeout:    time.Duration(cfg.Scorer.TimeoutSeconds) * time.Second,
			MaxRetries: cfg.Scorer.MaxRetries,
			RetryDelay: time.Duration(cfg.Scorer.RetryDelayMs) * time.Millisecond,
			RateLimit:  cfg.Scorer.RateLimit,
		})
		return extract.NewPointer(r, extract.WithRecorder(store)), nil
	case "chat":
		apiKey := cfg.ResolveChatAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("chat.api_key is not configured")
		}
		return chatspan.New(chatspan.Config{
			APIKey: apiKey,
			Model:  cfg.Chat.Model,
		}, chatspan.WithRecorder(store)), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want auto, scorer, or chat)", choice)
	}
}

// outputCalls prints the recorded model calls when --calls is set.
func outputCalls(store *modelcall.Store) error {
	if !extractShowCalls {
		return nil
	}
	return cliout.Output(map[string]any{"calls": store.List(0)})
}

func init() {
	extractCmd.PersistentFlags().Float64Var(
		&extractThreshold, "threshold", -1, "span probability cutoff in [0,1] (default from config)",
	)
	extractCmd.PersistentFlags().IntVar(
		&extractMaxLength, "max-length", 0, "token budget per encoded pair (default from config)",
	)
	extractCmd.PersistentFlags().StringVar(
		&extractBackend, "backend", "auto", "extraction backend: auto, scorer, or chat",
	)
	extractCmd.PersistentFlags().BoolVar(
		&extractShowCalls, "calls", false, "print recorded model calls after the result",
	)

	extractPromptsCmd.Flags().StringArrayVar(
		&extractPrompts, "prompt", nil, "extraction prompt (repeatable)",
	)
	extractPromptsCmd.Flags().StringArrayVar(
		&extractContents, "content", nil, "content to extract from (repeatable; single value is reused)",
	)

	extractSchemaCmd.Flags().StringVar(
		&extractSentence, "sentence", "", "sentence to extract from",
	)

	extractCmd.AddCommand(extractPromptsCmd)
	extractCmd.AddCommand(extractSchemaCmd)
	rootCmd.AddCommand(extractCmd)
}
