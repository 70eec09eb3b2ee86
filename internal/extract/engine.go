package extract

import (
	"context"
	"fmt"
	"log/slog"
)

// ComposeFunc builds a stage-two prompt from a stage-one instance value and a
// dependent attribute name.
type ComposeFunc func(value, attribute string) string

// DefaultCompose joins value and attribute with the Chinese possessive
// particle, e.g. "加班"+"时间" -> "加班的时间". Inject a different ComposeFunc
// for other languages or prompt styles.
func DefaultCompose(value, attribute string) string {
	return value + "的" + attribute
}

// Engine walks a declarative schema and issues dependent calls against a
// Backend, assembling a hierarchical result. Flat schemas take one batch;
// cascaded schemas take one stage-one call per key plus one stage-two batch
// per non-empty instance.
type Engine struct {
	backend Backend
	compose ComposeFunc
	logger  *slog.Logger
}

// Option customises the engine.
type Option func(*Engine)

// WithCompose injects the stage-two prompt composition function.
func WithCompose(fn ComposeFunc) Option {
	return func(e *Engine) { e.compose = fn }
}

// WithLogger injects a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine over the given backend.
func New(b Backend, opts ...Option) *Engine {
	e := &Engine{backend: b, compose: DefaultCompose}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ExtractByPrompts runs one batch of (content, prompt) pairs through the
// backend. Result order matches input order.
func (e *Engine) ExtractByPrompts(ctx context.Context, contents, prompts []string, maxLength int, threshold float64) ([][]string, error) {
	return e.backend.ExtractByPrompts(ctx, contents, prompts, maxLength, threshold)
}

// ExtractBySchema extracts from one sentence according to the schema and
// assembles the nested result. Schema key order and attribute order are
// preserved in the output.
func (e *Engine) ExtractBySchema(ctx context.Context, sentence string, schema Schema, threshold float64, maxLength int) (*Result, error) {
	if schema == nil {
		return nil, &ConfigError{Field: "schema", Reason: "schema is required"}
	}
	if err := schema.Validate(); err != nil {
		return nil, &ConfigError{Field: "schema", Reason: err.Error()}
	}

	switch s := schema.(type) {
	case FlatSchema:
		return e.extractFlat(ctx, sentence, s, threshold, maxLength)
	case CascadedSchema:
		return e.extractCascaded(ctx, sentence, s, threshold, maxLength)
	default:
		return nil, &ConfigError{Field: "schema", Reason: fmt.Sprintf("unsupported schema type %T", schema)}
	}
}

// extractFlat pairs the sentence with every attribute name in one batch.
func (e *Engine) extractFlat(ctx context.Context, sentence string, schema FlatSchema, threshold float64, maxLength int) (*Result, error) {
	contents := repeat(sentence, len(schema))
	values, err := e.backend.ExtractByPrompts(ctx, contents, schema, maxLength, threshold)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, name := range schema {
		result.Fields = append(result.Fields, Field{Name: name, Values: values[i]})
	}
	return result, nil
}

// extractCascaded runs stage one per key, then one stage-two batch per
// non-empty instance with prompts composed from the instance value.
func (e *Engine) extractCascaded(ctx context.Context, sentence string, schema CascadedSchema, threshold float64, maxLength int) (*Result, error) {
	result := &Result{}

	for _, cascade := range schema {
		instances, err := e.backend.ExtractByPrompts(ctx, []string{sentence}, []string{cascade.Key}, maxLength, threshold)
		if err != nil {
			return nil, fmt.Errorf("stage one for %q: %w", cascade.Key, err)
		}

		group := Group{Key: cascade.Key}
		for _, value := range instances[0] {
			if value == "" {
				continue
			}

			instance := Instance{Value: value}
			if len(cascade.Attributes) > 0 {
				prompts := make([]string, len(cascade.Attributes))
				for i, attr := range cascade.Attributes {
					prompts[i] = e.compose(value, attr)
				}
				values, err := e.backend.ExtractByPrompts(ctx, repeat(sentence, len(prompts)), prompts, maxLength, threshold)
				if err != nil {
					return nil, fmt.Errorf("stage two for %q/%q: %w", cascade.Key, value, err)
				}
				for i, attr := range cascade.Attributes {
					instance.Fields = append(instance.Fields, Field{Name: attr, Values: values[i]})
				}
			}
			group.Instances = append(group.Instances, instance)
		}

		e.logger.Debug("cascade stage complete",
			"key", cascade.Key,
			"instances", len(group.Instances))
		result.Groups = append(result.Groups, group)
	}
	return result, nil
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
