package extract

import "fmt"

// Schema declares what to extract: either a flat list of attribute names, or
// a two-level cascade where stage-one instances feed stage-two prompts. The
// variant is resolved once, when the schema is built, not re-dispatched on
// container shape at traversal time.
type Schema interface {
	// Validate checks structural invariants (non-empty, unique names).
	Validate() error

	isSchema()
}

// FlatSchema extracts one attribute per name from the same content (NER
// style). Order is extraction order and is preserved in results.
type FlatSchema []string

func (FlatSchema) isSchema() {}

// Validate implements Schema.
func (s FlatSchema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("flat schema has no attributes")
	}
	seen := make(map[string]bool, len(s))
	for _, name := range s {
		if name == "" {
			return fmt.Errorf("flat schema contains an empty attribute name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate attribute %q in flat schema", name)
		}
		seen[name] = true
	}
	return nil
}

// Cascade is one top-level key of a two-level schema: a subject-type or
// trigger prompt and the dependent attributes extracted per instance.
type Cascade struct {
	Key        string
	Attributes []string
}

// CascadedSchema is an ordered two-level mapping: subject→predicate or
// trigger→argument. The two modes are structurally identical; only the
// naming differs.
type CascadedSchema []Cascade

func (CascadedSchema) isSchema() {}

// Validate implements Schema.
func (s CascadedSchema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("cascaded schema has no keys")
	}
	seenKeys := make(map[string]bool, len(s))
	for _, c := range s {
		if c.Key == "" {
			return fmt.Errorf("cascaded schema contains an empty key")
		}
		if seenKeys[c.Key] {
			return fmt.Errorf("duplicate key %q in cascaded schema", c.Key)
		}
		seenKeys[c.Key] = true

		seenAttrs := make(map[string]bool, len(c.Attributes))
		for _, attr := range c.Attributes {
			if attr == "" {
				return fmt.Errorf("key %q contains an empty attribute name", c.Key)
			}
			// Instances render as {"value": ..., attr: [...]}, so the key
			// "value" is reserved.
			if attr == "value" {
				return fmt.Errorf("key %q uses reserved attribute name %q", c.Key, attr)
			}
			if seenAttrs[attr] {
				return fmt.Errorf("duplicate attribute %q under key %q", attr, c.Key)
			}
			seenAttrs[attr] = true
		}
	}
	return nil
}
