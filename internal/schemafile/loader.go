// Package schemafile loads extraction schema documents from YAML (or JSON)
// files. Documents are validated against an embedded JSON meta-schema before
// parsing, and the two-level mapping form keeps its key order.
package schemafile

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/spanlab/uex/internal/extract"
)

//go:embed schemas/document.json
var metaFS embed.FS

// Document is one parsed schema file. Threshold and MaxLength are optional
// overrides. Threshold is nil when the document does not set it, so an
// explicit 0 is distinguishable from absent; MaxLength 0 means "use the
// configured default" (the meta-schema requires max_length >= 1).
type Document struct {
	Schema    extract.Schema
	Threshold *float64
	MaxLength int
}

// Load reads and parses a schema document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse validates and parses a schema document. JSON input works too, since
// JSON is valid YAML.
func Parse(data []byte) (*Document, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var raw struct {
		Threshold *float64  `yaml:"threshold"`
		MaxLength int       `yaml:"max_length"`
		Schema    yaml.Node `yaml:"schema"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	schema, err := schemaFromNode(&raw.Schema)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Document{
		Schema:    schema,
		Threshold: raw.Threshold,
		MaxLength: raw.MaxLength,
	}, nil
}

// schemaFromNode resolves the schema node into its tagged variant: a
// sequence becomes a FlatSchema, a mapping a CascadedSchema in source order.
func schemaFromNode(node *yaml.Node) (extract.Schema, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		flat := make(extract.FlatSchema, 0, len(node.Content))
		for _, item := range node.Content {
			flat = append(flat, item.Value)
		}
		return flat, nil

	case yaml.MappingNode:
		cascaded := make(extract.CascadedSchema, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var attrs []string
			if err := value.Decode(&attrs); err != nil {
				return nil, fmt.Errorf("key %q: attributes must be a string list: %w", key.Value, err)
			}
			cascaded = append(cascaded, extract.Cascade{Key: key.Value, Attributes: attrs})
		}
		return cascaded, nil

	default:
		return nil, fmt.Errorf("schema must be a list or a mapping")
	}
}

// validate checks the document against the embedded meta-schema. The YAML is
// round-tripped through JSON so the validator sees plain JSON types.
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse schema document: %w", err)
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("schema document is not JSON-compatible: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(jsonBytes, &jsonDoc); err != nil {
		return fmt.Errorf("schema document is not JSON-compatible: %w", err)
	}

	meta, err := metaFS.ReadFile("schemas/document.json")
	if err != nil {
		return fmt.Errorf("failed to read embedded meta-schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.json", bytes.NewReader(meta)); err != nil {
		return fmt.Errorf("failed to load meta-schema: %w", err)
	}
	schema, err := compiler.Compile("document.json")
	if err != nil {
		return fmt.Errorf("failed to compile meta-schema: %w", err)
	}

	if err := schema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("schema document is invalid: %w", err)
	}
	return nil
}
