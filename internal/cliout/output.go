// Package cliout renders command output as YAML or JSON.
package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format selects how command results are rendered.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// active is set by the root command's --output flag.
var active = FormatYAML

// SetFormat selects the global output format. Unknown values are an error so
// a bad --output flag fails fast instead of silently printing YAML.
func SetFormat(format string) error {
	switch Format(format) {
	case FormatYAML, FormatJSON:
		active = Format(format)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return OutputTo(os.Stdout, active, data)
}

// OutputTo writes data to the given writer in the given format.
func OutputTo(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
