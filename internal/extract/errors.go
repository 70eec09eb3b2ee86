package extract

import "fmt"

// ConfigError reports invalid extraction parameters. It is raised before any
// model invocation, so a failing call never reaches the scorer.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateParams checks the shared ByPrompts parameters. Backends call it
// before touching the model so bad parameters surface as a ConfigError.
func ValidateParams(contents, prompts []string, maxLength int, threshold float64) error {
	if len(contents) != len(prompts) {
		return &ConfigError{
			Field:  "prompts",
			Reason: fmt.Sprintf("%d prompts for %d contents; inputs must be parallel", len(prompts), len(contents)),
		}
	}
	if maxLength <= 0 {
		return &ConfigError{Field: "max_length", Reason: fmt.Sprintf("must be positive, got %d", maxLength)}
	}
	if threshold < 0 || threshold > 1 {
		return &ConfigError{Field: "threshold", Reason: fmt.Sprintf("must be within [0,1], got %g", threshold)}
	}
	return nil
}
