package config

// Config holds uex configuration.
// Stored at: ./config.yaml or ~/.uex/config.yaml
type Config struct {
	Scorer  ScorerConfig  `mapstructure:"scorer" yaml:"scorer"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	CallLog CallLogConfig `mapstructure:"call_log" yaml:"call_log"`
}

// ScorerConfig configures the pointer-network scorer service.
type ScorerConfig struct {
	Endpoint       string          `mapstructure:"endpoint" yaml:"endpoint"`               // Scorer base URL
	APIKey         string          `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	RateLimit      int             `mapstructure:"rate_limit" yaml:"rate_limit"`           // Requests per minute
	MaxRetries     int             `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelayMs   int             `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Container      ContainerConfig `mapstructure:"container" yaml:"container"`
}

// ContainerConfig holds scorer container configuration.
type ContainerConfig struct {
	// Name is the Docker container name (default: uex-scorer)
	Name string `mapstructure:"name" yaml:"name"`
	// Image is the Docker image to use (default: ghcr.io/spanlab/uex-scorer:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 9090)
	Port string `mapstructure:"port" yaml:"port"`
	// ModelPath is the host directory with model weights, mounted read-only
	ModelPath string `mapstructure:"model_path" yaml:"model_path"`
}

// ChatConfig configures the chat-model fallback backend.
type ChatConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Model  string `mapstructure:"model" yaml:"model"`
}

// ExtractConfig holds default extraction parameters.
type ExtractConfig struct {
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`   // Span probability cutoff, within [0,1]
	MaxLength int     `mapstructure:"max_length" yaml:"max_length"` // Token budget per encoded pair
}

// CallLogConfig controls the in-memory model call log.
type CallLogConfig struct {
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scorer: ScorerConfig{
			Endpoint:       "http://localhost:9090",
			APIKey:         "${UEX_SCORER_API_KEY}",
			RateLimit:      120,
			MaxRetries:     3,
			RetryDelayMs:   500,
			TimeoutSeconds: 120,
			Container: ContainerConfig{
				Name:  "uex-scorer",
				Image: "ghcr.io/spanlab/uex-scorer:latest",
				Port:  "9090",
			},
		},
		Chat: ChatConfig{
			APIKey: "${OPENAI_API_KEY}",
			Model:  "gpt-4o",
		},
		Extract: ExtractConfig{
			Threshold: 0.5,
			MaxLength: 512,
		},
		CallLog: CallLogConfig{
			MaxEntries: 1000,
		},
	}
}

// ResolveScorerAPIKey returns the scorer API key with ${ENV_VAR} references expanded.
func (c *Config) ResolveScorerAPIKey() string {
	return ResolveEnvVars(c.Scorer.APIKey)
}

// ResolveChatAPIKey returns the chat API key with ${ENV_VAR} references expanded.
func (c *Config) ResolveChatAPIKey() string {
	return ResolveEnvVars(c.Chat.APIKey)
}
