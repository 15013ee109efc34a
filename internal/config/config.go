package config

import "time"

// Config represents the main application configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	API            APIConfig            `yaml:"api"`
	Prompt         PromptConfig         `yaml:"prompt"`
	Apply          ApplyConfig          `yaml:"apply"`
	Verify         VerifyConfig         `yaml:"verify"`
	Chat           ChatConfig           `yaml:"chat"`
	Storage        StorageConfig        `yaml:"storage"`
	Watcher        WatcherConfig        `yaml:"watcher"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Logging        LoggingConfig        `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // Listen address (default: :3000)
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // Request read timeout
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // Response write timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Graceful shutdown deadline
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`   // Request body cap
	Mode            string        `yaml:"mode"`             // gin mode: release, debug, test
}

// APIConfig holds provider credentials and outbound call settings.
type APIConfig struct {
	// Default provider when a request does not name one (default: gemini)
	DefaultProvider string `yaml:"default_provider"`

	// Credentials from the config file. Environment variables take precedence.
	GeminiKey string `yaml:"gemini_key,omitempty"`
	GroqKey   string `yaml:"groq_key,omitempty"`

	Gemini GeminiConfig `yaml:"gemini"`
	Groq   GroqConfig   `yaml:"groq"`
	Ollama OllamaConfig `yaml:"ollama"`

	// Timeout bounds a single provider attempt; expiry is a transport failure.
	Timeout time.Duration `yaml:"timeout"`

	Retry RetryConfig `yaml:"retry"`
}

// GeminiConfig holds Gemini adapter settings.
type GeminiConfig struct {
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url,omitempty"` // Override for proxies and tests
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int32   `yaml:"max_tokens"`
	ThinkingBudget int32   `yaml:"thinking_budget"` // Used when a request asks for reasoning
}

// GroqConfig holds Groq adapter settings.
type GroqConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// OllamaConfig holds local Ollama settings. Ollama needs no credential.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RetryConfig holds retry settings for API calls.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"` // Maximum number of retry attempts (default: 2)
	RetryDelay time.Duration `yaml:"retry_delay"` // Initial delay between retries (default: 1s)
	MaxDelay   time.Duration `yaml:"max_delay"`   // Backoff cap (default: 10s)
}

// PromptConfig controls how the project snapshot is serialized into the system instruction.
type PromptConfig struct {
	InlineExtensions []string `yaml:"inline_extensions"` // Other files with these extensions are sent in full
	InlineMaxChars   int      `yaml:"inline_max_chars"`  // Larger files are summarized by size
	Exclude          []string `yaml:"exclude"`           // doublestar patterns dropped from the dump
}

// ApplyConfig holds change applicator settings.
type ApplyConfig struct {
	// Delay before an auto-apply mutation lands. Zero applies immediately.
	Delay time.Duration `yaml:"delay"`
	// AutoApply disables automatic mutation when false; blocks are then applied manually.
	AutoApply bool `yaml:"auto_apply"`
}

// VerifyConfig holds verifier settings.
type VerifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Repair  string `yaml:"repair"` // "brace" or "off"
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	// Overlap decides what happens when a turn is submitted while another is in flight:
	// "reject" refuses the new one, "supersede" cancels the old one.
	Overlap     string `yaml:"overlap"`
	MaxMessages int    `yaml:"max_messages"`
}

// StorageConfig selects the persistence backend for chat history and the snapshot.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, file, sqlite
	Dir     string `yaml:"dir"`     // Data directory for file and sqlite backends
}

// WatcherConfig holds settings for mirroring a project directory into the snapshot.
type WatcherConfig struct {
	Root       string   `yaml:"root"`        // Directory to import (empty = none)
	Enabled    bool     `yaml:"enabled"`     // Watch Root for external edits
	Include    []string `yaml:"include"`     // doublestar patterns relative to Root
	DebounceMs int      `yaml:"debounce_ms"` // Debounce time in milliseconds
	MaxWatches int      `yaml:"max_watches"` // Maximum number of watched directories
	MaxBytes   int64    `yaml:"max_bytes"`   // Skip files larger than this
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool  `yaml:"enabled"`             // Enable/disable rate limiting
	RequestsPerMinute int   `yaml:"requests_per_minute"` // Max requests per minute
	TokensPerMinute   int64 `yaml:"tokens_per_minute"`   // Max tokens per minute
	BurstSize         int   `yaml:"burst_size"`          // Burst size for rate limiting
}

// CircuitBreakerConfig holds per-provider circuit breaker settings.
type CircuitBreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Threshold    int           `yaml:"threshold"`     // Consecutive failures before opening
	ResetTimeout time.Duration `yaml:"reset_timeout"` // Time before a half-open probe
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Dir    string `yaml:"dir"`    // When set, logs go to <dir>/pointer.log
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			Mode:            "release",
		},
		API: APIConfig{
			DefaultProvider: "gemini",
			Gemini: GeminiConfig{
				Model:       DefaultGeminiModel,
				Temperature: 1.0,
				MaxTokens:   8192,
			},
			Groq: GroqConfig{
				Model:       DefaultGroqModel,
				BaseURL:     DefaultGroqBaseURL,
				Temperature: 0.7,
				MaxTokens:   8192,
			},
			Ollama: OllamaConfig{
				Enabled: false,
				Model:   DefaultOllamaModel,
				BaseURL: DefaultOllamaBaseURL,
			},
			Timeout: DefaultAPITimeout,
			Retry: RetryConfig{
				MaxRetries: DefaultMaxRetries,
				RetryDelay: DefaultRetryDelay,
				MaxDelay:   DefaultMaxRetryDelay,
			},
		},
		Prompt: PromptConfig{
			InlineExtensions: []string{"js", "jsx", "ts", "tsx", "css", "html", "json"},
			InlineMaxChars:   DefaultInlineMaxChars,
		},
		Apply: ApplyConfig{
			Delay:     0,
			AutoApply: true,
		},
		Verify: VerifyConfig{
			Enabled: true,
			Repair:  "brace",
		},
		Chat: ChatConfig{
			Overlap:     "reject",
			MaxMessages: DefaultMaxMessages,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Watcher: WatcherConfig{
			Include:    []string{"**/*"},
			DebounceMs: 300,
			MaxWatches: 1000,
			MaxBytes:   1 << 20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: DefaultRequestsPerMinute,
			TokensPerMinute:   DefaultTokensPerMinute,
			BurstSize:         5,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			Threshold:    5,
			ResetTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
