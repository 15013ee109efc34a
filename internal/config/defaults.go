package config

import "time"

// Default configuration values.
const (
	// Server
	DefaultAddr            = ":3000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 90 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 8 << 20

	// Providers
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGroqModel     = "llama-3.3-70b-versatile"
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultOllamaModel   = "qwen2.5-coder"
	DefaultOllamaBaseURL = "http://localhost:11434"

	// Outbound calls
	DefaultAPITimeout    = 45 * time.Second
	DefaultMaxRetries    = 2
	DefaultRetryDelay    = 1 * time.Second
	DefaultMaxRetryDelay = 10 * time.Second

	// Prompt
	DefaultInlineMaxChars = 10000

	// Chat
	DefaultMaxMessages = 200

	// Rate limiting
	DefaultRequestsPerMinute = 30
	DefaultTokensPerMinute   = 1000000
)

// Environment variables holding provider credentials.
const (
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvGroqKey   = "GROQ_API_KEY"
)
