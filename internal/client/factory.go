package client

import (
	"context"
	"net/http"

	"pointer/internal/config"
	"pointer/internal/ratelimit"
	"pointer/internal/security"
)

// NewGatewayFromConfig builds a gateway with the gemini and groq providers, and
// ollama when enabled. API keys are resolved per request so a key exported after
// startup is picked up without a restart.
func NewGatewayFromConfig(cfg *config.Config, recorder Recorder) *Gateway {
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			TokensPerMinute:   cfg.RateLimit.TokensPerMinute,
			BurstSize:         cfg.RateLimit.BurstSize,
		})
	}

	g := NewGateway(Options{
		DefaultProvider: cfg.API.DefaultProvider,
		Timeout:         cfg.API.Timeout,
		Retry: RetryConfig{
			MaxRetries: cfg.API.Retry.MaxRetries,
			RetryDelay: cfg.API.Retry.RetryDelay,
			MaxDelay:   cfg.API.Retry.MaxDelay,
		},
		Limiter: limiter,
		Breaker: BreakerConfig{
			Enabled:      cfg.CircuitBreaker.Enabled,
			Threshold:    cfg.CircuitBreaker.Threshold,
			ResetTimeout: cfg.CircuitBreaker.ResetTimeout,
		},
		Recorder: recorder,
	})

	gemini := cfg.API.Gemini
	g.Register(Backend{
		Name: "gemini",
		Credential: func() *security.LoadedKey {
			return security.GetAPIKey(config.EnvGeminiKey, cfg.API.GeminiKey)
		},
		Build: func(ctx context.Context, apiKey string) (Provider, error) {
			return NewGeminiProvider(ctx, apiKey, gemini)
		},
	})

	groq := cfg.API.Groq
	g.Register(Backend{
		Name: "groq",
		Credential: func() *security.LoadedKey {
			return security.GetAPIKey(config.EnvGroqKey, cfg.API.GroqKey)
		},
		Build: func(_ context.Context, apiKey string) (Provider, error) {
			return NewGroqProvider(apiKey, groq, nil), nil
		},
	})

	if cfg.API.Ollama.Enabled {
		ollama := cfg.API.Ollama
		g.Register(Backend{
			Name: "ollama",
			Build: func(context.Context, string) (Provider, error) {
				return NewOllamaProvider(ollama, &http.Client{})
			},
		})
	}

	return g
}
