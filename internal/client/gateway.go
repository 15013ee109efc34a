package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pointer/internal/logging"
	"pointer/internal/ratelimit"
	"pointer/internal/robustness"
	"pointer/internal/security"
)

// Recorder receives gateway measurements. observability.Metrics implements it.
type Recorder interface {
	ObserveCompletion(provider, outcome string, d time.Duration)
	IncRetry(provider string)
}

// Backend registers one provider with the gateway.
type Backend struct {
	Name string
	// Credential resolves the API key on every call; nil means none is needed.
	Credential func() *security.LoadedKey
	// Build constructs the provider for a key. It is called again when the key changes.
	Build func(ctx context.Context, apiKey string) (Provider, error)
}

// BreakerConfig configures one circuit breaker per provider.
type BreakerConfig struct {
	Enabled      bool
	Threshold    int
	ResetTimeout time.Duration
}

// Options configures a Gateway.
type Options struct {
	DefaultProvider string
	Timeout         time.Duration // per attempt, zero means none
	Retry           RetryConfig
	Limiter         *ratelimit.Limiter
	Breaker         BreakerConfig
	Recorder        Recorder
}

type backend struct {
	Backend
	breaker *robustness.CircuitBreaker

	mu       sync.Mutex
	provider Provider
	builtFor string
}

// Gateway dispatches canonical requests to a provider chosen by name, with
// credential checks, per-attempt timeouts, bounded retry and a circuit breaker.
type Gateway struct {
	opts     Options
	mu       sync.RWMutex
	backends map[string]*backend
	sleep    func(context.Context, time.Duration) error
}

// NewGateway creates a gateway with no providers.
func NewGateway(opts Options) *Gateway {
	if opts.DefaultProvider == "" {
		opts.DefaultProvider = "gemini"
	}
	return &Gateway{
		opts:     opts,
		backends: make(map[string]*backend),
		sleep:    sleepContext,
	}
}

// Register adds or replaces a backend.
func (g *Gateway) Register(b Backend) {
	name := strings.ToLower(b.Name)
	entry := &backend{Backend: b}
	entry.Name = name
	if g.opts.Breaker.Enabled {
		entry.breaker = robustness.NewCircuitBreaker(g.opts.Breaker.Threshold, g.opts.Breaker.ResetTimeout)
		entry.breaker.OnStateChange = func(from, to robustness.State) {
			logging.Warn("provider circuit breaker changed state", "provider", name, "from", from.String(), "to", to.String())
		}
	}

	g.mu.Lock()
	g.backends[name] = entry
	g.mu.Unlock()
}

// RegisterProvider adds a provider that needs no credential.
func (g *Gateway) RegisterProvider(p Provider) {
	g.Register(Backend{
		Name:  p.Name(),
		Build: func(context.Context, string) (Provider, error) { return p, nil },
	})
}

// Providers lists registered provider names.
func (g *Gateway) Providers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.backends))
	for name := range g.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultProvider returns the provider used when a request names none.
func (g *Gateway) DefaultProvider() string { return g.opts.DefaultProvider }

// Complete runs req against its provider.
func (g *Gateway) Complete(ctx context.Context, req Request) (*Response, error) {
	name := strings.ToLower(strings.TrimSpace(req.Provider))
	if name == "" {
		name = g.opts.DefaultProvider
	}
	req.Provider = name

	g.mu.RLock()
	b, ok := g.backends[name]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	provider, err := b.resolve(ctx)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			logging.Warn("completion rejected: credential not set", "provider", name)
		}
		return nil, err
	}

	if g.opts.Limiter != nil {
		if err := g.opts.Limiter.Acquire(ctx, estimateTokens(req)); err != nil {
			return nil, &TransportError{Provider: name, Err: err}
		}
	}

	start := time.Now()
	resp, attempts, err := g.completeWithRetry(ctx, b, provider, req)
	elapsed := time.Since(start)

	if err != nil {
		g.observe(name, outcome(err), elapsed)
		logging.Error("completion failed", "provider", name, "attempts", attempts, "error", err)
		return nil, err
	}

	resp.Attempts = attempts
	resp.Duration = elapsed
	resp.Provider = name
	if strings.TrimSpace(resp.Text) == "" {
		resp.Text = EmptyResponseText
	}
	g.observe(name, "success", elapsed)
	logging.Info("completion finished", "provider", name, "model", resp.Model, "attempts", attempts,
		"duration_ms", elapsed.Milliseconds(), "chars", len(resp.Text))
	return resp, nil
}

func (g *Gateway) completeWithRetry(ctx context.Context, b *backend, p Provider, req Request) (*Response, int, error) {
	retry := g.opts.Retry
	maxRetries := max(retry.MaxRetries, 0)
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(retry.RetryDelay, attempt-1, retry.MaxDelay)
			logging.Warn("retrying completion", "provider", b.Name, "attempt", attempt, "delay", delay, "error", lastErr)
			if g.opts.Recorder != nil {
				g.opts.Recorder.IncRetry(b.Name)
			}
			if err := g.sleep(ctx, delay); err != nil {
				return nil, attempt, &TransportError{Provider: b.Name, Err: err}
			}
		}

		resp, err := g.attempt(ctx, b, p, req)
		if err == nil {
			return resp, attempt + 1, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return nil, attempt + 1, err
		}
	}
	return nil, maxRetries + 1, lastErr
}

func (g *Gateway) attempt(ctx context.Context, b *backend, p Provider, req Request) (*Response, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	var resp *Response
	call := func(ctx context.Context) error {
		var err error
		resp, err = p.Complete(ctx, req)
		return asTransport(b.Name, err)
	}

	var err error
	if b.breaker != nil {
		err = b.breaker.Execute(ctx, call, countsAgainstBreaker)
		if errors.Is(err, robustness.ErrCircuitOpen) {
			err = &TransportError{Provider: b.Name, Err: err}
		}
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = &Response{}
	}
	return resp, nil
}

func (g *Gateway) observe(provider, outcome string, d time.Duration) {
	if g.opts.Recorder != nil {
		g.opts.Recorder.ObserveCompletion(provider, outcome, d)
	}
}

// resolve checks the credential and returns a provider built for the current key.
func (b *backend) resolve(ctx context.Context) (Provider, error) {
	var keyValue string
	if b.Credential != nil {
		key := b.Credential()
		if !key.IsSet() {
			envVar := ""
			if key != nil {
				envVar = key.EnvVar
			}
			return nil, &CredentialError{Provider: b.Name, EnvVar: envVar}
		}
		keyValue = key.Value
		logging.Debug("loaded API key", "provider", b.Name, "source", key.Source)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.provider != nil && b.builtFor == keyValue {
		return b.provider, nil
	}
	p, err := b.Build(ctx, keyValue)
	if err != nil {
		return nil, &TransportError{Provider: b.Name, Err: err}
	}
	b.provider = p
	b.builtFor = keyValue
	return p, nil
}

func outcome(err error) string {
	var (
		upstream   *UpstreamError
		credential *CredentialError
	)
	switch {
	case errors.As(err, &credential):
		return "missing_credential"
	case errors.As(err, &upstream):
		return "upstream_error"
	default:
		return "transport_error"
	}
}

func estimateTokens(req Request) int64 {
	n := ratelimit.EstimateTokens(req.SystemInstruction)
	for _, m := range req.Messages {
		n += ratelimit.EstimateTokens(m.Content)
	}
	return n
}
