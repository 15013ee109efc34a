package client

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrUnknownProvider   = errors.New("unknown provider")
)

// CredentialError means the selected provider has no API key. It is raised before
// any network call is made.
type CredentialError struct {
	Provider string
	EnvVar   string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s API key not found. Please add %s to your environment variables. Create a .env.local file with: %s=your_api_key_here",
		displayName(e.Provider), e.EnvVar, e.EnvVar)
}

func (e *CredentialError) Is(target error) bool { return target == ErrMissingCredential }

// UpstreamError is a non-success response from the provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error %d", displayName(e.Provider), e.StatusCode)
	}
	return fmt.Sprintf("%s API error %d: %s", displayName(e.Provider), e.StatusCode, e.Message)
}

// TransportError is a network level failure: timeout, DNS, connection reset,
// or an open circuit breaker.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", displayName(e.Provider), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable reports whether a failed attempt may be tried again.
// Transport failures are retried unless the caller cancelled; upstream
// failures only for throttling and gateway statuses. Other 4xx never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingCredential) || errors.Is(err, context.Canceled) {
		return false
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
		return false
	}

	var transport *TransportError
	return errors.As(err, &transport)
}

// countsAgainstBreaker reports whether err says something about provider health.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode == 429 || upstream.StatusCode >= 500
	}
	var transport *TransportError
	return errors.As(err, &transport)
}

// asTransport wraps anything that is not already a classified gateway error.
func asTransport(provider string, err error) error {
	if err == nil {
		return nil
	}
	var (
		upstream   *UpstreamError
		transport  *TransportError
		credential *CredentialError
	)
	if errors.As(err, &upstream) || errors.As(err, &transport) || errors.As(err, &credential) {
		return err
	}
	return &TransportError{Provider: provider, Err: err}
}

func displayName(provider string) string {
	switch provider {
	case "gemini":
		return "Gemini"
	case "groq":
		return "Groq"
	case "ollama":
		return "Ollama"
	case "":
		return "Provider"
	}
	return provider
}

// GenericErrorText is shown when a failure has no user facing detail.
const GenericErrorText = "Sorry, I encountered an error. Please try again."

// UserMessage is the text a failed completion is reported with. Credential
// errors keep their instructions and upstream errors their status; anything
// else is generic.
func UserMessage(err error) string {
	var (
		credential *CredentialError
		upstream   *UpstreamError
	)
	switch {
	case errors.As(err, &credential):
		return credential.Error()
	case errors.As(err, &upstream):
		return upstream.Error()
	case errors.Is(err, ErrUnknownProvider):
		return err.Error()
	}
	return GenericErrorText
}
