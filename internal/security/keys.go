package security

import (
	"fmt"
	"os"
)

// KeySource represents where an API key was loaded from
type KeySource string

const (
	KeySourceEnvironment KeySource = "environment"
	KeySourceConfig      KeySource = "config"
	KeySourceNotSet      KeySource = "not_set"
)

// LoadedKey represents a loaded API key with metadata
type LoadedKey struct {
	Value  string    // The actual API key
	Source KeySource // Where the key was loaded from
	EnvVar string    // Environment variable consulted first
}

// String returns a safe representation that never includes the key.
func (k *LoadedKey) String() string {
	if !k.IsSet() {
		return "LoadedKey{Source: not_set}"
	}
	return fmt.Sprintf("LoadedKey{Source: %s, Length: %d}", k.Source, len(k.Value))
}

// IsSet returns true if the key has a value
func (k *LoadedKey) IsSet() bool {
	return k != nil && k.Value != ""
}

// GetAPIKey loads an API key from the environment variable, falling back to the
// config file value. The environment always wins so deployments never need keys
// on disk.
func GetAPIKey(envVar, configValue string) *LoadedKey {
	if value := os.Getenv(envVar); value != "" {
		return &LoadedKey{Value: value, Source: KeySourceEnvironment, EnvVar: envVar}
	}
	if configValue != "" {
		return &LoadedKey{Value: configValue, Source: KeySourceConfig, EnvVar: envVar}
	}
	return &LoadedKey{Source: KeySourceNotSet, EnvVar: envVar}
}

// Redact masks a secret for logs, keeping only a short prefix and suffix.
func Redact(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
