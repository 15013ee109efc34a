package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pointer/internal/fileutil"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
// An empty path falls back to $POINTER_CONFIG and then the XDG location.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("POINTER_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = getConfigPath()
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			if !os.IsNotExist(err) || explicit {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "pointer", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "pointer", "config.yaml")
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	return getConfigPath()
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv applies POINTER_* overrides. Provider credentials are not read here;
// they are resolved per request so a missing key is reported at call time.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("POINTER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("POINTER_PROVIDER"); v != "" {
		cfg.API.DefaultProvider = strings.ToLower(v)
	}
	if v := os.Getenv("POINTER_GEMINI_MODEL"); v != "" {
		cfg.API.Gemini.Model = v
	}
	if v := os.Getenv("POINTER_GROQ_MODEL"); v != "" {
		cfg.API.Groq.Model = v
	}
	if v := os.Getenv("POINTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("POINTER_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("POINTER_DATA_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.API.DefaultProvider {
	case "gemini", "groq", "ollama":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.API.DefaultProvider)
	}
	switch c.Server.Mode {
	case "release", "debug", "test":
	default:
		return fmt.Errorf("%w: server.mode %q", ErrInvalidValue, c.Server.Mode)
	}
	switch c.Chat.Overlap {
	case "reject", "supersede":
	default:
		return fmt.Errorf("%w: chat.overlap %q", ErrInvalidValue, c.Chat.Overlap)
	}
	switch c.Verify.Repair {
	case "brace", "off":
	default:
		return fmt.Errorf("%w: verify.repair %q", ErrInvalidValue, c.Verify.Repair)
	}
	switch c.Storage.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: storage.dir is required for the %s backend", ErrInvalidValue, c.Storage.Backend)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrInvalidValue, c.Storage.Backend)
	}
	if c.API.Timeout < 0 || c.Apply.Delay < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidValue)
	}
	return nil
}

// Error types for configuration validation.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrInvalidProvider ConfigError = "invalid provider: use gemini, groq or ollama"
	ErrInvalidValue    ConfigError = "invalid configuration value"
)

// Save writes the configuration to path, or the default location when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = getConfigPath()
	}
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	// 0700: the file may carry API keys
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileutil.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
