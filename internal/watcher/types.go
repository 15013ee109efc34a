package watcher

import "pointer/internal/config"

// Operation is the settled state of a changed path.
type Operation int

const (
	OpModify Operation = iota
	OpDelete
)

func (op Operation) String() string {
	if op == OpDelete {
		return "delete"
	}
	return "modify"
}

// Config holds file watcher configuration.
type Config struct {
	Enabled    bool
	Include    []string // doublestar patterns relative to the root
	DebounceMs int
	MaxWatches int
	MaxBytes   int64
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		Include:    []string{"**/*"},
		DebounceMs: 500,
		MaxWatches: 1000,
		MaxBytes:   1 << 20,
	}
}

// ConfigFrom converts the watcher section of the application config.
func ConfigFrom(cfg config.WatcherConfig) Config {
	out := DefaultConfig()
	out.Enabled = cfg.Enabled
	if len(cfg.Include) > 0 {
		out.Include = cfg.Include
	}
	if cfg.DebounceMs > 0 {
		out.DebounceMs = cfg.DebounceMs
	}
	if cfg.MaxWatches > 0 {
		out.MaxWatches = cfg.MaxWatches
	}
	if cfg.MaxBytes > 0 {
		out.MaxBytes = cfg.MaxBytes
	}
	return out
}

// FileChangeHandler is a callback for file change events. path is relative to the root.
type FileChangeHandler func(path string, op Operation)

// Stats holds watcher statistics.
type Stats struct {
	Running      bool  `json:"running"`
	WatchedPaths int   `json:"watched_paths"`
	EventsCount  int64 `json:"events_count"`
}
