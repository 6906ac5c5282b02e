package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/blockstorm/internal/logging"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries    = 1000
	DefaultHistoryGroupDelay = 500 * time.Millisecond
	DefaultMaxChanges        = 10000
	DefaultMaxRevisions      = 100
	DefaultLogLevel          = "info"
)

// Config is the full Blockstorm configuration.
type Config struct {
	Editor EditorConfig `toml:"editor" yaml:"editor"`
	Schema SchemaConfig `toml:"schema" yaml:"schema"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// EditorConfig configures the editing engine.
type EditorConfig struct {
	// ReadOnly rejects every edit except selection changes.
	ReadOnly bool `toml:"read_only" yaml:"read_only"`

	// MaxUndoEntries bounds the undo stack.
	MaxUndoEntries int `toml:"max_undo_entries" yaml:"max_undo_entries"`

	// HistoryGroupDelay is how close in time typing must be to share an
	// undo entry. Zero disables merging.
	HistoryGroupDelay Duration `toml:"history_group_delay" yaml:"history_group_delay"`

	// MaxChanges and MaxRevisions bound change tracking.
	MaxChanges   int `toml:"max_changes" yaml:"max_changes"`
	MaxRevisions int `toml:"max_revisions" yaml:"max_revisions"`

	// Features toggles optional schema features such as "marks.font".
	Features map[string]bool `toml:"features" yaml:"features"`
}

// SchemaConfig selects the document schema.
type SchemaConfig struct {
	// Path is a YAML schema file; empty means the built-in schema.
	Path string `toml:"path" yaml:"path"`

	// Extend merges the file into the built-in schema instead of
	// replacing it.
	Extend bool `toml:"extend" yaml:"extend"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File appends logs to a file instead of stderr.
	File string `toml:"file" yaml:"file"`
}

// Duration is a time.Duration written as a Go duration string ("500ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			MaxUndoEntries:    DefaultMaxUndoEntries,
			HistoryGroupDelay: Duration(DefaultHistoryGroupDelay),
			MaxChanges:        DefaultMaxChanges,
			MaxRevisions:      DefaultMaxRevisions,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Editor.Features != nil {
		cp.Editor.Features = make(map[string]bool, len(c.Editor.Features))
		for k, v := range c.Editor.Features {
			cp.Editor.Features[k] = v
		}
	}
	return &cp
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks value ranges. All problems are joined into one error;
// each matches ErrValidationFailed.
func (c *Config) Validate() error {
	var errs []error
	positive := func(path string, v int) {
		if v <= 0 {
			errs = append(errs, &ValidationError{Path: path, Message: "must be positive", Value: v})
		}
	}
	positive("editor.max_undo_entries", c.Editor.MaxUndoEntries)
	positive("editor.max_changes", c.Editor.MaxChanges)
	positive("editor.max_revisions", c.Editor.MaxRevisions)
	if c.Editor.HistoryGroupDelay < 0 {
		errs = append(errs, &ValidationError{
			Path:    "editor.history_group_delay",
			Message: "must not be negative",
			Value:   c.Editor.HistoryGroupDelay.Std(),
		})
	}
	if lvl := strings.ToLower(c.Log.Level); lvl != "" && !contains(logLevels, lvl) {
		errs = append(errs, &ValidationError{
			Path:    "log.level",
			Message: fmt.Sprintf("must be one of %s", strings.Join(logLevels, ", ")),
			Value:   c.Log.Level,
		})
	}
	for name := range c.Editor.Features {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, &ValidationError{Path: "editor.features", Message: "empty feature name", Value: name})
		}
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() logging.LogLevel {
	if c.Log.Level == "" {
		return logging.ParseLogLevel(DefaultLogLevel)
	}
	return logging.ParseLogLevel(c.Log.Level)
}
