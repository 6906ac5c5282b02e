package config

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dshills/blockstorm/internal/engine"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/logging"
)

// LoadSchema returns the configured schema. Relative paths resolve against
// baseDir, normally the directory of the configuration file.
func (c *Config) LoadSchema(baseDir string) (*schema.Schema, error) {
	if c.Schema.Path == "" {
		return schema.Default(), nil
	}
	path := c.Schema.Path
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	s, err := schema.LoadFile(path, c.Schema.Extend)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// EngineOptions translates the configuration into engine options.
func (c *Config) EngineOptions(baseDir string) ([]engine.Option, error) {
	s, err := c.LoadSchema(baseDir)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithSchema(s),
		engine.WithMaxUndoEntries(c.Editor.MaxUndoEntries),
		engine.WithHistoryGroupDelay(c.Editor.HistoryGroupDelay.Std()),
		engine.WithMaxChanges(c.Editor.MaxChanges),
		engine.WithMaxRevisions(c.Editor.MaxRevisions),
	}
	if len(c.Editor.Features) > 0 {
		opts = append(opts, engine.WithFeatures(schema.Features(c.Editor.Features)))
	}
	if c.Editor.ReadOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	return opts, nil
}

// Logger builds the configured logger writing to w, or to the configured
// log file when one is set. The returned function closes the log file, if
// any.
func (c *Config) Logger(w io.Writer) (*logging.Logger, func() error, error) {
	if c.Log.File != "" {
		return logging.OpenFile(c.Log.File, c.LogLevel())
	}
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel()
	if w != nil {
		cfg.Output = w
	}
	return logging.New(cfg), func() error { return nil }, nil
}

// Apply pushes the settings that can change at runtime into a running
// engine.
func (c *Config) Apply(e *engine.Engine) {
	e.SetReadOnly(c.Editor.ReadOnly)
}
