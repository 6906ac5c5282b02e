// Package config provides the configuration system for Blockstorm.
//
// A configuration file is TOML or YAML, chosen by extension, decoded over
// the built-in defaults:
//
//	[editor]
//	read_only = false
//	max_undo_entries = 1000
//	history_group_delay = "500ms"
//
//	[editor.features]
//	"marks.font" = true
//
//	[schema]
//	path = "schema.yaml"
//	extend = true
//
//	[log]
//	level = "debug"
//	file = "blockstorm.log"
//
// # Sub-packages
//
//   - watcher: fsnotify-based file watching with debounce
//
// # Live Reload
//
// A [Reloader] watches the file and hands every successfully parsed
// version to its handlers. Parse and validation errors are reported to the
// handlers as well; the previous configuration stays in effect.
package config
