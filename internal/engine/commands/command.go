// Package commands turns editor intents into transactions.
//
// A command inspects an EditorState and returns the transaction that carries
// out the intent, or nil when the intent does not apply to the current
// selection, schema or feature flags. Commands never apply anything and never
// fail: all mutation goes through the transaction builder and nil is the
// only "no" they know.
package commands

import (
	"sort"
	"sync"

	"github.com/dshills/blockstorm/internal/engine/navigation"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

// Command is a named, argument-free editor intent.
type Command func(st *state.EditorState) *transaction.Transaction

// Registry maps command names to commands for key bindings and scripts.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds or replaces a command.
func (r *Registry) Register(name string, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = cmd
}

// Unregister removes a command.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Run looks up name and runs it against st. ok is false for unknown names;
// a known command that does not apply returns (nil, true).
func (r *Registry) Run(name string, st *state.EditorState) (*transaction.Transaction, bool) {
	cmd, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	return cmd(st), true
}

// DefaultRegistry returns a registry holding the built-in argument-free
// commands under their binding names.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, cmd := range map[string]Command{
		"insertHardBreak":    InsertHardBreak,
		"deleteSelection":    DeleteSelection,
		"deleteBackward":     DeleteBackward,
		"deleteForward":      DeleteForward,
		"deleteWordBackward": DeleteWordBackward,
		"deleteWordForward":  DeleteWordForward,
		"mergeBlockBackward": MergeBlockBackward,
		"mergeBlockForward":  MergeBlockForward,
		"splitBlock":         SplitBlock,

		"toggleBold":      ToggleBold,
		"toggleItalic":    ToggleItalic,
		"toggleUnderline": ToggleUnderline,
		"toggleStrike":    ToggleStrike,
		"toggleCode":      ToggleCode,

		"deleteNodeSelection":               DeleteNodeSelection,
		"insertParagraphAfterNodeSelection": InsertParagraphAfterNodeSelection,
		"insertHorizontalRule":              InsertHorizontalRule,

		"setParagraph": SetParagraph,
		"setHeading1":  func(st *state.EditorState) *transaction.Transaction { return SetHeading(st, 1) },
		"setHeading2":  func(st *state.EditorState) *transaction.Transaction { return SetHeading(st, 2) },
		"setHeading3":  func(st *state.EditorState) *transaction.Transaction { return SetHeading(st, 3) },
		"setCodeBlock": SetCodeBlock,

		"moveCharacterForward":    movement(MoveCharacter, navigation.Forward, false),
		"moveCharacterBackward":   movement(MoveCharacter, navigation.Backward, false),
		"extendCharacterForward":  movement(MoveCharacter, navigation.Forward, true),
		"extendCharacterBackward": movement(MoveCharacter, navigation.Backward, true),
		"moveWordForward":         movement(MoveWord, navigation.Forward, false),
		"moveWordBackward":        movement(MoveWord, navigation.Backward, false),
		"extendWordForward":       movement(MoveWord, navigation.Forward, true),
		"extendWordBackward":      movement(MoveWord, navigation.Backward, true),
		"moveUp":                  vertical(navigation.Backward),
		"moveDown":                vertical(navigation.Forward),
		"arrowLeft":               func(st *state.EditorState) *transaction.Transaction { return arrow(st, navigation.Backward) },
		"arrowRight":              func(st *state.EditorState) *transaction.Transaction { return arrow(st, navigation.Forward) },
		"selectAll":               SelectAll,
	} {
		r.Register(name, cmd)
	}
	return r
}

func movement(fn func(*state.EditorState, navigation.Direction, bool) *transaction.Transaction, dir navigation.Direction, extend bool) Command {
	return func(st *state.EditorState) *transaction.Transaction { return fn(st, dir, extend) }
}

// vertical moves without layout information, so the goal column is not
// kept between calls.
func vertical(dir navigation.Direction) Command {
	return func(st *state.EditorState) *transaction.Transaction {
		tr, _ := MoveVertical(st, dir, navigation.Goal{}, nil)
		return tr
	}
}
