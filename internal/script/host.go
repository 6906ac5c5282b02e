package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/blockstorm/internal/engine"
	"github.com/dshills/blockstorm/internal/logging"
)

// DefaultTimeout bounds a single script execution.
const DefaultTimeout = 5 * time.Second

// ModuleName is the global under which the editor API is installed.
const ModuleName = "editor"

// Host runs Lua scripts against an engine.
type Host struct {
	mu     sync.Mutex
	L      *lua.LState
	engine *engine.Engine
	logger *logging.Logger
	out    io.Writer

	timeout     time.Duration
	macros      map[string]*lua.LFunction
	checkpoints []engine.Checkpoint
	depth       int
	closed      bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used by editor.log and for diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithOutput redirects print. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		if w != nil {
			h.out = w
		}
	}
}

// WithTimeout bounds each DoString, DoFile and RunCommand call. Zero
// disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// New creates a sandboxed host bound to e.
func New(e *engine.Engine, opts ...Option) *Host {
	h := &Host{
		engine:  e,
		logger:  logging.Nop(),
		out:     os.Stdout,
		timeout: DefaultTimeout,
		macros:  make(map[string]*lua.LFunction),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithCategory(logging.CatScript)

	h.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(h.L)
	sandbox(h.L)
	h.L.SetGlobal("print", h.L.NewFunction(h.print))
	h.L.SetGlobal(ModuleName, h.L.SetFuncs(h.L.NewTable(), h.editorFuncs()))
	return h
}

func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// sandbox removes globals that reach the file system or load code.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"require", "module", "collectgarbage", "_printregs",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (h *Host) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(h.out, strings.Join(parts, "\t"))
	return 0
}

// DoString runs a chunk of Lua source.
func (h *Host) DoString(ctx context.Context, code string) error {
	return h.exec(ctx, func(L *lua.LState) error { return L.DoString(code) })
}

// DoFile runs a Lua file. The file is read by the host, not the script.
func (h *Host) DoFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script %s: %w", path, err)
	}
	fn, err := h.compile(string(src), path)
	if err != nil {
		return err
	}
	return h.exec(ctx, func(L *lua.LState) error {
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
}

func (h *Host) compile(src, name string) (*lua.LFunction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	fn, err := h.L.Load(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return fn, nil
}

// RunCommand runs a command registered by a script with
// editor.register_command. Its edits form one undo entry.
func (h *Host) RunCommand(ctx context.Context, name string) error {
	return h.exec(ctx, func(L *lua.LState) error {
		fn, ok := h.macros[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMacro, name)
		}
		return h.runMacro(L, name, fn)
	})
}

// Commands lists the script-defined commands.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.macros))
	for name := range h.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Host) exec(ctx context.Context, fn func(L *lua.LState) error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}()
	return fn(h.L)
}

// runMacro calls fn inside an undo group. Nested macros join the outermost
// group; a failing macro reverts its edits.
func (h *Host) runMacro(L *lua.LState, name string, fn *lua.LFunction) error {
	call := func() error {
		h.depth++
		defer func() { h.depth-- }()
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	}
	if h.depth > 0 {
		return call()
	}
	err := h.engine.Grouped(luaContext(L), name, call)
	if err != nil {
		h.logger.Debug("command %s failed: %v", name, err)
	}
	return err
}

// Close releases the Lua state.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.L.Close()
	h.closed = true
	return nil
}
