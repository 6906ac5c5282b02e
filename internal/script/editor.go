package script

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/blockstorm/internal/engine"
	"github.com/dshills/blockstorm/internal/engine/commands"
	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
	"github.com/dshills/blockstorm/internal/engine/transaction"
)

func (h *Host) editorFuncs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"insert_text":      h.luaInsertText,
		"run":              h.luaRun,
		"toggle_mark":      h.luaToggleMark,
		"split_block":      h.luaSplitBlock,
		"set_block_type":   h.luaSetBlockType,
		"undo":             h.luaUndo,
		"redo":             h.luaRedo,
		"checkpoint":       h.luaCheckpoint,
		"rollback":         h.luaRollback,
		"text":             h.luaText,
		"block_count":      h.luaBlockCount,
		"blocks":           h.luaBlocks,
		"block":            h.luaBlock,
		"select":           h.luaSelect,
		"selection":        h.luaSelection,
		"commands":         h.luaCommands,
		"register_command": h.luaRegisterCommand,
		"log":              h.luaLog,
	}
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// apply runs cmd and pushes whether it applied. Engine errors are raised.
func (h *Host) apply(L *lua.LState, cmd commands.Command) int {
	ok, err := h.engine.Run(luaContext(L), cmd)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

// editor.insert_text(text) -> applied
func (h *Host) luaInsertText(L *lua.LState) int {
	text := L.CheckString(1)
	return h.apply(L, func(st *state.EditorState) *transaction.Transaction {
		return commands.InsertText(st, text)
	})
}

// editor.run(name) -> applied
func (h *Host) luaRun(L *lua.LState) int {
	name := L.CheckString(1)
	if fn, ok := h.macros[name]; ok {
		if err := h.runMacro(L, name, fn); err != nil {
			L.RaiseError("%s: %v", name, err)
			return 0
		}
		L.Push(lua.LTrue)
		return 1
	}
	ok, err := h.engine.Execute(luaContext(L), name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

// editor.toggle_mark(type [, attrs]) -> applied
func (h *Host) luaToggleMark(L *lua.LState) int {
	mark := model.NewMark(model.MarkType(L.CheckString(1)), optAttrs(L, 2))
	return h.apply(L, func(st *state.EditorState) *transaction.Transaction {
		return commands.ToggleMark(st, mark)
	})
}

// editor.split_block() -> applied
func (h *Host) luaSplitBlock(L *lua.LState) int {
	return h.apply(L, commands.SplitBlock)
}

// editor.set_block_type(type [, attrs]) -> applied
func (h *Host) luaSetBlockType(L *lua.LState) int {
	typ := model.NodeType(L.CheckString(1))
	attrs := optAttrs(L, 2)
	return h.apply(L, func(st *state.EditorState) *transaction.Transaction {
		return commands.SetBlockType(st, typ, attrs)
	})
}

// editor.undo() -> applied
func (h *Host) luaUndo(L *lua.LState) int {
	return h.travel(L, h.engine.Undo)
}

// editor.redo() -> applied
func (h *Host) luaRedo(L *lua.LState) int {
	return h.travel(L, h.engine.Redo)
}

// editor.checkpoint() -> handle
func (h *Host) luaCheckpoint(L *lua.LState) int {
	h.checkpoints = append(h.checkpoints, h.engine.CreateCheckpoint())
	L.Push(lua.LNumber(len(h.checkpoints)))
	return 1
}

// editor.rollback(handle) -> applied
//
// Undoes every history entry recorded since the checkpoint, as one step.
func (h *Host) luaRollback(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 1 || n > len(h.checkpoints) {
		L.ArgError(1, "unknown checkpoint")
		return 0
	}
	cp := h.checkpoints[n-1]
	return h.travel(L, func(ctx context.Context) error { return h.engine.UndoSince(ctx, cp) })
}

func (h *Host) travel(L *lua.LState, fn func(context.Context) error) int {
	err := fn(luaContext(L))
	switch {
	case errors.Is(err, engine.ErrNothingToUndo), errors.Is(err, engine.ErrNothingToRedo):
		L.Push(lua.LFalse)
	case err != nil:
		L.RaiseError("%v", err)
		return 0
	default:
		L.Push(lua.LTrue)
	}
	return 1
}

// editor.text([block_id]) -> string, or nil for an unknown block
func (h *Host) luaText(L *lua.LState) int {
	if L.GetTop() == 0 {
		L.Push(lua.LString(h.engine.Text()))
		return 1
	}
	b, ok := h.engine.State().GetBlock(model.BlockID(L.CheckString(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(model.GetBlockText(b)))
	return 1
}

// editor.block_count() -> number of text blocks
func (h *Host) luaBlockCount(L *lua.LState) int {
	L.Push(lua.LNumber(h.engine.BlockCount()))
	return 1
}

// editor.blocks() -> list of leaf block ids in document order
func (h *Host) luaBlocks(L *lua.LState) int {
	order := h.engine.State().GetBlockOrder()
	t := L.CreateTable(len(order), 0)
	for _, id := range order {
		t.Append(lua.LString(id))
	}
	L.Push(t)
	return 1
}

// editor.block(id) -> {id, type, text, attrs} or nil
func (h *Host) luaBlock(L *lua.LState) int {
	b, ok := h.engine.State().GetBlock(model.BlockID(L.CheckString(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("id", lua.LString(b.ID))
	t.RawSetString("type", lua.LString(b.Type))
	t.RawSetString("text", lua.LString(model.GetBlockText(b)))
	t.RawSetString("attrs", toLua(L, map[string]any(b.Attrs)))
	L.Push(t)
	return 1
}

// editor.select(block_id, offset [, head_id, head_offset])
func (h *Host) luaSelect(L *lua.LState) int {
	st := h.engine.State()
	anchor := selection.Pos(model.BlockID(L.CheckString(1)), L.CheckInt(2))
	head := anchor
	if L.GetTop() >= 3 {
		head = selection.Pos(model.BlockID(L.CheckString(3)), L.CheckInt(4))
	}
	for _, p := range []selection.Position{anchor, head} {
		b, ok := st.GetBlock(p.BlockID)
		if !ok {
			L.ArgError(1, "unknown block "+string(p.BlockID))
			return 0
		}
		if p.Offset < 0 || p.Offset > model.GetBlockLength(b) {
			L.ArgError(2, "offset out of range")
			return 0
		}
	}
	tr := st.Transaction(transaction.OriginAPI).
		SetSelection(selection.TextSelection{Anchor: anchor, Head: head}).
		Build()
	if err := h.engine.Dispatch(luaContext(L), tr); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// editor.selection() -> string form of the selection
func (h *Host) luaSelection(L *lua.LState) int {
	sel := h.engine.State().Selection()
	if sel == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(sel.String()))
	return 1
}

// editor.commands() -> engine and script command names
func (h *Host) luaCommands(L *lua.LState) int {
	names := h.engine.Registry().List()
	for name := range h.macros {
		if !h.engine.Registry().Has(name) {
			names = append(names, name)
		}
	}
	L.Push(toLua(L, names))
	return 1
}

// editor.register_command(name, fn)
func (h *Host) luaRegisterCommand(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if name == "" {
		L.ArgError(1, "empty command name")
		return 0
	}
	h.macros[name] = fn
	h.logger.Debug("registered script command %s", name)
	return 0
}

// editor.log(message)
func (h *Host) luaLog(L *lua.LState) int {
	h.logger.Info("%s", L.CheckString(1))
	return 0
}
