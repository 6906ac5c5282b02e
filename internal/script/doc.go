// Package script hosts Lua scripts that drive an editing engine.
//
// A Host owns one sandboxed gopher-lua state. Only the base, table, string
// and math libraries are opened; file loading and require are removed.
// Scripts reach the engine through the global "editor" module:
//
//	editor.insert_text("hello")
//	editor.toggle_mark("bold")
//	editor.split_block()
//	editor.register_command("title", function()
//	  editor.run("setHeading1")
//	  editor.insert_text("Untitled")
//	end)
//	editor.run("title")
//
// Lua states are not goroutine-safe; the host serialises calls with a mutex.
package script
