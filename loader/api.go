package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// rawScene holds a scene table before it is normalized.
type rawScene struct {
	id    string
	file  string
	table *lua.LTable
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	file     string // file currently executing
	game     *lua.LTable
	gameFile string
	scenes   []rawScene
	err      error // first definition error; execution continues
}

func (c *collector) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		if coll.game != nil {
			coll.fail(&ContentError{
				Path: "game",
				Msg:  fmt.Sprintf("Game{} called in both %s and %s", coll.gameFile, coll.file),
			})
			return 0
		}
		coll.game = tbl
		coll.gameFile = coll.file
		return 0
	}))

	// Scene "id" { ... } is curried: Scene("id") returns a function that takes a table.
	L.SetGlobal("Scene", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		file := coll.file
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			if id == "" {
				coll.fail(&ContentError{Msg: fmt.Sprintf("%s: Scene with empty id", file)})
				return 0
			}
			coll.scenes = append(coll.scenes, rawScene{id: id, file: file, table: tbl})
			return 0
		}))
		return 1
	}))
}

func registerHelpers(L *lua.LState) {
	// Choice("command", "description")
	L.SetGlobal("Choice", L.NewFunction(func(L *lua.LState) int {
		command := L.CheckString(1)
		description := L.OptString(2, "")
		tbl := L.NewTable()
		tbl.RawSetString("command", lua.LString(command))
		if description != "" {
			tbl.RawSetString("description", lua.LString(description))
		}
		L.Push(tbl)
		return 1
	}))

	// Requires { history = {...}, inventory = {...} } is a pass-through.
	L.SetGlobal("Requires", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		L.Push(tbl)
		return 1
	}))

	// Override("narration", { requires_history_all = {...}, ... })
	L.SetGlobal("Override", L.NewFunction(func(L *lua.LState) int {
		narration := L.CheckString(1)
		tbl := L.OptTable(2, L.NewTable())
		out := L.NewTable()
		tbl.ForEach(func(k, v lua.LValue) {
			out.RawSet(k, v)
		})
		out.RawSetString("narration", lua.LString(narration))
		L.Push(out)
		return 1
	}))
}
