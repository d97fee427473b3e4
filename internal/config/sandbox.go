package config

import (
	"os"

	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM strips everything that could run commands, touch the
// filesystem or load code. string, table and math stay available.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)

	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("module", lua.LNil)
	L.SetGlobal("package", lua.LNil)

	// debug can reach into upvalues and metatables.
	L.SetGlobal("debug", lua.LNil)

	L.SetGlobal(luaFuncGetenv, L.NewFunction(luaGetenv))
}

// luaGetenv implements getenv(name): the variable's value, or nil when it
// is unset.
func luaGetenv(L *lua.LState) int {
	name := L.CheckString(1)
	if v, ok := os.LookupEnv(name); ok {
		L.Push(lua.LString(v))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}
