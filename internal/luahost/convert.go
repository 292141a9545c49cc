package luahost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/lush/internal/job"
)

// checkStrings reads argument n as an array of strings. Numbers are
// converted; anything else raises an argument error.
func checkStrings(L *lua.LState, n int) []string {
	tbl := L.CheckTable(n)
	size := tbl.Len()
	out := make([]string, 0, size)
	for i := 1; i <= size; i++ {
		switch v := tbl.RawGetInt(i).(type) {
		case lua.LString:
			out = append(out, string(v))
		case lua.LNumber:
			out = append(out, v.String())
		default:
			L.ArgError(n, "array of strings expected")
		}
	}
	return out
}

// stringsFrom collects the string entries of an array value, skipping
// anything else.
func stringsFrom(v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	size := tbl.Len()
	out := make([]string, 0, size)
	for i := 1; i <= size; i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

func stringsToTable(L *lua.LState, ss []string) *lua.LTable {
	t := L.CreateTable(len(ss), 0)
	for i, s := range ss {
		t.RawSetInt(i+1, lua.LString(s))
	}
	return t
}

func intsToTable(L *lua.LState, ns []int) *lua.LTable {
	t := L.CreateTable(len(ns), 0)
	for i, n := range ns {
		t.RawSetInt(i+1, lua.LNumber(n))
	}
	return t
}

func jobToTable(L *lua.LState, j *job.Job) *lua.LTable {
	t := L.CreateTable(0, 8)
	t.RawSetString("id", lua.LString(j.ID))
	t.RawSetString("number", lua.LNumber(j.Number))
	t.RawSetString("ref", lua.LString(j.Ref()))
	t.RawSetString("pid", lua.LNumber(j.PID))
	t.RawSetString("pgid", lua.LNumber(j.PGID))
	t.RawSetString("state", lua.LString(j.State().String()))
	t.RawSetString("status", lua.LNumber(j.Status()))
	t.RawSetString("argv", stringsToTable(L, j.Argv))
	return t
}

func optBool(t *lua.LTable, key string) bool {
	if t == nil {
		return false
	}
	return lua.LVAsBool(t.RawGetString(key))
}

func optInt(t *lua.LTable, key string, def int) int {
	if t == nil {
		return def
	}
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return def
}

func optString(t *lua.LTable, key string) string {
	if t == nil {
		return ""
	}
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}
