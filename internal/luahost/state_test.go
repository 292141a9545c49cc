package luahost

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestState_DoString(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`x = 1 + 2`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if got := s.GetGlobal("x"); got != lua.LNumber(3) {
		t.Errorf("x = %v, want 3", got)
	}
	if err := s.DoString(`error("boom")`); err == nil {
		t.Error("DoString() with error returned nil")
	}
}

func TestState_DoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(path, []byte(`loaded = arg[0]`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewState(WithArgs([]string{path}))
	defer s.Close()

	if err := s.DoFile(path); err != nil {
		t.Fatalf("DoFile() error = %v", err)
	}
	if got := s.GetGlobal("loaded"); got != lua.LString(path) {
		t.Errorf("loaded = %v, want %q", got, path)
	}
}

func TestState_Call(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`function pair(a) return a, a * 2 end`); err != nil {
		t.Fatal(err)
	}
	res, err := s.Call("pair", lua.LNumber(4))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(res) != 2 || res[0] != lua.LNumber(4) || res[1] != lua.LNumber(8) {
		t.Errorf("Call() = %v, want [4 8]", res)
	}
	if top := s.L.GetTop(); top != 0 {
		t.Errorf("stack top after Call() = %d, want 0", top)
	}

	if _, err := s.Call("missing"); !errors.Is(err, ErrNotFunction) {
		t.Errorf("Call(missing) error = %v, want ErrNotFunction", err)
	}
}

func TestState_Closed(t *testing.T) {
	s := NewState()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close error = %v, want ErrStateClosed", err)
	}
	if _, err := s.Call("print"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() after Close error = %v, want ErrStateClosed", err)
	}
	if got := s.GetGlobal("x"); got != lua.LNil {
		t.Errorf("GetGlobal() after Close = %v, want nil", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestState_Exit(t *testing.T) {
	code := -1
	s := NewState(WithExit(func(c int) { code = c }))
	defer s.Close()

	tests := []struct {
		script string
		want   int
	}{
		{`os.exit(3)`, 3},
		{`os.exit()`, 0},
		{`os.exit(false)`, 1},
		{`os.exit(true)`, 0},
	}
	for _, tt := range tests {
		code = -1
		if err := s.DoString(tt.script); err != nil {
			t.Fatalf("DoString(%q) error = %v", tt.script, err)
		}
		if code != tt.want {
			t.Errorf("%s: exit code = %d, want %d", tt.script, code, tt.want)
		}
	}
}

func TestCallFunction_RestoresStack(t *testing.T) {
	s := NewState()
	defer s.Close()

	fn := s.L.NewFunction(func(L *lua.LState) int {
		panic("go panic")
	})
	if _, err := callFunction(s.L, fn); err == nil {
		t.Error("callFunction() with panicking function returned nil error")
	}
	if top := s.L.GetTop(); top != 0 {
		t.Errorf("stack top = %d, want 0", top)
	}
}
