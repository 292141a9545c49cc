package luahost

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// DefaultCallStackSize is the Lua call stack depth.
const DefaultCallStackSize = 256

// State wraps a gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes calls
// made through State. Go functions registered in the state run on the
// goroutine that called into Lua and must use the LState they are handed,
// not State, or they deadlock.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	closed bool
}

type stateConfig struct {
	args []string
	exit func(int)
}

// StateOption configures a State.
type StateOption func(*stateConfig)

// WithArgs sets the global arg table; args[0] is the script name.
func WithArgs(args []string) StateOption {
	return func(c *stateConfig) {
		c.args = args
	}
}

// WithExit replaces the function os.exit calls. By default os.exit
// terminates the process without running Go exit hooks.
func WithExit(fn func(int)) StateOption {
	return func(c *stateConfig) {
		c.exit = fn
	}
}

// NewState creates a Lua state with the standard libraries open.
func NewState(opts ...StateOption) *State {
	var cfg stateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	L := lua.NewState(lua.Options{CallStackSize: DefaultCallStackSize})

	if cfg.args != nil {
		arg := L.NewTable()
		for i, a := range cfg.args {
			arg.RawSetInt(i, lua.LString(a))
		}
		L.SetGlobal("arg", arg)
	}

	if cfg.exit != nil {
		exit := cfg.exit
		if osMod, ok := L.GetGlobal("os").(*lua.LTable); ok {
			osMod.RawSetString("exit", L.NewFunction(func(L *lua.LState) int {
				code := 0
				switch v := L.Get(1).(type) {
				case lua.LNumber:
					code = int(v)
				case lua.LBool:
					if !bool(v) {
						code = 1
					}
				}
				exit(code)
				return 0
			}))
		}
	}

	return &State{L: L}
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a chunk of Lua source.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Call calls a global Lua function and returns all of its results.
func (s *State) Call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q: %w (got %s)", fn, ErrNotFunction, fnVal.Type())
	}
	return callFunction(s.L, fnVal, args...)
}

// callFunction calls fn in protected mode on L. It does not lock and may
// be used from inside Go functions running in L.
func callFunction(L *lua.LState, fn lua.LValue, args ...lua.LValue) (results []lua.LValue, err error) {
	top := L.GetTop()
	defer func() {
		if r := recover(); r != nil {
			L.SetTop(top)
			results, err = nil, fmt.Errorf("lua panic: %v", r)
		}
	}()

	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
		return nil, err
	}

	n := L.GetTop() - top
	results = make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = L.Get(top + i + 1)
	}
	L.Pop(n)
	return results, nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// RegisterModule installs a module built by loader as the global name and
// makes it available to require.
func (s *State) RegisterModule(name string, loader func(L *lua.LState) *lua.LTable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	mod := loader(s.L)
	s.L.SetGlobal(name, mod)
	s.L.PreloadModule(name, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
