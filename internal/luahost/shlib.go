package luahost

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/lush/internal/job"
	"github.com/dshills/lush/internal/jobctl"
	"github.com/dshills/lush/internal/lineedit"
	"github.com/dshills/lush/internal/logging"
	"github.com/dshills/lush/internal/proc"
)

// ModuleName is the name scripts use for the job-control module.
const ModuleName = "shlib"

// constants exported by the module under their C names.
var constants = map[string]int{
	"STDIN_FILENO":  proc.StdinFD,
	"STDOUT_FILENO": proc.StdoutFD,
	"STDERR_FILENO": proc.StderrFD,

	"SIGINT":  int(proc.SIGINT),
	"SIGCONT": int(proc.SIGCONT),
	"SIGQUIT": int(proc.SIGQUIT),
	"SIGTSTP": int(proc.SIGTSTP),
	"SIGTTIN": int(proc.SIGTTIN),
	"SIGTTOU": int(proc.SIGTTOU),
	"SIGCHLD": int(proc.SIGCHLD),
	"SIGTERM": int(proc.SIGTERM),
	"SIGPIPE": int(proc.SIGPIPE),
	"SIGHUP":  int(proc.SIGHUP),
	"SIGKILL": int(proc.SIGKILL),
	"SIGSTOP": int(proc.SIGSTOP),

	"SIG_BLOCK":   proc.SIG_BLOCK,
	"SIG_UNBLOCK": proc.SIG_UNBLOCK,

	"O_RDONLY": proc.O_RDONLY,
	"O_WRONLY": proc.O_WRONLY,
	"O_RDWR":   proc.O_RDWR,
	"O_APPEND": proc.O_APPEND,
	"O_CREAT":  proc.O_CREAT,
	"O_TRUNC":  proc.O_TRUNC,
	"S_IWUSR":  proc.S_IWUSR,
	"S_IRUSR":  proc.S_IRUSR,
	"S_IRGRP":  proc.S_IRGRP,

	"TCSADRAIN": proc.TCSADRAIN,

	"WUNTRACED":  proc.WUNTRACED,
	"WNOHANG":    proc.WNOHANG,
	"WCONTINUED": proc.WCONTINUED,

	"ECHILD": int(proc.ECHILD),
	"ESRCH":  int(proc.ESRCH),
	"EACCES": int(proc.EACCES),
}

// Module is the shlib module bound to one shell's job-control state.
// Fields left nil disable the functions that need them.
type Module struct {
	Registry     *jobctl.Registry
	Orchestrator *jobctl.Orchestrator
	Signals      *jobctl.Controller
	Reader       *lineedit.Reader
	Jobs         *job.Launcher
	Log          *logging.Logger

	// Prompt supplies the configured prompt; readline uses it when called
	// without one.
	Prompt func() string

	mod *lua.LTable
}

// Loader builds the module table. Use it with State.RegisterModule.
func (m *Module) Loader(L *lua.LState) *lua.LTable {
	if m.Log == nil {
		m.Log = logging.Null()
	}

	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"spawn":     m.spawn,
		"exec":      m.exec,
		"isatty":    m.isatty,
		"getpid":    m.getpid,
		"setpgid":   m.setpgid,
		"getpgrp":   m.getpgrp,
		"getpgid":   m.getpgid,
		"tcgetpgrp": m.tcgetpgrp,
		"tcsetpgrp": m.tcsetpgrp,
		"kill":      m.kill,
		"waitpid":   m.waitpid,
		"glob":      m.glob,
		"chdir":     m.chdir,
		"readline":  m.readline,
		"prompt":    m.prompt,

		"run":      m.run,
		"fg":       m.fg,
		"bg":       m.bg,
		"jobs":     m.jobs,
		"children": m.children,

		"track_child":          m.trackChild,
		"arm_cleanup":          m.armCleanup,
		"set_signal_mode":      m.setSignalMode,
		"mask_cleanup_signals": m.maskCleanupSignals,

		"exited":      statusBool(proc.WaitStatus.Exited),
		"signaled":    statusBool(proc.WaitStatus.Signaled),
		"stopped":     statusBool(proc.WaitStatus.Stopped),
		"continued":   statusBool(proc.WaitStatus.Continued),
		"exit_status": statusInt(proc.WaitStatus.ExitStatus),
		"term_signal": statusInt(func(s proc.WaitStatus) int { return int(s.Signal()) }),
		"stop_signal": statusInt(func(s proc.WaitStatus) int { return int(s.StopSignal()) }),
	})
	for name, v := range constants {
		mod.RawSetString(name, lua.LNumber(v))
	}
	mod.RawSetString("errno", lua.LNumber(0))
	m.mod = mod
	return mod
}

// fail records the errno of err in shlib.errno and raises err as a Lua
// error.
func (m *Module) fail(L *lua.LState, err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		m.mod.RawSetString("errno", lua.LNumber(errno))
	}
	L.RaiseError("%s", err.Error())
	return 0
}

func (m *Module) unavailable(L *lua.LState, what string) int {
	L.RaiseError("%s is not available in this shell", what)
	return 0
}

func (m *Module) spawn(L *lua.LState) int {
	argv := checkStrings(L, 1)
	opts := L.OptTable(2, nil)

	attr := &proc.SpawnAttr{
		Dir:        optString(opts, "dir"),
		NewGroup:   optBool(opts, "new_group"),
		Pgid:       optInt(opts, "pgid", 0),
		Foreground: optBool(opts, "foreground"),
		TTY:        optInt(opts, "tty", proc.StdinFD),
	}
	if opts != nil {
		if env := opts.RawGetString("env"); env != lua.LNil {
			attr.Env = stringsFrom(env)
		}
	}

	pid, err := proc.Spawn(argv, attr)
	if err != nil {
		return m.fail(L, err)
	}
	L.Push(lua.LNumber(pid))
	return 1
}

func (m *Module) exec(L *lua.LState) int {
	argv := checkStrings(L, 1)
	return m.fail(L, proc.Exec(argv))
}

func (m *Module) isatty(L *lua.LState) int {
	L.Push(lua.LBool(proc.IsTerminal(L.CheckInt(1))))
	return 1
}

func (m *Module) getpid(L *lua.LState) int {
	L.Push(lua.LNumber(proc.Getpid()))
	return 1
}

func (m *Module) setpgid(L *lua.LState) int {
	if err := proc.Setpgid(L.CheckInt(1), L.CheckInt(2)); err != nil {
		return m.fail(L, err)
	}
	return 0
}

func (m *Module) getpgrp(L *lua.LState) int {
	L.Push(lua.LNumber(proc.Getpgrp()))
	return 1
}

func (m *Module) getpgid(L *lua.LState) int {
	pgid, err := proc.Getpgid(L.OptInt(1, 0))
	if err != nil {
		return m.fail(L, err)
	}
	L.Push(lua.LNumber(pgid))
	return 1
}

func (m *Module) tcgetpgrp(L *lua.LState) int {
	pgid, err := proc.Tcgetpgrp(L.CheckInt(1))
	if err != nil {
		return m.fail(L, err)
	}
	L.Push(lua.LNumber(pgid))
	return 1
}

func (m *Module) tcsetpgrp(L *lua.LState) int {
	fd, pgid := L.CheckInt(1), L.CheckInt(2)
	var err error
	if m.Signals != nil {
		err = m.Signals.SetForeground(fd, pgid)
	} else {
		err = proc.Tcsetpgrp(fd, pgid)
	}
	if err != nil {
		return m.fail(L, err)
	}
	return 0
}

func (m *Module) kill(L *lua.LState) int {
	if err := proc.Kill(L.CheckInt(1), syscall.Signal(L.CheckInt(2))); err != nil {
		return m.fail(L, err)
	}
	return 0
}

func (m *Module) waitpid(L *lua.LState) int {
	pid, status, err := proc.Wait(L.CheckInt(1), L.OptInt(2, 0))
	if err != nil {
		return m.fail(L, err)
	}
	L.Push(lua.LNumber(pid))
	L.Push(lua.LNumber(status))
	return 2
}

func statusBool(fn func(proc.WaitStatus) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(fn(proc.WaitStatus(L.CheckInt(1)))))
		return 1
	}
}

func statusInt(fn func(proc.WaitStatus) int) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LNumber(fn(proc.WaitStatus(L.CheckInt(1)))))
		return 1
	}
}

// glob expands pattern; a pattern matching nothing expands to itself.
func (m *Module) glob(L *lua.LState) int {
	pattern := L.CheckString(1)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		L.RaiseError("glob: %v", err)
		return 0
	}
	if len(matches) == 0 {
		matches = []string{pattern}
	}
	L.Push(stringsToTable(L, matches))
	return 1
}

func (m *Module) chdir(L *lua.LState) int {
	dir := L.OptString(1, "")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			L.RaiseError("chdir: %v", err)
			return 0
		}
		dir = home
	}
	if err := os.Chdir(dir); err != nil {
		return m.fail(L, err)
	}
	return 0
}

// readline returns the line read, or nil and "eof" or "interrupt". The
// optional second argument is called as fn(line, start, end) on Tab and
// returns an array of candidates; start and end are zero-based byte
// offsets of the token being completed.
func (m *Module) readline(L *lua.LState) int {
	if m.Reader == nil {
		return m.unavailable(L, "readline")
	}
	var prompt string
	if v, ok := L.Get(1).(lua.LString); ok {
		prompt = string(v)
	} else if m.Prompt != nil {
		prompt = m.Prompt()
	}

	var complete lineedit.CompleteFunc
	if fn, ok := L.Get(2).(*lua.LFunction); ok {
		complete = func(line string, start, end int) ([]string, error) {
			res, err := callFunction(L, fn, lua.LString(line), lua.LNumber(start), lua.LNumber(end))
			if err != nil || len(res) == 0 {
				return nil, err
			}
			return stringsFrom(res[0]), nil
		}
	}

	line, err := m.Reader.ReadLine(prompt, complete)
	switch {
	case err == nil:
		L.Push(lua.LString(line))
		return 1
	case errors.Is(err, io.EOF):
		L.Push(lua.LNil)
		L.Push(lua.LString("eof"))
		return 2
	case errors.Is(err, lineedit.ErrInterrupted):
		L.Push(lua.LNil)
		L.Push(lua.LString("interrupt"))
		return 2
	default:
		L.RaiseError("readline: %v", err)
		return 0
	}
}

func (m *Module) prompt(L *lua.LState) int {
	if m.Prompt == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(m.Prompt()))
	return 1
}

func (m *Module) run(L *lua.LState) int {
	if m.Jobs == nil {
		return m.unavailable(L, "run")
	}
	argv := checkStrings(L, 1)
	background := optBool(L.OptTable(2, nil), "background")

	j, err := m.Jobs.Run(argv, background)
	if j == nil {
		return m.fail(L, err)
	}
	if err != nil {
		m.Log.Warn("job %s: %v", j.Ref(), err)
	}
	L.Push(jobToTable(L, j))
	return 1
}

func (m *Module) fg(L *lua.LState) int {
	return m.resume(L, true)
}

func (m *Module) bg(L *lua.LState) int {
	return m.resume(L, false)
}

func (m *Module) resume(L *lua.LState, foreground bool) int {
	if m.Jobs == nil {
		return m.unavailable(L, "job control")
	}
	ref := L.OptString(1, "")
	if err := m.Jobs.Continue(ref, foreground); err != nil {
		return m.fail(L, err)
	}
	j, err := m.Jobs.Lookup(ref)
	if err != nil {
		return m.fail(L, err)
	}
	L.Push(jobToTable(L, j))
	return 1
}

func (m *Module) jobs(L *lua.LState) int {
	if m.Jobs == nil {
		return m.unavailable(L, "job control")
	}
	m.Jobs.Refresh()
	list := m.Jobs.Jobs()
	// Finished jobs are reported once.
	m.Jobs.Prune()
	t := L.CreateTable(len(list), 0)
	for i, j := range list {
		t.RawSetInt(i+1, jobToTable(L, j))
	}
	L.Push(t)
	return 1
}

func (m *Module) children(L *lua.LState) int {
	if m.Registry == nil {
		L.Push(L.NewTable())
		return 1
	}
	L.Push(intsToTable(L, m.Registry.PIDs()))
	return 1
}

func (m *Module) trackChild(L *lua.LState) int {
	if m.Registry == nil {
		return m.unavailable(L, "track_child")
	}
	if err := m.Registry.Add(L.CheckInt(1)); err != nil {
		L.RaiseError("track_child: %v", err)
	}
	return 0
}

func (m *Module) armCleanup(L *lua.LState) int {
	if m.Orchestrator == nil {
		return m.unavailable(L, "arm_cleanup")
	}
	m.Orchestrator.Arm()
	m.Log.Debug("cleanup armed by pid %d", proc.Getpid())
	return 0
}

func (m *Module) setSignalMode(L *lua.LState) int {
	if m.Signals == nil {
		return m.unavailable(L, "set_signal_mode")
	}
	mode, err := jobctl.ParseMode(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	if err := m.Signals.SetMode(mode); err != nil {
		L.RaiseError("set_signal_mode: %v", err)
		return 0
	}
	m.Log.Debug("signal mode %s", mode)
	return 0
}

func (m *Module) maskCleanupSignals(L *lua.LState) int {
	if m.Signals == nil {
		return m.unavailable(L, "mask_cleanup_signals")
	}
	if err := m.Signals.MaskCleanupSignals(jobctl.MaskAction(L.CheckInt(1))); err != nil {
		L.ArgError(1, err.Error())
	}
	return 0
}
