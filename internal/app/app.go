// Package app wires the shell together: configuration, logging, job
// control, line editing and the Lua host, and runs the init script.
package app

import (
	_ "embed"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/lush/internal/config"
	"github.com/dshills/lush/internal/job"
	"github.com/dshills/lush/internal/jobctl"
	"github.com/dshills/lush/internal/lineedit"
	"github.com/dshills/lush/internal/logging"
	"github.com/dshills/lush/internal/luahost"
)

//go:embed init.lua
var defaultInit string

// Application is one running shell.
type Application struct {
	opts Options

	config  atomic.Pointer[config.Config]
	prompt  atomic.Pointer[string]
	watcher *config.Watcher

	log     *logging.Logger
	logFile *os.File

	// Job control
	registry     *jobctl.Registry
	orchestrator *jobctl.Orchestrator
	signals      *jobctl.Controller
	jobs         *job.Launcher

	reader *lineedit.Reader
	lua    *luahost.State

	interactive bool

	running      atomic.Bool
	closed       atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty selects config.DefaultPath.
	ConfigPath string

	// Code is a Lua chunk to run instead of the init script (-c).
	Code string

	// Script is a Lua file to run instead of the init script.
	Script string

	// Args are passed to Script as arg[1..n].
	Args []string

	// LogLevel overrides log.level and pins it across reloads.
	LogLevel string

	// Lookup reads LUSH_* overrides. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)

	// Stdin is the descriptor checked for a terminal. Defaults to 0.
	Stdin *os.File

	// NoWatch disables configuration reload.
	NoWatch bool

	// Editor replaces the readline-backed line editor.
	Editor lineedit.EditorFactory

	// Exit is what os.exit calls in Lua. Defaults to jobctl.Exit.
	Exit func(int)
}

// New creates and initializes an Application.
func New(opts Options) (*Application, error) {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Exit == nil {
		opts.Exit = jobctl.Exit
	}

	app := &Application{opts: opts}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run arms child cleanup, installs the signal mode and runs the Lua entry
// point: Code, Script, the configured init script or the built-in loop,
// in that order of preference.
func (app *Application) Run() error {
	if app.closed.Load() {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	mode := jobctl.ModeNoninteractive
	if app.interactive {
		mode = jobctl.ModeInteractive
	}
	if err := app.signals.SetMode(mode); err != nil {
		return NewOperationError("set signal mode", mode.String(), err)
	}
	app.orchestrator.Arm()
	app.log.WithComponent("jobctl").Debug("cleanup armed, signal mode %s", mode)

	cfg := app.Config()
	switch {
	case app.opts.Code != "":
		if err := app.lua.DoString(app.opts.Code); err != nil {
			return NewOperationError("eval", "-c", err)
		}
	case app.opts.Script != "":
		if err := app.lua.DoFile(app.opts.Script); err != nil {
			return NewOperationError("run script", app.opts.Script, err)
		}
	case cfg.Shell.Init != "":
		if err := app.lua.DoFile(cfg.Shell.Init); err != nil {
			return NewOperationError("run shell.init", cfg.Shell.Init, err)
		}
	default:
		if err := app.lua.DoString(defaultInit); err != nil {
			return NewOperationError("run script", "built-in init", err)
		}
	}
	return nil
}

// Shutdown releases every component in reverse start order. It does not
// touch children; those are swept by the exit hook armed in Run.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() {
		app.closed.Store(true)
		var errs ErrorList
		if app.watcher != nil {
			errs.Add(app.watcher.Close())
		}
		if app.lua != nil {
			errs.Add(app.lua.Close())
		}
		if app.reader != nil {
			errs.Add(app.reader.Close())
		}
		if app.signals != nil {
			errs.Add(app.signals.Close())
		}
		if app.logFile != nil {
			errs.Add(app.logFile.Close())
		}
		app.shutdownErr = errs.AsError()
	})
	return app.shutdownErr
}

// Config returns the configuration in effect.
func (app *Application) Config() *config.Config {
	return app.config.Load()
}

// Prompt returns the configured prompt.
func (app *Application) Prompt() string {
	if p := app.prompt.Load(); p != nil {
		return *p
	}
	return config.DefaultPrompt
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Interactive reports whether the shell owns a terminal.
func (app *Application) Interactive() bool {
	return app.interactive
}

// Registry returns the child registry swept at exit.
func (app *Application) Registry() *jobctl.Registry {
	return app.registry
}

// Signals returns the signal mode controller.
func (app *Application) Signals() *jobctl.Controller {
	return app.signals
}

// Jobs returns the job launcher.
func (app *Application) Jobs() *job.Launcher {
	return app.jobs
}

// applyConfig takes over the settings that can change while running.
// History, log file and registry capacity are fixed at startup.
func (app *Application) applyConfig(cfg *config.Config) {
	if app.opts.LogLevel == "" {
		app.log.SetLevel(cfg.LogLevel())
	}
	app.config.Store(cfg)
	prompt := cfg.Shell.Prompt
	app.prompt.Store(&prompt)
}
