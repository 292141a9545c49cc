package app

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/lush/internal/config"
	"github.com/dshills/lush/internal/job"
	"github.com/dshills/lush/internal/jobctl"
	"github.com/dshills/lush/internal/lineedit"
	"github.com/dshills/lush/internal/logging"
	"github.com/dshills/lush/internal/luahost"
	"github.com/dshills/lush/internal/proc"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app        *Application
	opts       Options
	configPath string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{app: app, opts: app.opts}
}

// bootstrap initializes all components in dependency order.
// On failure, it releases already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogging,
		b.initJobControl,
		b.initReader,
		b.initLua,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = b.app.Shutdown()
			return err
		}
	}
	return nil
}

// initConfig loads the file, applies LUSH_* overrides and validates.
func (b *bootstrapper) initConfig() error {
	b.configPath = b.opts.ConfigPath
	if b.configPath == "" {
		b.configPath = config.DefaultPath()
	}

	cfg, err := config.Resolve(b.configPath, b.opts.Lookup)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if b.opts.LogLevel != "" {
		if _, err := logging.ParseLevel(b.opts.LogLevel); err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg.Log.Level = b.opts.LogLevel
	}
	b.app.config.Store(cfg)
	prompt := cfg.Shell.Prompt
	b.app.prompt.Store(&prompt)
	return nil
}

// initLogging opens the log file, if any, and installs the logger as the
// process default.
func (b *bootstrapper) initLogging() error {
	cfg := b.app.Config()

	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		b.app.logFile = f
		out = f
	}

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel()
	lc.Output = out
	b.app.log = logging.New(lc)
	logging.SetDefault(b.app.log)

	b.app.log.WithComponent("config").Debug("loaded %s", b.configPath)
	return nil
}

// initJobControl creates the child registry, publishes it to the cleanup
// orchestrator and starts the signal controller. The shell takes the
// terminal only when stdin is one and no script was given.
func (b *bootstrapper) initJobControl() error {
	app := b.app
	cfg := app.Config()

	app.registry = jobctl.NewRegistry(cfg.Jobs.RegistryCapacity)
	app.orchestrator = jobctl.NewOrchestrator()
	app.orchestrator.Register(app.registry)
	app.signals = jobctl.NewController(app.orchestrator)

	fd := int(b.opts.Stdin.Fd())
	app.interactive = b.opts.Code == "" && b.opts.Script == "" && proc.IsTerminal(fd)

	opts := []job.LauncherOption{job.WithLogger(app.log.WithComponent("job"))}
	if app.interactive {
		opts = append(opts, job.WithTTY(fd))
		app.jobs = job.NewLauncher(app.registry, app.signals, opts...)
	} else {
		app.jobs = job.NewLauncher(app.registry, nil, opts...)
	}
	return nil
}

// initReader creates the line reader. The editor itself is opened on the
// first read.
func (b *bootstrapper) initReader() error {
	cfg := b.app.Config()
	log := b.app.log.WithComponent("completion")

	opts := []lineedit.ReaderOption{
		lineedit.WithBridgeOptions(lineedit.WithFaultHandler(func(err error) {
			log.Warn("completion function failed: %v", err)
		})),
	}
	if b.opts.Editor != nil {
		opts = append(opts, lineedit.WithEditorFactory(b.opts.Editor))
	}

	b.app.reader = lineedit.NewReader(lineedit.Config{
		HistoryFile:  cfg.History.File,
		HistoryLimit: cfg.History.Limit,
	}, opts...)
	return nil
}

// initLua creates the Lua state and registers shlib bound to this shell.
func (b *bootstrapper) initLua() error {
	app := b.app

	stateOpts := []luahost.StateOption{luahost.WithExit(b.opts.Exit)}
	if b.opts.Script != "" {
		stateOpts = append(stateOpts, luahost.WithArgs(append([]string{b.opts.Script}, b.opts.Args...)))
	}
	app.lua = luahost.NewState(stateOpts...)

	module := &luahost.Module{
		Registry:     app.registry,
		Orchestrator: app.orchestrator,
		Signals:      app.signals,
		Reader:       app.reader,
		Jobs:         app.jobs,
		Log:          app.log.WithComponent("shlib"),
		Prompt:       app.Prompt,
	}
	app.lua.RegisterModule(luahost.ModuleName, module.Loader)
	return nil
}

// initWatcher reloads the configuration file on change. A config
// directory that does not exist is not watched.
func (b *bootstrapper) initWatcher() error {
	if b.opts.NoWatch || b.configPath == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Dir(b.configPath)); err != nil {
		return nil
	}

	log := b.app.log.WithComponent("config")
	w, err := config.Watch(b.configPath,
		func(cfg *config.Config) {
			b.app.applyConfig(cfg)
			log.Info("reloaded %s", b.configPath)
		},
		config.WithLookup(b.opts.Lookup),
		config.WithErrorHandler(func(err error) {
			log.Warn("keeping previous configuration: %v", err)
		}),
	)
	if err != nil {
		log.Warn("not watching %s: %v", b.configPath, err)
		return nil
	}
	b.app.watcher = w
	return nil
}
