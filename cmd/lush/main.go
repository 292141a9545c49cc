// Package main is the entry point for the lush shell.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dshills/lush/internal/app"
	"github.com/dshills/lush/internal/jobctl"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Exit hooks sweep the children this shell started.
	jobctl.Exit(run())
}

func run() int {
	opts, code, done := parseFlags(os.Args[1:], os.Stderr)
	if done {
		return code
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lush: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "lush: %v\n", err)
		return 1
	}
	return 0
}

// parseFlags returns the application options. done is set when the
// command line has been fully handled (help, version or a usage error)
// and the process should exit with code.
func parseFlags(args []string, stderr io.Writer) (opts app.Options, code int, done bool) {
	fs := flag.NewFlagSet("lush", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var showVersion bool

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.Code, "c", "", "Run a Lua chunk instead of the init script")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "lush - Lua-scripted shell\n\n")
		fmt.Fprintf(out, "Usage: lush [options] [script.lua [args...]]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  lush                        Start the interactive shell\n")
		fmt.Fprintf(out, "  lush build.lua release      Run a script with arguments\n")
		fmt.Fprintf(out, "  lush -c 'print(shlib.getpid())'\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return opts, 0, true
		}
		return opts, 2, true
	}

	if showVersion {
		fmt.Printf("lush %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return opts, 0, true
	}

	if rest := fs.Args(); len(rest) > 0 {
		opts.Script = rest[0]
		opts.Args = rest[1:]
	}
	return opts, 0, false
}
