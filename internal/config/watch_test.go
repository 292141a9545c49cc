package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "[shell]\nprompt = \"one> \"\n")

	changes := make(chan *Config, 4)
	w, err := Watch(path, func(c *Config) { changes <- c },
		WithDebounce(10*time.Millisecond), WithLookup(noEnv))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "config.toml", "[shell]\nprompt = \"two> \"\n")

	select {
	case cfg := <-changes:
		if cfg.Shell.Prompt != "two> " {
			t.Errorf("reloaded Prompt = %q, want %q", cfg.Shell.Prompt, "two> ")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatch_PicksUpCreatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	changes := make(chan *Config, 4)
	w, err := Watch(path, func(c *Config) { changes <- c },
		WithDebounce(10*time.Millisecond), WithLookup(noEnv))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "config.yaml", "log:\n  level: error\n")

	select {
	case cfg := <-changes:
		if cfg.Log.Level != "error" {
			t.Errorf("reloaded Log.Level = %q, want error", cfg.Log.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after create")
	}
}

func TestWatch_InvalidReloadReportsError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "")

	errs := make(chan error, 4)
	changes := make(chan *Config, 4)
	w, err := Watch(path, func(c *Config) { changes <- c },
		WithDebounce(10*time.Millisecond),
		WithLookup(noEnv),
		WithErrorHandler(func(err error) { errs <- err }))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "config.toml", "[history]\nlimit = 0\n")

	select {
	case err := <-errs:
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("reload error = %v, want ErrValidationFailed", err)
		}
	case cfg := <-changes:
		t.Fatalf("onChange called with invalid config %+v", cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "")

	changes := make(chan *Config, 4)
	w, err := Watch(path, func(c *Config) { changes <- c },
		WithDebounce(10*time.Millisecond), WithLookup(noEnv))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "other.toml", "[shell]\nprompt = \"x\"\n")

	select {
	case cfg := <-changes:
		t.Errorf("unexpected reload %+v", cfg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.toml")
	if _, err := Watch(path, nil); err == nil {
		t.Error("Watch() on missing directory succeeded, want error")
	}
}

func TestWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	w, err := Watch(path, nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("second Close() error = %v, want ErrWatcherClosed", err)
	}

	// Writes after close must not panic or block.
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
