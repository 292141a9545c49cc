package lineedit

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chzyer/readline"
)

// DefaultHistoryLimit is the number of lines kept when none is configured.
const DefaultHistoryLimit = 1000

// Editor is the part of the line editor Reader drives.
// *readline.Instance satisfies it.
type Editor interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	SaveHistory(line string) error
	Close() error
}

// Config configures the editor created by a Reader.
type Config struct {
	// HistoryFile is where history is loaded from and appended to. Empty
	// keeps history in memory only.
	HistoryFile  string
	HistoryLimit int
}

// EditorFactory creates the editor on first use. The completer must be
// installed as the editor's completion handler.
type EditorFactory func(cfg Config, completer readline.AutoCompleter) (Editor, error)

// NewReadlineEditor is the EditorFactory backed by chzyer/readline.
func NewReadlineEditor(cfg Config, completer readline.AutoCompleter) (Editor, error) {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return readline.NewEx(&readline.Config{
		HistoryFile:            cfg.HistoryFile,
		HistoryLimit:           limit,
		DisableAutoSaveHistory: true,
		AutoComplete:           completer,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithEditorFactory replaces the readline-backed editor.
func WithEditorFactory(f EditorFactory) ReaderOption {
	return func(r *Reader) {
		r.factory = f
	}
}

// WithBridgeOptions applies opts to the bridge built for every read.
func WithBridgeOptions(opts ...BridgeOption) ReaderOption {
	return func(r *Reader) {
		r.bridgeOpts = append(r.bridgeOpts, opts...)
	}
}

// Reader reads lines with completion. The editor is created on the first
// ReadLine and shared by all later ones.
type Reader struct {
	cfg        Config
	factory    EditorFactory
	bridgeOpts []BridgeOption

	active    atomic.Bool
	completer completer

	mu     sync.Mutex
	editor Editor
	closed bool
}

// NewReader returns a reader using cfg for the editor.
func NewReader(cfg Config, opts ...ReaderOption) *Reader {
	r := &Reader{
		cfg:     cfg,
		factory: NewReadlineEditor,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Active reports whether a ReadLine is in progress.
func (r *Reader) Active() bool {
	return r.active.Load()
}

// ReadLine shows prompt and reads one line, calling complete when the user
// asks for completion. It returns io.EOF at end of input and
// ErrInterrupted on Ctrl-C. Non-blank lines are added to history.
func (r *Reader) ReadLine(prompt string, complete CompleteFunc) (string, error) {
	if !r.active.CompareAndSwap(false, true) {
		return "", ErrRecursiveRead
	}
	defer r.active.Store(false)

	ed, err := r.open()
	if err != nil {
		return "", err
	}

	r.completer.set(NewBridge(complete, r.bridgeOpts...))
	defer r.completer.set(nil)

	ed.SetPrompt(prompt)
	line, err := ed.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	case err != nil:
		return "", err
	}

	if strings.TrimSpace(line) != "" {
		_ = ed.SaveHistory(line)
	}
	return line, nil
}

func (r *Reader) open() (Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrReaderClosed
	}
	if r.editor == nil {
		ed, err := r.factory(r.cfg, &r.completer)
		if err != nil {
			return nil, err
		}
		r.editor = ed
	}
	return r.editor, nil
}

// Close releases the editor. It must not be called during a read.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.editor == nil {
		return nil
	}
	return r.editor.Close()
}
