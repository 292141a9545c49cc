// Package lineedit connects an interactive line editor to completion
// logic supplied by the host.
//
// The editor (github.com/chzyer/readline) calls back synchronously while
// the user presses Tab. Bridge turns that call into a Request, runs the
// host CompleteFunc, filters the candidates and computes the prefix they
// all share. The editor only accepts suffixes, so the completer adapter
// renders the Result as the suffixes that extend what the user typed.
//
// Reader owns the editor. Only one ReadLine may be in flight; calling
// ReadLine from inside a completion callback fails with ErrRecursiveRead
// and leaves the outer read running.
package lineedit
