package lineedit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CompleteFunc returns full-token candidates for line, which ends at the
// cursor. The token being completed is line[start:end].
type CompleteFunc func(line string, start, end int) ([]string, error)

// Request is one completion request from the editor. Offsets are byte
// offsets into Line.
type Request struct {
	Line  string
	Start int
	End   int
}

// Result is the filtered answer to a Request.
type Result struct {
	Candidates []string
	Start      int
	End        int
	// Prefix is the longest prefix shared by every candidate.
	Prefix string
}

// Empty reports whether there is nothing to offer.
func (r Result) Empty() bool {
	return len(r.Candidates) == 0
}

// Matches returns the shared prefix followed by the candidates, or nil
// when there are no candidates.
func (r Result) Matches() []string {
	if r.Empty() {
		return nil
	}
	out := make([]string, 0, len(r.Candidates)+1)
	out = append(out, r.Prefix)
	return append(out, r.Candidates...)
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithFaultHandler sets a function that is told about errors and panics
// raised by the completion function. They are otherwise dropped.
func WithFaultHandler(fn func(error)) BridgeOption {
	return func(b *Bridge) {
		b.onFault = fn
	}
}

// Bridge runs a CompleteFunc on behalf of the editor.
type Bridge struct {
	complete CompleteFunc
	onFault  func(error)
}

// NewBridge returns a bridge calling fn. A nil fn never completes.
func NewBridge(fn CompleteFunc, opts ...BridgeOption) *Bridge {
	b := &Bridge{complete: fn}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewRequest builds the request for a cursor at byte offset end. The token
// starts after the last space before the cursor.
func NewRequest(line string, end int) Request {
	if end < 0 {
		end = 0
	}
	if end > len(line) {
		end = len(line)
	}
	start := strings.LastIndexByte(line[:end], ' ') + 1
	return Request{Line: line[:end], Start: start, End: end}
}

// Complete answers a completion request for line with the cursor at byte
// offset end. An empty line is not completed.
func (b *Bridge) Complete(line string, end int) Result {
	req := NewRequest(line, end)
	res := Result{Start: req.Start, End: req.End}
	if line == "" || b.complete == nil {
		return res
	}

	raw, err := b.call(req)
	if err != nil {
		if b.onFault != nil {
			b.onFault(err)
		}
		return res
	}

	res.Candidates = Valid(raw)
	res.Prefix = LongestCommonPrefix(res.Candidates)
	return res
}

func (b *Bridge) call(req Request) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("completion panic: %v", r)
		}
	}()
	return b.complete(req.Line, req.Start, req.End)
}

// Valid keeps the candidates that are well-formed UTF-8 without NUL bytes
// and returns them in NFC form.
func Valid(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !utf8.ValidString(c) || strings.IndexByte(c, 0) >= 0 {
			continue
		}
		out = append(out, norm.NFC.String(c))
	}
	return out
}

// LongestCommonPrefix returns the longest prefix shared by every
// candidate, cut back to a rune boundary. It is empty for no candidates.
func LongestCommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	shortest := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(shortest) {
			shortest = c
		}
	}

	n := len(shortest)
	for _, c := range candidates {
		i := 0
		for i < n && c[i] == shortest[i] {
			i++
		}
		n = i
	}

	prefix := shortest[:n]
	for len(prefix) > 0 && !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}
