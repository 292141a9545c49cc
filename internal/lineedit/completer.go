package lineedit

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// completer is the readline.AutoCompleter installed in the editor. The
// editor keeps it for its whole life; the bridge behind it changes with
// every ReadLine.
type completer struct {
	mu     sync.Mutex
	bridge *Bridge
}

func (c *completer) set(b *Bridge) {
	c.mu.Lock()
	c.bridge = b
	c.mu.Unlock()
}

func (c *completer) current() *Bridge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bridge
}

// Do implements readline.AutoCompleter. It returns the text to append to
// the token under the cursor and the token length in runes.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	b := c.current()
	if b == nil {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}
	text := string(line)
	res := b.Complete(text, len(string(line[:pos])))
	if res.Empty() {
		return nil, 0
	}
	return render(res, text[res.Start:res.End])
}

// render converts a result into readline's suffix form. Candidates that do
// not extend token cannot be shown and are left out. token is compared in
// NFC form, like the candidates; the length reported is that of the text
// in the buffer.
func render(res Result, typed string) ([][]rune, int) {
	n := utf8.RuneCountInString(typed)
	token := norm.NFC.String(typed)

	if len(res.Prefix) > len(token) && strings.HasPrefix(res.Prefix, token) && len(res.Candidates) > 1 {
		return [][]rune{[]rune(res.Prefix[len(token):])}, n
	}

	out := make([][]rune, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		suffix, ok := strings.CutPrefix(c, token)
		if !ok {
			continue
		}
		out = append(out, []rune(suffix))
	}
	if len(out) == 0 {
		return nil, 0
	}
	return out, n
}
