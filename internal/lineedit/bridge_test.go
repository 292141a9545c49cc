package lineedit

import (
	"errors"
	"reflect"
	"testing"
)

func TestLongestCommonPrefix(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"shared", []string{"cdroot", "cdpath", "cdup"}, "cd"},
		{"single", []string{"ls"}, "ls"},
		{"none", nil, ""},
		{"disjoint", []string{"git", "make"}, ""},
		{"shortest bounds", []string{"abc", "ab", "abd"}, "ab"},
		{"identical", []string{"echo", "echo"}, "echo"},
		{"empty candidate", []string{"", "abc"}, ""},
		{"rune boundary", []string{"café", "cafè"}, "caf"},
		{"multibyte shared", []string{"日本語", "日本"}, "日本"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestCommonPrefix(tt.candidates); got != tt.want {
				t.Errorf("LongestCommonPrefix(%q) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	in := []string{"ok", "bad\xff", "nul\x00byte", "café", ""}
	want := []string{"ok", "café", ""}
	if got := Valid(in); !reflect.DeepEqual(got, want) {
		t.Errorf("Valid() = %q, want %q", got, want)
	}
}

func TestNewRequest(t *testing.T) {
	tests := []struct {
		line      string
		end       int
		wantStart int
		wantLine  string
	}{
		{"ls", 2, 0, "ls"},
		{"cd /us", 6, 3, "cd /us"},
		{"git  co", 7, 5, "git  co"},
		{"echo a b", 6, 5, "echo a"},
		{"x", 10, 0, "x"},
		{"abc ", 4, 4, "abc "},
	}
	for _, tt := range tests {
		req := NewRequest(tt.line, tt.end)
		if req.Start != tt.wantStart || req.Line != tt.wantLine {
			t.Errorf("NewRequest(%q, %d) = %+v, want start %d line %q",
				tt.line, tt.end, req, tt.wantStart, tt.wantLine)
		}
	}
}

func TestBridge_Complete(t *testing.T) {
	var gotLine string
	var gotStart, gotEnd int
	b := NewBridge(func(line string, start, end int) ([]string, error) {
		gotLine, gotStart, gotEnd = line, start, end
		return []string{"cdroot", "cdpath", "bad\xff", "cdup"}, nil
	})

	res := b.Complete("echo cd", 7)

	if gotLine != "echo cd" || gotStart != 5 || gotEnd != 7 {
		t.Errorf("host called with (%q, %d, %d), want (\"echo cd\", 5, 7)", gotLine, gotStart, gotEnd)
	}
	want := []string{"cd", "cdroot", "cdpath", "cdup"}
	if !reflect.DeepEqual(res.Matches(), want) {
		t.Errorf("Matches() = %q, want %q", res.Matches(), want)
	}
}

func TestBridge_EmptyLineSkipsHost(t *testing.T) {
	called := false
	b := NewBridge(func(string, int, int) ([]string, error) {
		called = true
		return []string{"x"}, nil
	})

	res := b.Complete("", 0)
	if called {
		t.Error("host completion called for an empty line")
	}
	if !res.Empty() || res.Matches() != nil {
		t.Errorf("Complete(\"\") = %+v, want empty", res)
	}
}

func TestBridge_HostFaults(t *testing.T) {
	tests := []struct {
		name string
		fn   CompleteFunc
	}{
		{"error", func(string, int, int) ([]string, error) {
			return []string{"ignored"}, errors.New("boom")
		}},
		{"panic", func(string, int, int) ([]string, error) {
			panic("boom")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var faults []error
			b := NewBridge(tt.fn, WithFaultHandler(func(err error) { faults = append(faults, err) }))

			res := b.Complete("ls", 2)
			if !res.Empty() {
				t.Errorf("Complete() = %+v, want no candidates", res)
			}
			if len(faults) != 1 {
				t.Errorf("fault handler called %d times, want 1", len(faults))
			}
		})
	}
}

func TestBridge_NilFunc(t *testing.T) {
	if res := NewBridge(nil).Complete("ls", 2); !res.Empty() {
		t.Errorf("Complete() = %+v, want empty", res)
	}
}
