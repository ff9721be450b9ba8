package grouped_test

import (
	"testing"

	"github.com/jacentio/strata/grouped"
)

func TestNewCategorizer_SegmentCount(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected int
	}{
		{"no prefix", "", 1},
		{"single-segment prefix", "cfg", 2},
		{"two-segment prefix", "app:cfg", 3},
		{"three-segment prefix", "a:b:c", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := grouped.NewCategorizer(tt.prefix)
			if c.Segments() != tt.expected {
				t.Errorf("prefix %q: expected %d segments, got %d", tt.prefix, tt.expected, c.Segments())
			}
		})
	}
}

func TestCategorizer_Categorize(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		key      string
		expected string
		ok       bool
	}{
		{"no prefix, first segment", "", "A:x", "A", true},
		{"no prefix, single segment key", "", "A", "A", true},
		{"no prefix, empty key", "", "", "", false},
		{"prefix, document group", "cfg", "cfg:A:x", "cfg:A", true},
		{"prefix, exact group key", "cfg", "cfg:A", "cfg:A", true},
		{"prefix, too short", "cfg", "cfg", "", false},
		{"two-segment prefix", "app:cfg", "app:cfg:A:host", "app:cfg:A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := grouped.NewCategorizer(tt.prefix)
			group, ok := c.Categorize(tt.key)
			if ok != tt.ok {
				t.Fatalf("Categorize(%q): expected ok=%v, got %v", tt.key, tt.ok, ok)
			}
			if group != tt.expected {
				t.Errorf("Categorize(%q): expected %q, got %q", tt.key, tt.expected, group)
			}
		})
	}
}

func TestCategorizer_Deterministic(t *testing.T) {
	c := grouped.NewCategorizer("cfg")
	first, ok := c.Categorize("cfg:doc-1:db:host")
	if !ok {
		t.Fatal("expected key to categorize")
	}
	for i := 0; i < 100; i++ {
		again, ok := c.Categorize("cfg:doc-1:db:host")
		if !ok || again != first {
			t.Fatalf("expected stable group %q, got %q (ok=%v)", first, again, ok)
		}
	}
}

func TestCategorizer_ZeroValue(t *testing.T) {
	var c grouped.Categorizer
	if c.Segments() != 1 {
		t.Errorf("expected zero-value categorizer to use 1 segment, got %d", c.Segments())
	}
	group, ok := c.Categorize("a:b")
	if !ok || group != "a" {
		t.Errorf("expected group 'a', got %q (ok=%v)", group, ok)
	}
}
