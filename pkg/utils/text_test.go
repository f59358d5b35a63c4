package utils

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit still gets ellipsis", "short", 200, "short..."},
		{"empty", "", 200, "..."},
		{"exact length", "abcde", 5, "abcde..."},
		{"cut", "abcdefgh", 3, "abc..."},
		{"multibyte counted as characters", "日本語のテキスト", 3, "日本語..."},
		{"zero", "abc", 0, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preview(tt.in, tt.n); got != tt.want {
				t.Errorf("Preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}

	long := strings.Repeat("a", 500)
	got := Preview(long, 200)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("long preview: len=%d", len(got))
	}
}
