package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate("hello world", 8); got != "hello w…" {
		t.Fatalf("truncate long = %q", got)
	}
	if got := truncate("hello", 0); got != "" {
		t.Fatalf("truncate zero = %q", got)
	}
	if got := truncate("héllo wörld", 6); got != "héllo…" {
		t.Fatalf("truncate runes = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n\n  first  \nsecond"); got != "first" {
		t.Fatalf("firstLine = %q", got)
	}
	if got := firstLine("   "); got != "" {
		t.Fatalf("firstLine blank = %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		stamp string
		want  string
	}{
		{"2026-08-29T11:59:40Z", "now"},
		{"2026-08-29T11:30:00Z", "30m"},
		{"2026-08-29T06:00:00Z", "6h"},
		{"2026-08-26T12:00:00Z", "3d"},
		{"2026-08-29T11:30:00", "30m"}, // missing zone suffix
		{"garbage", "garbage"},
	}
	for _, tc := range cases {
		if got := relativeTime(tc.stamp, now); got != tc.want {
			t.Fatalf("relativeTime(%q) = %q, want %q", tc.stamp, got, tc.want)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "comment"); got != "1 comment" {
		t.Fatalf("plural(1) = %q", got)
	}
	if got := plural(2, "new post"); got != "2 new posts" {
		t.Fatalf("plural(2) = %q", got)
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(5, 0, 3); got != 3 {
		t.Fatalf("clamp above = %d", got)
	}
	if got := clamp(-1, 0, 3); got != 0 {
		t.Fatalf("clamp below = %d", got)
	}
	if got := clamp(2, 0, 3); got != 2 {
		t.Fatalf("clamp inside = %d", got)
	}
	if got := clamp(4, 2, 0); got != 2 {
		t.Fatalf("clamp inverted bounds = %d", got)
	}
}
