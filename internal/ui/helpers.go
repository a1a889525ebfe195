package ui

import (
	"fmt"
	"strings"
	"time"
)

// truncate truncates a string to max runes with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// firstLine collapses a multi-line string into its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// relativeTime renders an RFC 3339 timestamp as a short age like "5m".
// Unparseable input falls back to the raw clock portion.
func relativeTime(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		// Some servers omit the zone suffix.
		t, err = time.Parse("2006-01-02T15:04:05", stamp)
		if err != nil {
			if len(stamp) >= 16 {
				return stamp[11:16]
			}
			return stamp
		}
	}
	return humanizeDuration(now.Sub(t))
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}

// plural appends "s" for counts other than one.
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
