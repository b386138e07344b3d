package analysis

import (
	"fmt"

	"github.com/grovetools/swarmstat/pkg/models"
)

// FormatCount abbreviates counts of a thousand or more, e.g. 12.3k.
func FormatCount(n int64) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatTokens renders a token total, prefixed with ~ when estimated.
func FormatTokens(t models.Tokens) string {
	total := t.Total()
	if total == 0 {
		return "—"
	}
	s := FormatCount(total)
	if t.Estimated {
		return "~" + s
	}
	return s
}

// FormatDuration renders milliseconds as 850ms, 42s or 3m 5s.
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "—"
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	s := round(float64(ms) / 1000)
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm %ds", s/60, s%60)
}

// FormatRatio renders a token ratio as "n:1", or "—" when undefined.
func FormatRatio(ratio int64) string {
	if ratio <= 0 {
		return "—"
	}
	return fmt.Sprintf("%d:1", ratio)
}

// TokenRatio is total tokens over diff tokens, rounded; 0 when nothing was
// written.
func TokenRatio(total, diffTokens int64) int64 {
	if diffTokens <= 0 {
		return 0
	}
	return round(float64(total) / float64(diffTokens))
}
