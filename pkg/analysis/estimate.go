package analysis

import (
	"math"
	"unicode/utf8"

	"github.com/grovetools/swarmstat/pkg/models"
)

// Estimate returns the token usage of one message. Recorded counts are
// returned verbatim when either is non-zero; otherwise the usage is derived
// from the title and diff sizes and marked estimated.
func (h Heuristics) Estimate(m models.Message) models.Tokens {
	if m.Tokens != nil && (m.Tokens.Input > 0 || m.Tokens.Output > 0) {
		return models.Tokens{Input: m.Tokens.Input, Output: m.Tokens.Output}
	}

	titleLen := float64(utf8.RuneCountInString(m.Title))
	lines := 0
	for _, d := range m.Diffs {
		lines += d.Additions + d.Deletions
	}

	input := h.BaseContextTokens
	if m.Role == models.RoleUser {
		input = round(titleLen / h.CharsPerToken)
	}
	return models.Tokens{
		Input:     input,
		Output:    round((titleLen + float64(lines)*h.CharsPerDiffLine) / h.CharsPerToken),
		Estimated: true,
	}
}

// DiffTokens estimates the tokens written to files by m. Only added lines
// count.
func (h Heuristics) DiffTokens(m models.Message) int64 {
	added := 0
	for _, d := range m.Diffs {
		added += d.Additions
	}
	return round(float64(added) * h.DiffTokensPerLine())
}

// PayloadTokens converts a serialized payload length to tokens.
func (h Heuristics) PayloadTokens(byteLen int) int64 {
	return round(float64(byteLen) / h.CharsPerToken)
}

// round rounds half up, so 2.5 becomes 3.
func round(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int64(math.Floor(x + 0.5))
}
