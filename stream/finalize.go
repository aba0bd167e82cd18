package stream

import (
	"regexp"

	"github.com/bigmoostache/tui-sub000/sse"
)

// idPrefixArtifact matches a mistaken "[A12]:" style ID-prefix the model
// sometimes echoes back at the start of its own text, imitating the
// system's "[A<n>]: assistant text" convention from a prior turn in
// context. §4.4.5 requires stripping these before the content is stored.
var idPrefixArtifact = regexp.MustCompile(`^\[[A-Za-z]\d+\]:\s*`)

// StripIDPrefixArtifact removes a single leading ID-prefix artifact, if
// present, from assistant text.
func StripIDPrefixArtifact(text string) string {
	return idPrefixArtifact.ReplaceAllString(text, "")
}

// Telemetry accumulates the per-stream and per-session counters §4.4.5
// requires: cache-hit tokens, cache-miss tokens, output tokens, and the
// derived USD cost the spine's cost-cap guard rail reads.
type Telemetry struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int

	// CostPerInputToken/CostPerOutputToken are the provider's published
	// per-token USD rates, set once at construction from the active
	// model's pricing.
	CostPerInputToken  float64
	CostPerOutputToken float64
}

// Accumulate folds one stream's usage into the running totals.
func (t *Telemetry) Accumulate(u sse.Usage) {
	t.InputTokens += u.InputTokens
	t.OutputTokens += u.OutputTokens
	t.CacheCreationInputTokens += u.CacheCreationInputTokens
	t.CacheReadInputTokens += u.CacheReadInputTokens
}

// CostUSD estimates the session's accumulated spend, the SessionCostUSD
// input to spine.Snapshot's cost-cap guard rail.
func (t *Telemetry) CostUSD() float64 {
	return float64(t.InputTokens)*t.CostPerInputToken + float64(t.OutputTokens)*t.CostPerOutputToken
}
