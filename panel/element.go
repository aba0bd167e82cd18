package panel

import (
	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/message"
)

// Element is the ContextElement record of §3: the central, typed,
// refreshable unit of content included in the model's request context.
type Element struct {
	LocalID string     `json:"local_id" yaml:"local_id"`
	UID     hashid.UID `json:"uid" yaml:"uid"`
	Type    Type       `json:"type" yaml:"type"`
	Name    string     `json:"name" yaml:"name"`

	Metadata map[string]any `json:"metadata" yaml:"metadata"`

	TokenCount     int `json:"token_count" yaml:"token_count"`
	FullTokenCount int `json:"full_token_count" yaml:"full_token_count"`
	CurrentPage    int `json:"current_page" yaml:"current_page"`
	TotalPages     int `json:"total_pages" yaml:"total_pages"`

	CachedContent string `json:"cached_content" yaml:"cached_content"`
	ContentLoaded bool   `json:"content_loaded" yaml:"content_loaded"`

	SourceHash  string `json:"source_hash" yaml:"source_hash"`
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	CacheDeprecated bool `json:"cache_deprecated" yaml:"cache_deprecated"`
	CacheInFlight   bool `json:"cache_in_flight" yaml:"cache_in_flight"`

	LastRefreshMs int64 `json:"last_refresh_ms" yaml:"last_refresh_ms"`
	LastPolledMs  int64 `json:"last_polled_ms" yaml:"last_polled_ms"`

	PanelCacheHit   int     `json:"panel_cache_hit" yaml:"panel_cache_hit"`
	PanelTotalCost  float64 `json:"panel_total_cost" yaml:"panel_total_cost"`

	// HistoryMessages is populated only for ConversationHistory panels,
	// which own an archived sequence of messages (§3).
	HistoryMessages []*message.Message `json:"history_messages,omitempty" yaml:"history_messages,omitempty"`
}

// New constructs a panel in its freshly-created state: cache_deprecated is
// true and cached_content is unloaded, scheduling an immediate refresh per
// §3's Lifecycle rule.
func New(localID string, uid hashid.UID, typ Type, name string, metadata map[string]any) *Element {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Element{
		LocalID:         localID,
		UID:             uid,
		Type:            typ,
		Name:            name,
		Metadata:        metadata,
		TotalPages:      1,
		CacheDeprecated: true,
	}
}

// CheckInvariants validates the §3 invariants that must hold for any panel
// at rest (i.e. not mid-refresh). It is used by tests and may be called
// defensively after any mutation.
func (e *Element) CheckInvariants() []string {
	var violations []string
	if e.ContentLoaded {
		if !e.CacheDeprecated && !e.CacheInFlight {
			if got := hashid.HashString(e.CachedContent); got != e.ContentHash {
				violations = append(violations, "content_hash does not match H(cached_content)")
			}
		}
	}
	if e.TokenCount > e.FullTokenCount {
		violations = append(violations, "token_count exceeds full_token_count")
	}
	if e.TotalPages < 1 {
		violations = append(violations, "total_pages must be >= 1")
	}
	if e.CurrentPage >= e.TotalPages {
		violations = append(violations, "current_page must be < total_pages")
	}
	meta := Meta(e.Type)
	if meta.HasUID && e.UID.IsZero() {
		violations = append(violations, "non-System panel must have a UID")
	}
	if !meta.HasUID && !e.UID.IsZero() {
		violations = append(violations, "System panel must not have a UID")
	}
	return violations
}

// MarkDeprecated sets cache_deprecated. Idempotent and safe to call
// regardless of current state, satisfying the "commutative dirtying" law
// of §8 (marking one panel dirty never depends on another's state).
func (e *Element) MarkDeprecated() {
	e.CacheDeprecated = true
}
