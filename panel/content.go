package panel

import (
	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/message"
)

// PageTokenBudget is the per-panel page budget in estimated tokens before
// content is split across pages (§3 current_page/total_pages).
const PageTokenBudget = 4000

// applyContent absorbs a Content/ModuleSpecific update's generic content
// payload into e per the §4.2.2 apply semantics shared by every cache-
// backed panel type. Returns true if the panel's visible content changed.
func applyContent(u Update, e *Element, mods ModuleStore) bool {
	now := mods.NowMs()

	if u.Kind == UpdateUnchanged || !u.HasContent {
		e.CacheInFlight = false
		e.LastRefreshMs = now
		return false
	}

	newHash := hashid.HashString(u.Content)
	if e.ContentLoaded && newHash == e.ContentHash {
		// §4.2.2 step 1: identical content is a no-op; do not advance
		// last_refresh_ms, only clear the in-flight flag.
		e.CacheInFlight = false
		return false
	}

	e.CachedContent = u.Content
	e.ContentLoaded = true
	e.ContentHash = newHash
	if u.NewSourceHash != "" {
		e.SourceHash = u.NewSourceHash
	}
	paginate(e, u.Content)
	e.LastRefreshMs = now
	e.CacheDeprecated = false
	e.CacheInFlight = false
	return true
}

// paginate recomputes full_token_count/total_pages/token_count for e given
// the full content string, preserving current_page when it still fits
// within the recomputed page count (§5.1's resolved Open Question:
// repagination always uses the *current* page-size constant).
func paginate(e *Element, content string) {
	full := message.EstimateTokens(content)
	e.FullTokenCount = full

	pages := 1
	if full > 0 {
		pages = (full + PageTokenBudget - 1) / PageTokenBudget
		if pages < 1 {
			pages = 1
		}
	}
	e.TotalPages = pages
	if e.CurrentPage >= pages {
		e.CurrentPage = pages - 1
	}
	if e.CurrentPage < 0 {
		e.CurrentPage = 0
	}

	if full <= PageTokenBudget {
		e.TokenCount = full
		return
	}
	// Clamp the displayed token count to one page's worth; the displayed
	// cached_content itself is still the full string (pagination is a
	// token-accounting and rendering concern handled by the presenter,
	// out of scope per §1) so token_count <= full_token_count holds.
	e.TokenCount = PageTokenBudget
}
