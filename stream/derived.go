// Package stream implements the Streaming Orchestrator of §4.4: request
// assembly, SSE consumption through a typewriter, tool execution, retry,
// and finalization, plus the turn loop that drives the spine controller
// between streams.
package stream

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/yuin/goldmark"
)

// RenderDerivedPanels recomputes cached_content for every needs_cache=false
// panel (§4.4.1 step 1's "refresh derived-from-state panels"): Conversation,
// Todo, Overview, Scratchpad, Spine. System is excluded — its content comes
// from config and is set once at bootstrap.
func RenderDerivedPanels(st *state.State) {
	for _, e := range st.Panels() {
		switch e.Type {
		case panel.TypeConversation:
			renderConversation(st, e)
		case panel.TypeTodo:
			renderTodo(st, e)
		case panel.TypeOverview:
			renderOverview(st, e)
		case panel.TypeScratchpad:
			renderScratchpad(e, st.NowMs())
		case panel.TypeSpine:
			renderSpine(st, e)
		}
	}
}

func setCachedContent(e *panel.Element, content string, nowMs int64) {
	e.CachedContent = content
	e.ContentHash = hashid.HashString(content)
	e.ContentLoaded = true
	e.CacheDeprecated = false
	e.CacheInFlight = false
	e.LastRefreshMs = nowMs
	e.FullTokenCount = message.EstimateTokens(content)
	e.TokenCount = e.FullTokenCount
	if e.TotalPages < 1 {
		e.TotalPages = 1
	}
	if e.CurrentPage >= e.TotalPages {
		e.CurrentPage = e.TotalPages - 1
	}
}

// renderConversation implements the §8 Conversation token-count law: the
// panel's token_count equals the sum of content_token_count across
// retained Full messages plus tl_dr_token_count across Summarized ones.
func renderConversation(st *state.State, e *panel.Element) {
	var b strings.Builder
	total := 0
	for _, m := range st.Messages() {
		if !m.IncludeInContext() {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.LocalID, m.Role, m.EffectiveContent())
		total += m.EffectiveTokenCount()
	}
	setCachedContent(e, b.String(), st.NowMs())
	e.TokenCount = total
	e.FullTokenCount = total
}

func renderTodo(st *state.State, e *panel.Element) {
	todo := st.Todo()
	var b strings.Builder
	for _, item := range todo.Items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] (%s) %s\n", mark, item.ID, item.Text)
	}
	setCachedContent(e, b.String(), st.NowMs())
}

// renderOverview assembles the Overview panel's markdown summary of the
// worker's panel set and todo progress, then side-renders it to HTML via
// goldmark for any presentation layer that wants it. cached_content itself
// stays plain Markdown per §4.1's "markdown parsing... excluded" boundary.
func renderOverview(st *state.State, e *panel.Element) {
	var b strings.Builder
	b.WriteString("# Overview\n\n")

	todo := st.Todo()
	done := 0
	for _, item := range todo.Items {
		if item.Done {
			done++
		}
	}
	fmt.Fprintf(&b, "Todos: %d/%d complete\n\n", done, len(todo.Items))

	b.WriteString("## Open panels\n\n")
	byType := map[panel.Type][]*panel.Element{}
	for _, p := range st.Panels() {
		byType[p.Type] = append(byType[p.Type], p)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "### %s\n", t)
		for _, p := range byType[panel.Type(t)] {
			fmt.Fprintf(&b, "- `%s` %s\n", p.LocalID, p.Name)
		}
	}

	md := b.String()
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(md), &html); err == nil {
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		e.Metadata["rendered_html"] = html.String()
	}
	setCachedContent(e, md, st.NowMs())
}

// renderScratchpad copies free-form content set directly via metadata: the
// panel "has no source" per §4.1, so there is nothing to derive.
func renderScratchpad(e *panel.Element, nowMs int64) {
	content, _ := e.Metadata["content"].(string)
	setCachedContent(e, content, nowMs)
}

func renderSpine(st *state.State, e *panel.Element) {
	sp := st.Spine()
	var b strings.Builder
	fmt.Fprintf(&b, "auto_continuation_count: %d\n", sp.AutoContinuationCount)
	fmt.Fprintf(&b, "autonomous_mode: %v\n", sp.AutonomousMode)
	if sp.Pending != nil {
		for _, n := range sp.Pending.Unprocessed() {
			fmt.Fprintf(&b, "- [%s] %s\n", n.SourceTag, n.Message)
		}
	}
	setCachedContent(e, b.String(), st.NowMs())
}
