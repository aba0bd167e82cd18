package compaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
	"github.com/bigmoostache/tui-sub000/tool/builtin"
)

// cleanerToolNames is the restricted set of tools a cleaning sub-turn may
// call, mirroring the original implementation's CLEANER_TOOL_IDS: enough to
// shrink context (close panels, collapse messages, adjust todos/memories)
// without letting the cleaner take unrelated action.
var cleanerToolNames = map[string]bool{
	"close_panel":    true,
	"message_status": true,
	"todo_add":       true,
	"todo_toggle":    true,
	"memory_write":   true,
}

// Tools builds a registry containing only the tools a cleaning sub-turn is
// allowed to call. Built-in tools read state through context, not through
// constructor arguments, so this registry can be handed a fresh set of tool
// values independent of the caller's main registry.
func Tools() (*tool.Registry, error) {
	registry := tool.NewRegistry()
	for _, t := range builtin.All(registry) {
		if !cleanerToolNames[t.Name()] {
			continue
		}
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("compaction: building cleaner registry: %w", err)
		}
	}
	return registry, nil
}

// Usage sums the token footprint currently occupied by context: every
// loaded panel's TokenCount plus every in-context message's
// EffectiveTokenCount.
func Usage(st *state.State) int {
	total := 0
	for _, e := range st.Panels() {
		total += e.TokenCount
	}
	for _, m := range st.Messages() {
		if !m.IncludeInContext() {
			continue
		}
		total += m.EffectiveTokenCount()
	}
	return total
}

// ShouldClean reports whether context usage has crossed cfg's trigger
// threshold.
func ShouldClean(st *state.State, cfg Config) bool {
	return Usage(st) >= cfg.TriggerTokens()
}

// Overview renders the context summary the cleaning sub-turn sees in place
// of the normal system prompt: every open panel with its size class, every
// message with a content preview and status, and the current usage figures.
// Grounded on the original implementation's build_cleaner_context.
func Overview(st *state.State, cfg Config) string {
	var b strings.Builder
	b.WriteString("=== CONTEXT OVERVIEW ===\n\n")

	b.WriteString("## Context Elements:\n")
	for _, e := range st.Panels() {
		b.WriteString(fmt.Sprintf("%s %s [%s] %s (%d tokens)\n",
			sizeIndicator(e.TokenCount), e.LocalID, e.Type, e.Name, e.TokenCount))
	}

	b.WriteString("\n## Messages:\n")
	for _, m := range st.Messages() {
		preview := previewOf(m.EffectiveContent(), 80)
		b.WriteString(fmt.Sprintf("%s [%s] %s (%d tokens, %s) - %q\n",
			m.LocalID, m.Role, m.Kind, m.EffectiveTokenCount(), m.Status, preview))
	}

	todo := st.Todo()
	if len(todo.Items) > 0 {
		b.WriteString("\n## Todos:\n")
		items := append([]state.TodoItem(nil), todo.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
		for _, item := range items {
			mark := " "
			if item.Done {
				mark = "x"
			}
			b.WriteString(fmt.Sprintf("%s [%s] %s\n", item.ID, mark, item.Text))
		}
	}

	current := Usage(st)
	b.WriteString(fmt.Sprintf("\n## Usage: %d / %d budget (%.1f%%)\n",
		current, cfg.ContextBudget, 100*float64(current)/float64(cfg.ContextBudget)))
	b.WriteString(fmt.Sprintf("## Threshold: %d tokens (%.0f%%)\n", cfg.TriggerTokens(), cfg.Trigger*100))
	b.WriteString(fmt.Sprintf("## Target: reduce to %d tokens (%.0f%%)\n", cfg.TargetTokens(), cfg.Target*100))

	return b.String()
}

// SystemPrompt builds the cleaning sub-turn's system prompt, grounded on the
// original implementation's get_cleaner_system_prompt.
func SystemPrompt(st *state.State, cfg Config) string {
	current := Usage(st)
	target := cfg.TargetTokens()
	toRemove := current - target
	if toRemove < 0 {
		toRemove = 0
	}
	return fmt.Sprintf(cleanerSystemTemplate, current, target, toRemove)
}

const cleanerSystemTemplate = `You are managing the context window of a coding assistant.

Context usage is currently %d tokens; the target is %d tokens
(%d tokens need to be freed).

Use close_panel to drop context elements that are no longer relevant,
message_status to mark old messages summarized (providing a concise tl_dr)
or deleted, and todo_add/todo_toggle/memory_write to keep the task list and
long-term notes accurate as you trim. Work through the overview below and
stop once the target is reached.`

func sizeIndicator(tokens int) string {
	switch {
	case tokens > 10000:
		return "[LARGE]"
	case tokens > 5000:
		return "[MEDIUM]"
	default:
		return "[SMALL]"
	}
}

func previewOf(content string, n int) string {
	content = strings.ReplaceAll(content, "\n", " ")
	r := []rune(content)
	if len(r) <= n {
		return content
	}
	return string(r[:n]) + "..."
}
