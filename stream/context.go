package stream

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
)

// PreparedContext is the output of prepare_stream_context (§4.4.1): a
// ready-to-send request shape, independent of which model/params wrap it.
type PreparedContext struct {
	System   []anthropic.TextBlockParam
	Messages []anthropic.MessageParam
	Tools    []anthropic.ToolUnionParam
}

// PrepareStreamContext implements §4.4.1's four steps. includeLastMessage
// controls whether the trailing empty assistant message (the one about to
// receive the next stream's content) is sent; the orchestrator passes
// false when priming the message before the first token arrives is
// pointless, true on every other request.
func PrepareStreamContext(st *state.State, registry *tool.Registry, systemPrompt string, includeLastMessage bool) PreparedContext {
	RenderDerivedPanels(st)

	var system []anthropic.TextBlockParam
	if systemPrompt != "" {
		system = append(system, anthropic.TextBlockParam{Text: systemPrompt})
	}
	for _, e := range st.Panels() {
		if !e.ContentLoaded {
			continue
		}
		system = append(system, anthropic.TextBlockParam{
			Text: "### " + e.LocalID + " (" + e.Name + ")\n" + e.CachedContent,
		})
	}

	msgs := filterMessages(st.Messages(), includeLastMessage)
	msgs = dropOrphanedToolCalls(msgs)

	return PreparedContext{
		System:   system,
		Messages: buildAnthropicMessages(msgs),
		Tools:    registry.ToAnthropicToolUnions(),
	}
}

// filterMessages implements step 3's filtering, leaving tl_dr substitution
// to message.EffectiveContent at conversion time.
func filterMessages(all []*message.Message, includeLastMessage bool) []*message.Message {
	out := make([]*message.Message, 0, len(all))
	for _, m := range all {
		if !m.IncludeInContext() {
			continue
		}
		if !m.HasContentOrToolArtifacts() {
			continue
		}
		out = append(out, m)
	}
	if !includeLastMessage && len(out) > 0 {
		last := out[len(out)-1]
		if last.Role == message.RoleAssistant && last.Kind == message.KindText && last.Content == "" {
			out = out[:len(out)-1]
		}
	}
	return out
}

// dropOrphanedToolCalls implements the tool-call pairing rule: a ToolCall
// message survives only if a matching ToolResult exists somewhere in the
// same slice (order-independent, since a truncated stream can interleave
// retries before the matching result is ever persisted).
func dropOrphanedToolCalls(msgs []*message.Message) []*message.Message {
	resultIDs := map[string]struct{}{}
	for _, m := range msgs {
		for _, tr := range m.ToolResults {
			resultIDs[tr.ToolUseID] = struct{}{}
		}
	}
	out := make([]*message.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Kind != message.KindToolCall {
			out = append(out, m)
			continue
		}
		kept := m.ToolUses[:0:0]
		for _, tu := range m.ToolUses {
			if _, ok := resultIDs[tu.ID]; ok {
				kept = append(kept, tu)
			}
		}
		if len(kept) == 0 {
			continue
		}
		clone := *m
		clone.ToolUses = kept
		out = append(out, &clone)
	}
	return out
}

// buildAnthropicMessages converts the filtered transcript to the API's
// wire shape, merging consecutive same-role messages since the provider
// requires strict user/assistant alternation.
func buildAnthropicMessages(msgs []*message.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == message.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		blocks := messageBlocks(m)
		if len(blocks) == 0 {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == role {
			out[len(out)-1].Content = append(out[len(out)-1].Content, blocks...)
			continue
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func messageBlocks(m *message.Message) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	switch m.Kind {
	case message.KindText:
		if text := m.EffectiveContent(); text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(text))
		}
	case message.KindToolCall:
		for _, tu := range m.ToolUses {
			var input any
			if len(tu.Input) > 0 {
				_ = json.Unmarshal(tu.Input, &input)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(tu.ID, input, tu.Name))
		}
	case message.KindToolResult:
		for _, tr := range m.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolUseID, tr.Content, tr.IsError))
		}
	}
	return blocks
}

// panelShortcutPattern matches the context-shortcut grammar of §8's
// boundary behaviors: "p1", "P-12", "p_3" select a panel instead of
// starting a stream.
var panelShortcutPattern = regexp.MustCompile(`(?i)^p[-_]?(\d+)$`)

// MatchPanelShortcut reports whether input names a panel by its numeric
// local-ID suffix, returning the normalized local ID "p<n>" to look up in
// State.
func MatchPanelShortcut(input string) (string, bool) {
	m := panelShortcutPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", false
	}
	return "p" + m[1], true
}
