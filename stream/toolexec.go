package stream

import (
	"context"

	"github.com/bigmoostache/tui-sub000/hashid"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
)

// reloadSentinel is the special ToolResult content a tool may return to
// request the reload sequence of §4.4.4 step 2. No built-in tool currently
// emits it; the hook exists for a future "reload" tool mirroring the
// ownership handoff of persist.Ownership.
const reloadSentinel = "__contextpilot_reload__"

// ExecuteTools runs every tool call in toolUses synchronously and in
// order (§4.4.4: "synchronously run every tool in order"), appends the
// ToolCall and ToolResult messages to st, and reports whether any tool
// requested a reload.
func ExecuteTools(ctx context.Context, st *state.State, registry *tool.Registry, toolUses []message.ToolUse) (reload bool) {
	if len(toolUses) == 0 {
		return false
	}

	callMsg := &message.Message{
		LocalID:     nextMessageLocalID(st, "T"),
		UID:         st.AllocateUID(),
		Role:        message.RoleAssistant,
		Kind:        message.KindToolCall,
		ToolUses:    toolUses,
		TimestampMs: st.NowMs(),
	}
	st.AddMessage(callMsg)

	results := make([]message.ToolResult, 0, len(toolUses))
	for _, tu := range toolUses {
		content, err := registry.Execute(tool.WithState(ctx, st), tu.Name, tu.Input)
		isError := err != nil
		if isError {
			content = err.Error()
		}
		if content == reloadSentinel {
			reload = true
		}
		results = append(results, message.ToolResult{
			ToolUseID: tu.ID,
			ToolName:  tu.Name,
			Content:   content,
			IsError:   isError,
		})
	}

	resultMsg := &message.Message{
		LocalID:     nextMessageLocalID(st, "R"),
		UID:         st.AllocateUID(),
		Role:        message.RoleUser,
		Kind:        message.KindToolResult,
		ToolResults: results,
		TimestampMs: st.NowMs(),
	}
	for _, r := range results {
		resultMsg.Content += r.Content
	}
	resultMsg.ContentTokenCount = message.EstimateTokens(resultMsg.Content)
	st.AddMessage(resultMsg)

	return reload
}

// nextMessageLocalID allocates the next role-prefixed message local ID
// (U<n>, A<n>, T<n>, R<n> per §3), a pure function of the currently used
// set mirroring hashid.NextLocalID's panel-ID allocation.
func nextMessageLocalID(st *state.State, prefix string) string {
	used := map[string]struct{}{}
	for _, m := range st.Messages() {
		used[m.LocalID] = struct{}{}
	}
	return hashid.NextLocalID(used, prefix)
}
