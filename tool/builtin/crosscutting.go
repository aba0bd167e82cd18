package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/tool"
)

// AskQuestionTool implements the §4.2 cross-cutting ask_question tool: the
// model's mechanism for pausing autonomous work and requesting direct user
// input, rendered by marking the pending user-facing question content.
type AskQuestionTool struct{}

func (AskQuestionTool) Name() string { return "ask_question" }

func (AskQuestionTool) Description() string {
	return "Ask the user a direct question and pause autonomous continuation until they answer."
}

func (AskQuestionTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type:       "object",
		Properties: map[string]tool.PropertyDef{"question": {Type: "string"}},
		Required:   []string{"question"},
	}
}

func (AskQuestionTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	sp := st.Spine()
	sp.AutonomousMode = false
	st.SetSpine(sp)
	return "question recorded; autonomous continuation paused until the user answers", nil
}

// ManageToolsTool implements the §4.2 cross-cutting manage_tools tool:
// toggle which tools are offered to the model, the "per-tool enabled
// flags" §4.4.1 step 4 refers to.
type ManageToolsTool struct {
	Registry *tool.Registry
}

func (ManageToolsTool) Name() string { return "manage_tools" }

func (ManageToolsTool) Description() string {
	return "Enable or disable a tool by name, controlling which tools are offered in future requests."
}

func (ManageToolsTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"tool_name": {Type: "string"},
			"enabled":   {Type: "boolean"},
		},
		Required: []string{"tool_name", "enabled"},
	}
}

func (t ManageToolsTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var params struct {
		ToolName string `json:"tool_name"`
		Enabled  bool   `json:"enabled"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	if !t.Registry.Has(params.ToolName) {
		return "", tool.ToolDiscard(fmt.Errorf("unknown tool: %s", params.ToolName))
	}
	if params.ToolName == "manage_tools" && !params.Enabled {
		return "", tool.ToolDiscard(fmt.Errorf("manage_tools cannot disable itself"))
	}
	t.Registry.SetEnabled(params.ToolName, params.Enabled)
	return fmt.Sprintf("tool %s enabled=%v", params.ToolName, params.Enabled), nil
}

// MessageStatusTool implements the §4.2 cross-cutting message_status
// tool: the model's mechanism for marking a transcript message Deleted,
// Detached, or Summarized ahead of the compaction path.
type MessageStatusTool struct{}

func (MessageStatusTool) Name() string { return "message_status" }

func (MessageStatusTool) Description() string {
	return "Change a transcript message's status: full, summarized, deleted, or detached."
}

func (MessageStatusTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"local_id": {Type: "string"},
			"status":   {Type: "string", Enum: []string{"full", "summarized", "deleted", "detached"}},
			"tl_dr":    {Type: "string", Description: "required when status is summarized"},
		},
		Required: []string{"local_id", "status"},
	}
}

func (MessageStatusTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		LocalID string `json:"local_id"`
		Status  string `json:"status"`
		TlDr    string `json:"tl_dr"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	var target *message.Message
	for _, m := range st.Messages() {
		if m.LocalID == params.LocalID {
			target = m
			break
		}
	}
	if target == nil {
		return "", tool.ToolDiscard(fmt.Errorf("no message with local id %s", params.LocalID))
	}
	status := message.Status(params.Status)
	if status == message.StatusSummarized {
		if params.TlDr == "" {
			return "", tool.ToolDiscard(fmt.Errorf("tl_dr is required when status is summarized"))
		}
		target.TlDr = params.TlDr
		target.TlDrTokenCount = message.EstimateTokens(params.TlDr)
	}
	target.Status = status
	return fmt.Sprintf("message %s status set to %s", params.LocalID, params.Status), nil
}
