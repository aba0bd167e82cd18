package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/tool"
)

// sendKeysTimeout bounds the tmux send-keys subprocess, matching the
// run-with-timeout convention of §5.
const sendKeysTimeout = 10 * time.Second

// TmuxSendTool sends keystrokes to a tmux pane backing a Tmux panel, then
// marks the panel deprecated so the next cache tick captures the result.
type TmuxSendTool struct{}

func (TmuxSendTool) Name() string { return "tmux_send" }

func (TmuxSendTool) Description() string {
	return "Send keystrokes to a tmux pane, followed by Enter."
}

func (TmuxSendTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"tmux_pane_id": {Type: "string"},
			"keys":         {Type: "string"},
		},
		Required: []string{"tmux_pane_id", "keys"},
	}
}

func (TmuxSendTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		TmuxPaneID string `json:"tmux_pane_id"`
		Keys       string `json:"keys"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	execCtx, cancel := context.WithTimeout(ctx, sendKeysTimeout)
	defer cancel()
	cmd := exec.CommandContext(execCtx, "tmux", "send-keys", "-t", params.TmuxPaneID, params.Keys, "Enter")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tmux send-keys: %w: %s", err, out)
	}
	for _, e := range st.PanelsByType(panel.TypeTmux) {
		if p, ok := e.Metadata["tmux_pane_id"].(string); ok && p == params.TmuxPaneID {
			e.MarkDeprecated()
		}
	}
	return fmt.Sprintf("sent keys to %s", params.TmuxPaneID), nil
}
