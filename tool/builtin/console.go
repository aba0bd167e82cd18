package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/tool"
)

// ConsoleStartTool launches a long-lived subprocess and opens a Console
// panel over it. Output is captured by a background goroutine into the
// session's ConsoleRing (§5's "process watchers"), read back by
// consoleHooks.ApplyCacheUpdate on the next cache tick.
type ConsoleStartTool struct{}

func (ConsoleStartTool) Name() string { return "console_start" }

func (ConsoleStartTool) Description() string {
	return "Start a long-lived subprocess and open a Console panel streaming its output."
}

func (ConsoleStartTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"command": {Type: "string"},
			"args":    {Type: "array", Items: &tool.PropertyDef{Type: "string"}},
			"name":    {Type: "string"},
		},
		Required: []string{"command"},
	}
}

func (ConsoleStartTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
		Name    string   `json:"name"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	if params.Name == "" {
		params.Name = params.Command
	}

	pr, pw := io.Pipe()
	cmd := exec.Command(params.Command, params.Args...)
	cmd.Dir = st.RepoPath()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return "", tool.ToolDiscard(fmt.Errorf("start %s: %w", params.Command, err))
	}

	e := st.OpenPanel(panel.TypeConsole, params.Name, map[string]any{})
	sessionID := e.UID.String()
	e.Metadata["console_session_id"] = sessionID

	ring := st.ConsoleRingFor(sessionID)
	go pumpConsoleOutput(pr, ring)
	go func() {
		_ = cmd.Wait()
		pw.Close()
	}()

	return fmt.Sprintf("started console %s (session %s)", e.LocalID, sessionID), nil
}

func pumpConsoleOutput(r io.Reader, ring interface{ Append(string) }) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			ring.Append(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}
