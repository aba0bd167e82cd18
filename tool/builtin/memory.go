package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/tool"
)

// MemoryWriteTool implements the Memory panel's mutating operation: the
// panel is "manually invalidated" per §4.1, meaning there is no watcher or
// timer driving its refresh, so writes must explicitly mark it deprecated.
type MemoryWriteTool struct{}

func (MemoryWriteTool) Name() string { return "memory_write" }

func (MemoryWriteTool) Description() string {
	return "Write persistent notes to the memory file backing a Memory panel."
}

func (MemoryWriteTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"path":    {Type: "string"},
			"content": {Type: "string"},
		},
		Required: []string{"path", "content"},
	}
}

func (MemoryWriteTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	full := resolvePath(st.RepoPath(), params.Path)
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return "", fmt.Errorf("create parent dirs: %w", err)
	}
	if err := os.WriteFile(full, []byte(params.Content), 0o600); err != nil {
		return "", fmt.Errorf("write memory file: %w", err)
	}
	for _, e := range st.PanelsByType(panel.TypeMemory) {
		if p, ok := e.Metadata["memory_path"].(string); ok && p == params.Path {
			e.MarkDeprecated()
		}
	}
	return fmt.Sprintf("wrote memory %s (%d bytes)", params.Path, len(params.Content)), nil
}
