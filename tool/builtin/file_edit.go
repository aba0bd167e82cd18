package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
)

// dirtyFilePanels flags every File panel whose file_path matches path so
// the cache engine picks up the change on its next tick, instead of
// waiting for the fsnotify watcher (which a tool-driven write may race).
func dirtyFilePanels(st *state.State, path string) {
	for _, e := range st.PanelsByType(panel.TypeFile) {
		if p, ok := e.Metadata["file_path"].(string); ok && (p == path || resolvePath(st.RepoPath(), p) == resolvePath(st.RepoPath(), path)) {
			e.MarkDeprecated()
		}
	}
}

// CreateTool implements the §4.2 file-editing "create" tool: write a new
// file, failing if one already exists at the path.
type CreateTool struct{}

func (CreateTool) Name() string { return "create" }

func (CreateTool) Description() string {
	return "Create a new file with the given content. Fails if the file already exists."
}

func (CreateTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"path":    {Type: "string"},
			"content": {Type: "string"},
		},
		Required: []string{"path", "content"},
	}
}

func (CreateTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
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
	if _, err := os.Stat(full); err == nil {
		return "", tool.ToolDiscard(fmt.Errorf("file already exists: %s", params.Path))
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return "", fmt.Errorf("create parent dirs: %w", err)
	}
	if err := os.WriteFile(full, []byte(params.Content), 0o600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	dirtyFilePanels(st, params.Path)
	return fmt.Sprintf("created %s (%d bytes)", params.Path, len(params.Content)), nil
}

// WriteTool implements the §4.2 file-editing "write" tool: overwrite a
// file's entire content, creating it if absent.
type WriteTool struct{}

func (WriteTool) Name() string { return "write" }

func (WriteTool) Description() string {
	return "Overwrite a file's entire content, creating it if it does not exist."
}

func (WriteTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"path":    {Type: "string"},
			"content": {Type: "string"},
		},
		Required: []string{"path", "content"},
	}
}

func (WriteTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
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
		return "", fmt.Errorf("write file: %w", err)
	}
	dirtyFilePanels(st, params.Path)
	return fmt.Sprintf("wrote %s (%d bytes)", params.Path, len(params.Content)), nil
}

// EditFileTool implements the §4.2 file-editing "edit_file" tool: an
// exact single-occurrence string replacement, the same contract terminal
// coding assistants use for targeted edits.
type EditFileTool struct{}

func (EditFileTool) Name() string { return "edit_file" }

func (EditFileTool) Description() string {
	return "Replace an exact, unique occurrence of old_string with new_string in an existing file."
}

func (EditFileTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"path":        {Type: "string"},
			"old_string":  {Type: "string"},
			"new_string":  {Type: "string"},
			"replace_all": {Type: "boolean", Default: false},
		},
		Required: []string{"path", "old_string", "new_string"},
	}
}

func (EditFileTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Path       string `json:"path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	full := resolvePath(st.RepoPath(), params.Path)
	raw, err := os.ReadFile(full)
	if err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("read %s: %w", params.Path, err))
	}
	content := string(raw)
	count := strings.Count(content, params.OldString)
	if count == 0 {
		return "", tool.ToolDiscard(fmt.Errorf("old_string not found in %s", params.Path))
	}
	if count > 1 && !params.ReplaceAll {
		return "", tool.ToolDiscard(fmt.Errorf("old_string is not unique in %s (%d occurrences); pass replace_all or add context", params.Path, count))
	}
	var updated string
	if params.ReplaceAll {
		updated = strings.ReplaceAll(content, params.OldString, params.NewString)
	} else {
		updated = strings.Replace(content, params.OldString, params.NewString, 1)
	}
	if err := os.WriteFile(full, []byte(updated), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", params.Path, err)
	}
	dirtyFilePanels(st, params.Path)
	return fmt.Sprintf("edited %s (%d replacement(s))", params.Path, replacementCount(params.ReplaceAll, count)), nil
}

func replacementCount(replaceAll bool, occurrences int) int {
	if replaceAll {
		return occurrences
	}
	return 1
}

func resolvePath(repoPath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repoPath, path)
}
