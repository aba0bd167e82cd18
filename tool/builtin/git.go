package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/tool"
)

// GitRunTool implements the §4.1 GitResult panel's one-shot mutating
// operation: run a git subcommand and open a panel capturing its output.
type GitRunTool struct{}

func (GitRunTool) Name() string { return "git_run" }

func (GitRunTool) Description() string {
	return "Run a git subcommand and open a GitResult panel capturing its output."
}

func (GitRunTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"args": {Type: "array", Items: &tool.PropertyDef{Type: "string"}, Description: `e.g. ["commit", "-m", "message"]`},
			"name": {Type: "string"},
		},
		Required: []string{"args"},
	}
}

func (GitRunTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Args []string `json:"args"`
		Name string   `json:"name"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	if len(params.Args) == 0 {
		return "", tool.ToolDiscard(fmt.Errorf("args must not be empty"))
	}
	if params.Name == "" {
		params.Name = "git " + params.Args[0]
	}
	e := st.OpenPanel(panel.TypeGitResult, params.Name, map[string]any{
		"result_command": "git",
		"result_args":    params.Args,
		"dir":            st.RepoPath(),
	})
	return fmt.Sprintf("opened GitResult panel %s, pending first refresh", e.LocalID), nil
}

// GithubRunTool implements the §4.1 GithubResult panel's one-shot
// mutating operation. Requires GITHUB_TOKEN to be set in the worker's
// environment per the panel's metadata highlight.
type GithubRunTool struct{}

func (GithubRunTool) Name() string { return "github_run" }

func (GithubRunTool) Description() string {
	return "Run a gh subcommand and open a GithubResult panel capturing its output. Requires GITHUB_TOKEN."
}

func (GithubRunTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"args": {Type: "array", Items: &tool.PropertyDef{Type: "string"}, Description: `e.g. ["pr", "list"]`},
			"name": {Type: "string"},
		},
		Required: []string{"args"},
	}
}

func (GithubRunTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	if os.Getenv("GITHUB_TOKEN") == "" {
		return "", tool.ToolCancel(fmt.Errorf("GITHUB_TOKEN is not set"))
	}
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Args []string `json:"args"`
		Name string   `json:"name"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	if len(params.Args) == 0 {
		return "", tool.ToolDiscard(fmt.Errorf("args must not be empty"))
	}
	if params.Name == "" {
		params.Name = "gh " + params.Args[0]
	}
	e := st.OpenPanel(panel.TypeGithubResult, params.Name, map[string]any{
		"result_command": "gh",
		"result_args":    params.Args,
		"dir":            st.RepoPath(),
	})
	return fmt.Sprintf("opened GithubResult panel %s, pending first refresh", e.LocalID), nil
}
