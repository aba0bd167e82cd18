package builtin

import "github.com/bigmoostache/tui-sub000/tool"

// All returns every built-in tool, ready for Registry.RegisterAll. The
// manage_tools tool needs a handle to the registry it controls, so
// callers construct the registry first and pass it here.
func All(registry *tool.Registry) []tool.Tool {
	return []tool.Tool{
		OpenPanelTool{},
		ClosePanelTool{},
		RefreshPanelTool{},
		PanelGotoPageTool{},
		CreateTool{},
		WriteTool{},
		EditFileTool{},
		AskQuestionTool{},
		ManageToolsTool{Registry: registry},
		MessageStatusTool{},
		TodoAddTool{},
		TodoToggleTool{},
		MemoryWriteTool{},
		TmuxSendTool{},
		ConsoleStartTool{},
		GitRunTool{},
		GithubRunTool{},
	}
}
