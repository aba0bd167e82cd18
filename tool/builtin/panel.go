package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/tool"
)

func panelTypeEnum() []string {
	all := panel.AllTypes()
	out := make([]string, len(all))
	for i, t := range all {
		out[i] = string(t)
	}
	return out
}

func isKnownType(t panel.Type) bool {
	for _, known := range panel.AllTypes() {
		if known == t {
			return true
		}
	}
	return false
}

// OpenPanelTool implements the generic "open" mutating operation every
// panel type gets per §4.2: allocate identifiers, attach metadata, and
// schedule an immediate refresh (panel.New starts cache_deprecated).
type OpenPanelTool struct{}

func (OpenPanelTool) Name() string { return "open_panel" }

func (OpenPanelTool) Description() string {
	return "Open a new context panel of the given type with the given metadata, making it visible in the model's context."
}

func (OpenPanelTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"panel_type": {Type: "string", Enum: panelTypeEnum(), Description: "panel type to open"},
			"name":       {Type: "string", Description: "display name for the panel"},
			"metadata":   {Type: "object", Description: "type-specific metadata, e.g. file_path for a File panel"},
		},
		Required: []string{"panel_type", "name"},
	}
}

func (OpenPanelTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		PanelType string         `json:"panel_type"`
		Name      string         `json:"name"`
		Metadata  map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	t := panel.Type(params.PanelType)
	if !isKnownType(t) {
		return "", tool.ToolDiscard(fmt.Errorf("unknown panel type: %s", params.PanelType))
	}
	e := st.OpenPanel(t, params.Name, params.Metadata)
	return fmt.Sprintf("opened panel %s (%s)", e.LocalID, e.Type), nil
}

// ClosePanelTool implements the generic "close" mutating operation.
type ClosePanelTool struct{}

func (ClosePanelTool) Name() string { return "close_panel" }

func (ClosePanelTool) Description() string {
	return "Close a panel by its local ID, removing it from the model's context."
}

func (ClosePanelTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type:       "object",
		Properties: map[string]tool.PropertyDef{"local_id": {Type: "string"}},
		Required:   []string{"local_id"},
	}
}

func (ClosePanelTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		LocalID string `json:"local_id"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	e, ok := st.PanelByLocalID(params.LocalID)
	if !ok {
		return "", tool.ToolDiscard(fmt.Errorf("no panel with local id %s", params.LocalID))
	}
	st.RemovePanel(e.UID)
	return fmt.Sprintf("closed panel %s", params.LocalID), nil
}

// RefreshPanelTool implements the generic "refresh" mutating operation:
// mark a panel cache_deprecated so the next scheduler tick recomputes it.
type RefreshPanelTool struct{}

func (RefreshPanelTool) Name() string { return "refresh_panel" }

func (RefreshPanelTool) Description() string {
	return "Force a panel to recompute its content on the next cache tick."
}

func (RefreshPanelTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type:       "object",
		Properties: map[string]tool.PropertyDef{"local_id": {Type: "string"}},
		Required:   []string{"local_id"},
	}
}

func (RefreshPanelTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		LocalID string `json:"local_id"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	e, ok := st.PanelByLocalID(params.LocalID)
	if !ok {
		return "", tool.ToolDiscard(fmt.Errorf("no panel with local id %s", params.LocalID))
	}
	e.MarkDeprecated()
	return fmt.Sprintf("marked panel %s for refresh", params.LocalID), nil
}

// PanelGotoPageTool implements the §4.2 cross-cutting panel_goto_page tool:
// move a paginated panel's current_page, clamped to its total page count.
type PanelGotoPageTool struct{}

func (PanelGotoPageTool) Name() string { return "panel_goto_page" }

func (PanelGotoPageTool) Description() string {
	return "Move a panel's current page, for panels whose content spans more than one page."
}

func (PanelGotoPageTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"local_id": {Type: "string"},
			"page":     {Type: "integer", Description: "zero-based page index"},
		},
		Required: []string{"local_id", "page"},
	}
}

func (PanelGotoPageTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		LocalID string `json:"local_id"`
		Page    int    `json:"page"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	e, ok := st.PanelByLocalID(params.LocalID)
	if !ok {
		return "", tool.ToolDiscard(fmt.Errorf("no panel with local id %s", params.LocalID))
	}
	page := params.Page
	if page < 0 {
		page = 0
	}
	if page >= e.TotalPages {
		page = e.TotalPages - 1
	}
	e.CurrentPage = page
	return fmt.Sprintf("panel %s now on page %d/%d", params.LocalID, e.CurrentPage, e.TotalPages), nil
}
