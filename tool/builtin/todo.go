package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
)

// TodoAddTool appends an item to the Todo panel's module substate. The
// Todo panel itself renders directly from State (needs_cache: false per
// §4.1), so no cache refresh is involved.
type TodoAddTool struct{}

func (TodoAddTool) Name() string { return "todo_add" }

func (TodoAddTool) Description() string { return "Add an item to the todo list." }

func (TodoAddTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type:       "object",
		Properties: map[string]tool.PropertyDef{"text": {Type: "string"}},
		Required:   []string{"text"},
	}
}

func (TodoAddTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	todo := st.Todo()
	id := strconv.Itoa(len(todo.Items))
	todo.Items = append(todo.Items, state.TodoItem{ID: id, Text: params.Text, AddedAt: st.NowMs()})
	st.SetTodo(todo)
	return fmt.Sprintf("added todo %s", id), nil
}

// TodoToggleTool flips a todo item's Done flag by ID.
type TodoToggleTool struct{}

func (TodoToggleTool) Name() string { return "todo_toggle" }

func (TodoToggleTool) Description() string { return "Toggle a todo item's done state." }

func (TodoToggleTool) InputSchema() tool.ToolSchema {
	return tool.ToolSchema{
		Type:       "object",
		Properties: map[string]tool.PropertyDef{"id": {Type: "string"}},
		Required:   []string{"id"},
	}
}

func (TodoToggleTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	var params struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", tool.ToolDiscard(fmt.Errorf("invalid input: %w", err))
	}
	todo := st.Todo()
	found := false
	for i := range todo.Items {
		if todo.Items[i].ID == params.ID {
			todo.Items[i].Done = !todo.Items[i].Done
			found = true
			break
		}
	}
	if !found {
		return "", tool.ToolDiscard(fmt.Errorf("no todo item with id %s", params.ID))
	}
	st.SetTodo(todo)
	return fmt.Sprintf("toggled todo %s", params.ID), nil
}
