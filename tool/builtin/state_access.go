// Package builtin implements the concrete tool.Tool registry entries of
// SPEC_FULL.md §4.2's tool catalog: the mutating open/close/refresh
// operations for each panel type, the cross-cutting tools, and the
// file-editing tools.
package builtin

import (
	"context"
	"fmt"

	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
)

// stateFrom extracts the *state.State a tool.Execute call mutates, per
// §4.2's "Execute mutates State" contract. Every builtin tool calls this
// first; a missing or wrong-typed state handle is a host wiring bug, not
// a user-facing tool error, so it is surfaced as ToolDiscard.
func stateFrom(ctx context.Context) (*state.State, error) {
	v, ok := tool.GetState(ctx)
	if !ok {
		return nil, tool.ToolDiscard(fmt.Errorf("no state attached to context"))
	}
	st, ok := v.(*state.State)
	if !ok {
		return nil, tool.ToolDiscard(fmt.Errorf("context state is %T, not *state.State", v))
	}
	return st, nil
}
