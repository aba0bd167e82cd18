// Package turnstate defines the Streaming Orchestrator's turn state
// machine: one turn is the cycle from the user's submit to a terminal stop
// or a spine-driven continuation.
//
//	Idle -> PreparingContext -> Streaming -> Finalizing -> Idle
//	                                |            |
//	                                |            +-> ExecutingTools -> WaitingForPanels -> PreparingContext
//	                                +-> Retrying -> Streaming
//	                                +-> Error -> Idle
//
// Terminal in the sense of "resting" is only Idle; every other state
// always has exactly one successor chosen deterministically by the
// orchestrator or the spine controller.
package turnstate

import "fmt"

// TurnState is the orchestrator's current position in the turn cycle.
type TurnState string

const (
	// StateIdle: no turn in progress, waiting for user input or a spine
	// relaunch.
	StateIdle TurnState = "idle"

	// StatePreparingContext: refreshing derived-state panels and
	// assembling the next request.
	StatePreparingContext TurnState = "preparing_context"

	// StateStreaming: SSE connection open, typewriter releasing deltas.
	StateStreaming TurnState = "streaming"

	// StateRetrying: a transport/decode failure occurred and a bounded
	// retry is in flight; partial assistant content has been cleared.
	StateRetrying TurnState = "retrying"

	// StateError: retries exhausted; the failure has been logged to a
	// numbered file and the assistant message replaced with a pointer.
	StateError TurnState = "error"

	// StateFinalizing: typewriter flushed, actual token counts assigned.
	StateFinalizing TurnState = "finalizing"

	// StateExecutingTools: running every requested tool call in order.
	StateExecutingTools TurnState = "executing_tools"

	// StateWaitingForPanels: the §4.2.4 wait-for-loaded protocol is
	// spinning the event loop until async-wait panels settle.
	StateWaitingForPanels TurnState = "waiting_for_panels"
)

// AllStates returns every state in the machine.
func AllStates() []TurnState {
	return []TurnState{
		StateIdle, StatePreparingContext, StateStreaming, StateRetrying,
		StateError, StateFinalizing, StateExecutingTools, StateWaitingForPanels,
	}
}

// IsValid reports whether s is a known state.
func (s TurnState) IsValid() bool {
	switch s {
	case StateIdle, StatePreparingContext, StateStreaming, StateRetrying,
		StateError, StateFinalizing, StateExecutingTools, StateWaitingForPanels:
		return true
	default:
		return false
	}
}

// IsResting reports whether the orchestrator has nothing in flight and is
// simply waiting for a user submit or a spine relaunch.
func (s TurnState) IsResting() bool {
	return s == StateIdle
}

// CanTransitionTo reports whether s -> target is a legal edge of the
// diagram above.
func (s TurnState) CanTransitionTo(target TurnState) bool {
	if s == target {
		return false
	}
	switch s {
	case StateIdle:
		return target == StatePreparingContext
	case StatePreparingContext:
		return target == StateStreaming
	case StateStreaming:
		return target == StateRetrying || target == StateError || target == StateFinalizing
	case StateRetrying:
		return target == StateStreaming
	case StateError:
		return target == StateIdle
	case StateFinalizing:
		return target == StateExecutingTools || target == StatePreparingContext || target == StateIdle
	case StateExecutingTools:
		return target == StateWaitingForPanels
	case StateWaitingForPanels:
		return target == StatePreparingContext
	}
	return false
}

// Transition is a single proposed edge, validated against CanTransitionTo.
type Transition struct {
	From TurnState
	To   TurnState
}

// Validate returns an error if the transition is not a legal edge.
func (t Transition) Validate() error {
	if !t.From.IsValid() {
		return fmt.Errorf("turnstate: invalid source state %q", t.From)
	}
	if !t.To.IsValid() {
		return fmt.Errorf("turnstate: invalid target state %q", t.To)
	}
	if !t.From.CanTransitionTo(t.To) {
		return fmt.Errorf("turnstate: invalid transition from %q to %q", t.From, t.To)
	}
	return nil
}

// String implements fmt.Stringer.
func (s TurnState) String() string {
	return string(s)
}

// StopReason mirrors the Anthropic Messages API's stop_reason field,
// normalized across providers per §4.4.2's SSE vocabulary.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonToolUse      StopReason = "tool_use"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonPauseTurn    StopReason = "pause_turn"
	StopReasonRefusal      StopReason = "refusal"
)

// IsValid reports whether r is a known stop reason.
func (r StopReason) IsValid() bool {
	switch r {
	case StopReasonEndTurn, StopReasonToolUse, StopReasonMaxTokens,
		StopReasonStopSequence, StopReasonPauseTurn, StopReasonRefusal:
		return true
	default:
		return false
	}
}

// RequiresToolExecution reports whether r means tool_use content blocks
// must be executed before the next request.
func (r StopReason) RequiresToolExecution() bool {
	return r == StopReasonToolUse
}

// IsMaxTokens reports whether the stream was truncated by the token
// budget, the MaxTokens auto-continuation trigger of §4.5.
func (r StopReason) IsMaxTokens() bool {
	return r == StopReasonMaxTokens
}

// String implements fmt.Stringer.
func (r StopReason) String() string {
	return string(r)
}

// NextState returns the Finalizing-exit state implied by r, used by
// Finalizing's branch in the diagram (before spine evaluation, which may
// override the no-tools branch with PreparingContext instead of Idle).
func (r StopReason) NextState() TurnState {
	if r.RequiresToolExecution() {
		return StateExecutingTools
	}
	return StateIdle
}
