package turnstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnStateIsValid(t *testing.T) {
	tests := []struct {
		state TurnState
		valid bool
	}{
		{StateIdle, true},
		{StatePreparingContext, true},
		{StateStreaming, true},
		{StateRetrying, true},
		{StateError, true},
		{StateFinalizing, true},
		{StateExecutingTools, true},
		{StateWaitingForPanels, true},
		{TurnState("bogus"), false},
		{TurnState(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.state.IsValid())
		})
	}
}

func TestTurnStateCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to TurnState
		valid    bool
	}{
		{StateIdle, StatePreparingContext, true},
		{StateIdle, StateStreaming, false},
		{StatePreparingContext, StateStreaming, true},
		{StateStreaming, StateRetrying, true},
		{StateStreaming, StateError, true},
		{StateStreaming, StateFinalizing, true},
		{StateStreaming, StateIdle, false},
		{StateRetrying, StateStreaming, true},
		{StateRetrying, StateError, false},
		{StateError, StateIdle, true},
		{StateFinalizing, StateExecutingTools, true},
		{StateFinalizing, StatePreparingContext, true},
		{StateFinalizing, StateIdle, true},
		{StateExecutingTools, StateWaitingForPanels, true},
		{StateWaitingForPanels, StatePreparingContext, true},
		{StateIdle, StateIdle, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionValidate(t *testing.T) {
	assert.NoError(t, Transition{StateIdle, StatePreparingContext}.Validate())
	assert.Error(t, Transition{StateIdle, StateStreaming}.Validate())
	assert.Error(t, Transition{TurnState("bad"), StateIdle}.Validate())
	assert.Error(t, Transition{StateIdle, TurnState("bad")}.Validate())
}

func TestStopReasonRequiresToolExecution(t *testing.T) {
	assert.True(t, StopReasonToolUse.RequiresToolExecution())
	assert.False(t, StopReasonEndTurn.RequiresToolExecution())
}

func TestStopReasonIsMaxTokens(t *testing.T) {
	assert.True(t, StopReasonMaxTokens.IsMaxTokens())
	assert.False(t, StopReasonEndTurn.IsMaxTokens())
}

func TestStopReasonNextState(t *testing.T) {
	assert.Equal(t, StateExecutingTools, StopReasonToolUse.NextState())
	assert.Equal(t, StateIdle, StopReasonEndTurn.NextState())
	assert.Equal(t, StateIdle, StopReasonMaxTokens.NextState())
}

func TestAllStatesAreValid(t *testing.T) {
	states := AllStates()
	assert.Len(t, states, 8)
	for _, s := range states {
		assert.True(t, s.IsValid())
	}
}
