package sse

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorTextBlockAccumulatesAcrossDeltas(t *testing.T) {
	a := NewAccumulator()

	events := a.startBlock(0, anthropic.TextBlock{Text: "Hel"})
	require.Len(t, events, 1)
	assert.Equal(t, "Hel", events[0].(*TextDeltaEvent).Delta)

	events = a.applyDelta(0, anthropic.TextDelta{Text: "lo"})
	require.Len(t, events, 1)
	assert.Equal(t, "lo", events[0].(*TextDeltaEvent).Delta)

	events = a.stopBlock(0)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeContentStop, events[0].Type())
	assert.Equal(t, "Hello", a.Text())
}

func TestAccumulatorToolUseEmptyInputDefaultsToEmptyObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantJSON string
	}{
		{"empty input defaults to empty object", "", "{}"},
		{"valid input preserved", `{"key":"value"}`, `{"key":"value"}`},
		{"empty object preserved", "{}", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccumulator()
			a.startBlock(0, anthropic.ToolUseBlock{ID: "tool-1", Name: "grep"})
			if tt.input != "" {
				a.applyDelta(0, anthropic.InputJSONDelta{PartialJSON: tt.input})
			}
			events := a.stopBlock(0)
			require.Len(t, events, 1)
			stop, ok := events[0].(*ToolUseStopEvent)
			require.True(t, ok)
			assert.Equal(t, "tool-1", stop.ToolUse.ID)
			assert.Equal(t, "grep", stop.ToolUse.Name)
			assert.JSONEq(t, tt.wantJSON, string(stop.ToolUse.Input))
			assert.Len(t, a.ToolUses(), 1)
		})
	}
}

func TestAccumulatorStopBlockUnknownIndexIsNoop(t *testing.T) {
	a := NewAccumulator()
	assert.Nil(t, a.stopBlock(99))
	assert.Nil(t, a.applyDelta(99, anthropic.TextDelta{Text: "x"}))
}

func TestAccumulatorTextIncludesStillOpenBlocks(t *testing.T) {
	a := NewAccumulator()
	a.startBlock(0, anthropic.TextBlock{Text: "partial"})
	assert.Equal(t, "partial", a.Text())
}
