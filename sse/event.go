package sse

import (
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/turnstate"
)

// EventType discriminates the normalized event vocabulary of §4.4.2.
type EventType string

const (
	EventTypeTextDelta     EventType = "text_delta"
	EventTypeToolUseStart  EventType = "tool_use_start"
	EventTypeToolUseStop   EventType = "tool_use_stop"
	EventTypeContentStop   EventType = "content_block_stop"
	EventTypeMessageDelta  EventType = "message_delta"
	EventTypeMessageStop   EventType = "message_stop"
)

// Event is any normalized stream event Accumulator.ProcessEvent produces.
type Event interface {
	Type() EventType
}

// TextDeltaEvent carries a chunk of assistant text to feed the typewriter.
type TextDeltaEvent struct {
	Index int
	Delta string
}

func (e *TextDeltaEvent) Type() EventType { return EventTypeTextDelta }

// ToolUseStartEvent fires when a tool_use content block opens.
type ToolUseStartEvent struct {
	Index    int
	ToolID   string
	ToolName string
}

func (e *ToolUseStartEvent) Type() EventType { return EventTypeToolUseStart }

// ToolUseStopEvent fires when a tool_use content block's input JSON is
// complete, carrying the finalized ToolUse.
type ToolUseStopEvent struct {
	Index   int
	ToolUse message.ToolUse
}

func (e *ToolUseStopEvent) Type() EventType { return EventTypeToolUseStop }

// ContentBlockStopEvent fires when a text content block closes.
type ContentBlockStopEvent struct {
	Index int
}

func (e *ContentBlockStopEvent) Type() EventType { return EventTypeContentStop }

// MessageDeltaEvent carries the stop reason once the provider has decided
// to end the message.
type MessageDeltaEvent struct {
	StopReason   turnstate.StopReason
	StopSequence string
}

func (e *MessageDeltaEvent) Type() EventType { return EventTypeMessageDelta }

// MessageStopEvent terminates the stream.
type MessageStopEvent struct{}

func (e *MessageStopEvent) Type() EventType { return EventTypeMessageStop }
