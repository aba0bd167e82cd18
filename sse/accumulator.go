// Package sse normalizes provider streaming events into the vocabulary of
// §4.4.2: content_block_start/delta/stop, message_delta, message_stop.
// Accumulator turns a sequence of raw Anthropic SDK events into both
// normalized Events (for the typewriter to consume incrementally) and a
// final message.Message once the stream ends.
package sse

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/turnstate"
)

// pendingBlock tracks one in-progress content block by its stream index.
type pendingBlock struct {
	isToolUse bool
	text      strings.Builder
	toolID    string
	toolName  string
	toolInput strings.Builder
}

// Usage mirrors the Anthropic usage counters referenced by §4.4.5's
// telemetry accumulation (cache-hit/cache-miss/output tokens).
type Usage struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
}

// Accumulator processes one stream's worth of events, exposing both
// per-delta Events for incremental rendering and the final accumulated
// message.
type Accumulator struct {
	messageID string
	model     string

	blocks       map[int]*pendingBlock
	finishedText strings.Builder
	toolUses     []message.ToolUse

	stopReason   turnstate.StopReason
	stopSequence string
	usage        Usage
}

// NewAccumulator creates an empty Accumulator for a fresh stream.
func NewAccumulator() *Accumulator {
	return &Accumulator{blocks: map[int]*pendingBlock{}}
}

// ProcessEvent absorbs one raw Anthropic stream event and returns the
// normalized Events it produces, in order. Most raw events produce exactly
// one normalized Event; MessageStartEvent, InputJSONDelta deltas, empty
// text deltas, and ContentBlockStartEvent for non-tool-use blocks produce
// none (they only update internal state, per §4.4.2: "append to current
// tool accumulator" has no typewriter-visible effect until
// content_block_stop), except that a text block starting with non-empty
// text yields one TextDeltaEvent for that text.
func (a *Accumulator) ProcessEvent(raw anthropic.MessageStreamEventUnion) []Event {
	switch e := raw.AsAny().(type) {
	case anthropic.MessageStartEvent:
		a.messageID = e.Message.ID
		a.model = string(e.Message.Model)
		a.usage.InputTokens = int(e.Message.Usage.InputTokens)
		a.usage.CacheCreationInputTokens = int(e.Message.Usage.CacheCreationInputTokens)
		a.usage.CacheReadInputTokens = int(e.Message.Usage.CacheReadInputTokens)
		return nil

	case anthropic.ContentBlockStartEvent:
		return a.startBlock(int(e.Index), e.ContentBlock.AsAny())

	case anthropic.ContentBlockDeltaEvent:
		return a.applyDelta(int(e.Index), e.Delta.AsAny())

	case anthropic.ContentBlockStopEvent:
		return a.stopBlock(int(e.Index))

	case anthropic.MessageDeltaEvent:
		a.stopReason = turnstate.StopReason(e.Delta.StopReason)
		a.stopSequence = e.Delta.StopSequence
		a.usage.OutputTokens = int(e.Usage.OutputTokens)
		return []Event{&MessageDeltaEvent{
			StopReason:   a.stopReason,
			StopSequence: a.stopSequence,
		}}

	case anthropic.MessageStopEvent:
		return []Event{&MessageStopEvent{}}

	default:
		return nil
	}
}

func (a *Accumulator) startBlock(index int, content any) []Event {
	switch tb := content.(type) {
	case anthropic.ToolUseBlock:
		a.blocks[index] = &pendingBlock{isToolUse: true, toolID: tb.ID, toolName: tb.Name}
		return []Event{&ToolUseStartEvent{Index: index, ToolID: tb.ID, ToolName: tb.Name}}
	case anthropic.TextBlock:
		block := &pendingBlock{}
		block.text.WriteString(tb.Text)
		a.blocks[index] = block
		if tb.Text == "" {
			return nil
		}
		return []Event{&TextDeltaEvent{Index: index, Delta: tb.Text}}
	default:
		a.blocks[index] = &pendingBlock{}
		return nil
	}
}

func (a *Accumulator) applyDelta(index int, delta any) []Event {
	block, ok := a.blocks[index]
	if !ok {
		return nil
	}
	switch d := delta.(type) {
	case anthropic.TextDelta:
		block.text.WriteString(d.Text)
		if d.Text == "" {
			return nil
		}
		return []Event{&TextDeltaEvent{Index: index, Delta: d.Text}}
	case anthropic.InputJSONDelta:
		block.toolInput.WriteString(d.PartialJSON)
		return nil
	default:
		return nil
	}
}

func (a *Accumulator) stopBlock(index int) []Event {
	block, ok := a.blocks[index]
	if !ok {
		return nil
	}
	delete(a.blocks, index)

	if !block.isToolUse {
		a.finishedText.WriteString(block.text.String())
		return []Event{&ContentBlockStopEvent{Index: index}}
	}

	raw := block.toolInput.String()
	if raw == "" {
		raw = "{}"
	}
	tu := message.ToolUse{ID: block.toolID, Name: block.toolName, Input: json.RawMessage(raw)}
	a.toolUses = append(a.toolUses, tu)
	return []Event{&ToolUseStopEvent{Index: index, ToolUse: tu}}
}

// Text returns the assistant text accumulated so far across all finished
// and still-open text blocks.
func (a *Accumulator) Text() string {
	var b strings.Builder
	b.WriteString(a.finishedText.String())
	for _, block := range a.blocks {
		if !block.isToolUse {
			b.WriteString(block.text.String())
		}
	}
	return b.String()
}

// ToolUses returns every tool_use block finalized so far.
func (a *Accumulator) ToolUses() []message.ToolUse {
	return append([]message.ToolUse(nil), a.toolUses...)
}

// StopReason returns the normalized stop reason reported by message_delta,
// empty if the stream has not yet ended.
func (a *Accumulator) StopReason() turnstate.StopReason {
	return a.stopReason
}

// Usage returns the token usage accumulated across message_start and
// message_delta events.
func (a *Accumulator) Usage() Usage {
	return a.usage
}
