package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/bigmoostache/tui-sub000/cache"
	"github.com/bigmoostache/tui-sub000/compaction"
	"github.com/bigmoostache/tui-sub000/message"
	"github.com/bigmoostache/tui-sub000/metrics"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/persist"
	"github.com/bigmoostache/tui-sub000/spine"
	"github.com/bigmoostache/tui-sub000/sse"
	"github.com/bigmoostache/tui-sub000/state"
	"github.com/bigmoostache/tui-sub000/tool"
	"github.com/bigmoostache/tui-sub000/turnstate"
	"github.com/rs/zerolog"
)

// defaultModel matches the teacher's convention of carrying the model name
// as a plain string rather than an SDK-side enum.
const defaultModel = "claude-sonnet-4-5"

// waitForPanelsCeiling bounds the §4.2.4 wait-for-loaded spin; on breach the
// orchestrator proceeds with stale content per §5.1's resolved open
// question, rather than synthesizing a retry message.
const waitForPanelsCeiling = 5 * time.Second

// Orchestrator drives one worker's turn cycle (§4.4): it owns the
// Anthropic client, the tool registry, the cache scheduler, the spine
// controller, and the persistence writer's save trigger.
type Orchestrator struct {
	State    *state.State
	Registry *tool.Registry
	Client   anthropic.Client
	Model    anthropic.Model

	MaxTokens    int64
	SystemPrompt string

	Scheduler *cache.Scheduler
	Spine     *spine.Controller
	Writer    *persist.Writer
	Layout    persist.Layout

	CostCapUSD       float64
	ToolCallCapCount int

	// CleaningConfig governs the agentic context-cleaning sub-turn (§5.2
	// supplement). A zero ContextBudget disables cleaning entirely.
	CleaningConfig compaction.Config

	// Metrics is optional; a nil Metrics disables instrumentation entirely
	// so tests and the panel-shortcut fast path never need to construct one.
	Metrics *metrics.Metrics

	Log zerolog.Logger

	Telemetry Telemetry

	toolCallCount int
}

// NewOrchestrator wires the pieces built by earlier packages into a
// runnable turn driver. The caller owns startup (cache engine, scheduler
// watches, writer, ownership) and shutdown.
func NewOrchestrator(st *state.State, registry *tool.Registry, client anthropic.Client, scheduler *cache.Scheduler, layout persist.Layout, writer *persist.Writer, log zerolog.Logger) *Orchestrator {
	sp := st.Spine()
	return &Orchestrator{
		State:     st,
		Registry:  registry,
		Client:    client,
		Model:     anthropic.Model(defaultModel),
		MaxTokens: 4096,
		Scheduler: scheduler,
		Spine:     spine.NewController(sp.Pending),
		Writer:    writer,
		Layout:    layout,
		Log:       log,
		// defaultModel's published USD rates: $3 per million input tokens,
		// $15 per million output tokens.
		Telemetry: Telemetry{CostPerInputToken: 3.0 / 1e6, CostPerOutputToken: 15.0 / 1e6},
	}
}

// Submit implements the Idle state's entry rule: an empty input is a no-op
// (§8 boundary behavior); input matching the panel-shortcut grammar
// selects a panel instead of starting a stream; anything else appends a
// user message and runs the turn cycle to its next rest point.
func (o *Orchestrator) Submit(ctx context.Context, input string) (selectedPanel string, err error) {
	if input == "" {
		return "", nil
	}
	if candidate, ok := MatchPanelShortcut(input); ok {
		if _, found := o.State.PanelByLocalID(candidate); found {
			return candidate, nil
		}
	}

	userMsg := &message.Message{
		LocalID:           nextMessageLocalID(o.State, "U"),
		UID:               o.State.AllocateUID(),
		Role:              message.RoleUser,
		Kind:              message.KindText,
		Content:           input,
		Status:            message.StatusFull,
		ContentTokenCount: message.EstimateTokens(input),
		TimestampMs:       o.State.NowMs(),
	}
	o.State.AddMessage(userMsg)

	return "", o.runCycle(ctx)
}

// runCycle drives the turn state machine from PreparingContext through to
// the next Idle rest point, including every spine-triggered relaunch.
func (o *Orchestrator) runCycle(ctx context.Context) error {
	start := time.Now()
	includeLast := false
	for {
		o.maybeClean(ctx)

		prepared := PrepareStreamContext(o.State, o.Registry, o.SystemPrompt, includeLast)
		assistantMsg := o.appendEmptyAssistant()

		stopReason, err := o.stream(ctx, prepared, assistantMsg)
		if err != nil {
			path, logErr := LogStreamError(o.Layout, err)
			if logErr != nil {
				o.Log.Error().Err(logErr).Msg("stream: failed to write error log")
			}
			assistantMsg.Content = fmt.Sprintf("[Error occurred. See details in %s]", path)
			assistantMsg.ContentTokenCount = message.EstimateTokens(assistantMsg.Content)
			o.saveState()
			o.recordTurn("error", start)
			return err
		}

		if stopReason.RequiresToolExecution() {
			reload := ExecuteTools(ctx, o.State, o.Registry, assistantMsg.ToolUses)
			o.toolCallCount += len(assistantMsg.ToolUses)
			o.recordToolExecutions(assistantMsg.ToolUses)
			o.saveState()
			if reload {
				o.recordTurn("ok", start)
				return nil
			}
			o.waitForPanels(ctx)
			includeLast = true
			continue
		}

		outcome, action := o.Spine.Check(o.snapshot(stopReason), o.State.NowMs())
		o.syncSpineState()
		o.saveState()
		switch outcome {
		case spine.OutcomeContinue:
			o.applyContinuation(action)
			includeLast = false
			continue
		case spine.OutcomeBlocked, spine.OutcomeIdle:
			o.recordTurn("ok", start)
			return nil
		}
		o.recordTurn("ok", start)
		return nil
	}
}

// appendEmptyAssistant creates the fresh assistant message the stream will
// fill in, per the ExecutingTools exit step and the initial PreparingContext
// entry; both paths need one waiting message before Streaming begins.
func (o *Orchestrator) appendEmptyAssistant() *message.Message {
	m := &message.Message{
		LocalID:     nextMessageLocalID(o.State, "A"),
		UID:         o.State.AllocateUID(),
		Role:        message.RoleAssistant,
		Kind:        message.KindText,
		Status:      message.StatusFull,
		TimestampMs: o.State.NowMs(),
	}
	o.State.AddMessage(m)
	return m
}

// stream runs one SSE attempt with up to MaxAPIRetries restarts (§4.4.3),
// clearing partial assistant content on every retry, and returns the
// provider's stop reason once the stream completes successfully.
func (o *Orchestrator) stream(ctx context.Context, prepared PreparedContext, assistantMsg *message.Message) (turnstate.StopReason, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxAPIRetries; attempt++ {
		if attempt > 0 {
			assistantMsg.Content = ""
		}
		stopReason, toolUses, usage, err := o.runOnce(ctx, prepared, assistantMsg)
		if err != nil {
			lastErr = err
			continue
		}
		assistantMsg.ToolUses = toolUses
		if len(toolUses) > 0 {
			assistantMsg.Kind = message.KindToolCall
		}
		assistantMsg.Content = StripIDPrefixArtifact(assistantMsg.Content)
		assistantMsg.ContentTokenCount = usage.OutputTokens
		o.Telemetry.Accumulate(usage)
		o.recordUsage(usage)
		return stopReason, nil
	}
	return "", fmt.Errorf("stream: exhausted %d retries: %w", MaxAPIRetries, lastErr)
}

// runOnce issues a single streaming request and consumes it to completion,
// implementing §4.4.2's SSE-to-typewriter pipeline synchronously: every
// normalized text delta is pushed through the Typewriter and immediately
// released, since this headless core has no independent render tick to
// pace against.
func (o *Orchestrator) runOnce(ctx context.Context, prepared PreparedContext, assistantMsg *message.Message) (turnstate.StopReason, []message.ToolUse, sse.Usage, error) {
	params := anthropic.MessageNewParams{
		Model:     o.Model,
		MaxTokens: o.MaxTokens,
		System:    prepared.System,
		Messages:  prepared.Messages,
	}
	if len(prepared.Tools) > 0 {
		params.Tools = prepared.Tools
	}

	acc := sse.NewAccumulator()
	typewriter := NewTypewriter()

	s := o.Client.Messages.NewStreaming(ctx, params)
	for s.Next() {
		events := acc.ProcessEvent(s.Current())
		for _, ev := range events {
			if delta, ok := ev.(*sse.TextDeltaEvent); ok {
				typewriter.Push(delta.Delta)
				assistantMsg.Content += typewriter.Release()
			}
		}
	}
	assistantMsg.Content += typewriter.Flush()
	if err := s.Err(); err != nil {
		return "", nil, sse.Usage{}, err
	}

	return acc.StopReason(), acc.ToolUses(), acc.Usage(), nil
}

// waitForPanels implements §4.2.4: spin the scheduler until no
// needs_async_wait panel is deprecated or in flight, or the hard ceiling
// is reached, in which case stale content is accepted and logDiagnostic
// logs a warning and allocates a Logs chunk ID (no log entry is written).
func (o *Orchestrator) waitForPanels(ctx context.Context) {
	deadline := time.Now().Add(waitForPanelsCeiling)
	for {
		o.Scheduler.Tick(o.State)
		if !o.anyAsyncWaitPending() {
			return
		}
		if time.Now().After(deadline) {
			o.logDiagnostic("wait-for-panels ceiling reached; proceeding with stale content")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (o *Orchestrator) anyAsyncWaitPending() bool {
	for _, e := range o.State.Panels() {
		if !panel.Meta(e.Type).NeedsAsyncWait {
			continue
		}
		if e.CacheDeprecated || e.CacheInFlight {
			return true
		}
	}
	return false
}

// maybeClean runs a context-cleaning sub-turn when usage has crossed the
// configured trigger: a restricted tool registry and an overview-of-context
// system prompt stand in for the normal request, letting the model itself
// decide what to close, summarize, or delete (the original implementation's
// context_cleaner, adapted to this spec's message/panel model). A zero
// CleaningConfig.ContextBudget disables the feature entirely.
func (o *Orchestrator) maybeClean(ctx context.Context) {
	if o.CleaningConfig.ContextBudget == 0 || !compaction.ShouldClean(o.State, o.CleaningConfig) {
		return
	}

	registry, err := compaction.Tools()
	if err != nil {
		o.Log.Error().Err(err).Msg("stream: failed to build cleaner tool registry")
		return
	}

	prepared := PreparedContext{
		System: []anthropic.TextBlockParam{{Text: compaction.SystemPrompt(o.State, o.CleaningConfig)}},
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(compaction.Overview(o.State, o.CleaningConfig))},
		}},
		Tools: registry.ToAnthropicToolUnions(),
	}

	if o.Metrics != nil {
		o.Metrics.CleaningRuns.Inc()
	}

	assistantMsg := o.appendEmptyAssistant()
	stopReason, err := o.stream(ctx, prepared, assistantMsg)
	if err != nil {
		o.Log.Error().Err(err).Msg("stream: context cleaning sub-turn failed")
		return
	}
	if stopReason.RequiresToolExecution() {
		ExecuteTools(ctx, o.State, registry, assistantMsg.ToolUses)
		o.recordToolExecutions(assistantMsg.ToolUses)
	}
	o.saveState()
}

// recordTurn and its siblings are no-ops when o.Metrics is nil, letting
// every call site instrument unconditionally.
func (o *Orchestrator) recordTurn(outcome string, start time.Time) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	o.Metrics.TurnDuration.Observe(time.Since(start).Seconds())
	o.Metrics.ContextUsageTokens.Set(float64(compaction.Usage(o.State)))
	o.Metrics.CostUSD.Set(o.Telemetry.CostUSD())
}

func (o *Orchestrator) recordUsage(u sse.Usage) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.TokensTotal.WithLabelValues("input").Add(float64(u.InputTokens))
	o.Metrics.TokensTotal.WithLabelValues("output").Add(float64(u.OutputTokens))
}

func (o *Orchestrator) recordToolExecutions(uses []message.ToolUse) {
	if o.Metrics == nil {
		return
	}
	for _, tu := range uses {
		o.Metrics.ToolExecutions.WithLabelValues(tu.Name, "ran").Inc()
	}
}

func (o *Orchestrator) logDiagnostic(msg string) {
	o.Log.Warn().Msg(msg)
	chunkID := o.State.AllocateLogChunk()
	o.Log.Debug().Int("chunk_id", chunkID).Msg("allocated log chunk for diagnostic")
}

// snapshot builds the spine.Snapshot from current State, the narrow view
// the controller needs to evaluate continuations and guard rails.
func (o *Orchestrator) snapshot(stopReason turnstate.StopReason) spine.Snapshot {
	sp := o.State.Spine()
	last := o.State.LastMessage()
	return spine.Snapshot{
		LastStopReason:       stopReason,
		PendingNotifications: sp.Pending.Unprocessed(),
		TodosIncomplete:      o.State.Todo().Incomplete(),
		AutonomousMode:       sp.AutonomousMode,
		LastMessageIsUser:    last != nil && last.Role == message.RoleUser,
		SessionCostUSD:       o.Telemetry.CostUSD(),
		CostCapUSD:           o.CostCapUSD,
		ToolCallCount:        o.toolCallCount,
		ToolCallCapCount:     o.ToolCallCapCount,
	}
}

// syncSpineState mirrors the Controller's internal counters into the Spine
// module substate so renderSpine's Overview/Spine panel output and
// persisted state stay current with what the controller just decided.
func (o *Orchestrator) syncSpineState() {
	sp := o.State.Spine()
	sp.AutoContinuationCount = o.Spine.AutoContinuationCount()
	sp.AutonomousStartMs = o.Spine.AutonomousStartMs()
	o.State.SetSpine(sp)
}

// applyContinuation implements §4.5's two continuation action shapes.
func (o *Orchestrator) applyContinuation(action spine.Action) {
	switch action.Kind {
	case spine.ActionSyntheticMessage:
		o.State.AddMessage(&message.Message{
			LocalID:           nextMessageLocalID(o.State, "U"),
			UID:               o.State.AllocateUID(),
			Role:              message.RoleUser,
			Kind:              message.KindText,
			Content:           action.Content,
			Status:            message.StatusFull,
			ContentTokenCount: message.EstimateTokens(action.Content),
			TimestampMs:       o.State.NowMs(),
		})
		sp := o.State.Spine()
		sp.Pending.MarkAllProcessed()
		o.State.SetSpine(sp)
	case spine.ActionRelaunch:
		if action.Content != "" {
			o.State.AddMessage(&message.Message{
				LocalID:           nextMessageLocalID(o.State, "U"),
				UID:               o.State.AllocateUID(),
				Role:              message.RoleUser,
				Kind:              message.KindText,
				Content:           action.Content,
				Status:            message.StatusFull,
				ContentTokenCount: message.EstimateTokens(action.Content),
				TimestampMs:       o.State.NowMs(),
			})
		}
	}
}

// saveState triggers the Persistence Writer after every state-changing
// action. A full State→WriteBatch projection belongs to the host process's
// save-tick loop (cmd/contextpilot); here the orchestrator submits only an
// EnsureDirs batch for the state root as a liveness nudge, and does
// nothing when no writer is configured (as in tests).
func (o *Orchestrator) saveState() {
	if o.Writer == nil {
		return
	}
	o.Writer.Submit(persist.WriteBatch{EnsureDirs: []string{o.Layout.Root}})
}
