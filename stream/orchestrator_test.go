package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bigmoostache/tui-sub000/cache"
	"github.com/bigmoostache/tui-sub000/compaction"
	"github.com/bigmoostache/tui-sub000/metrics"
	"github.com/bigmoostache/tui-sub000/panel"
	"github.com/bigmoostache/tui-sub000/persist"
	"github.com/bigmoostache/tui-sub000/spine"
	"github.com/bigmoostache/tui-sub000/tool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endTurnSSE = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","usage":{"input_tokens":12,"output_tokens":0}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}

event: message_stop
data: {"type":"message_stop"}

`

func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		fmt.Fprint(w, body)
		flusher.Flush()
	}))
}

func newTestOrchestrator(t *testing.T, serverURL string) *Orchestrator {
	t.Helper()
	st := newTestState()
	registry := tool.NewRegistry()
	client := anthropic.NewClient(option.WithAPIKey("test-key"), option.WithBaseURL(serverURL))

	engine := cache.New(1, zerolog.Nop())
	scheduler, err := cache.NewScheduler(engine)
	require.NoError(t, err)

	layout := persist.NewLayout(t.TempDir())
	o := NewOrchestrator(st, registry, client, scheduler, layout, nil, zerolog.Nop())
	return o
}

func TestOrchestratorSubmitEmptyInputIsNoOp(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")

	panelID, err := o.Submit(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, panelID)
	assert.Empty(t, o.State.Messages())
}

func TestOrchestratorSubmitPanelShortcutSelectsPanelInsteadOfStreaming(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")
	o.State.OpenPanel(panel.TypeScratchpad, "notes", nil)
	e, _ := o.State.PanelByLocalID("p0")
	require.NotNil(t, e)

	panelID, err := o.Submit(context.Background(), "p0")

	require.NoError(t, err)
	assert.Equal(t, "p0", panelID)
	assert.Empty(t, o.State.Messages())
}

func TestOrchestratorSubmitPanelShortcutSelectsNonScratchpadPanelType(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")
	o.State.OpenPanel(panel.TypeScratchpad, "notes", nil)
	fileEl := o.State.OpenPanel(panel.TypeFile, "main.go", map[string]any{"file_path": "main.go"})
	require.Equal(t, "p1", fileEl.LocalID)

	panelID, err := o.Submit(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "p1", panelID)
	assert.Empty(t, o.State.Messages())
}

func TestOrchestratorSubmitRunsStreamAndRecordsAssistantReply(t *testing.T) {
	server := sseServer(t, endTurnSSE)
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	_, err := o.Submit(context.Background(), "say hello")
	require.NoError(t, err)

	msgs := o.State.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "say hello", msgs[0].Content)
	assert.Equal(t, "Hello world", msgs[1].Content)
	assert.Equal(t, 12, o.Telemetry.InputTokens)
	assert.Equal(t, 2, o.Telemetry.OutputTokens)
}

func TestOrchestratorStripsIDPrefixArtifactFromAssistantReply(t *testing.T) {
	tagged := `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant"}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"[A3]: actual reply"}}

event: content_block_stop
data: {"type":"content_block_stop","index":0}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"}}

event: message_stop
data: {"type":"message_stop"}

`
	server := sseServer(t, tagged)
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	_, err := o.Submit(context.Background(), "hi")
	require.NoError(t, err)

	msgs := o.State.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "actual reply", msgs[1].Content)
}

func TestOrchestratorRunsCleaningSubTurnWhenBudgetConfigured(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		fmt.Fprint(w, endTurnSSE)
		flusher.Flush()
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	o.CleaningConfig = compaction.Config{ContextBudget: 1, Trigger: 0, Target: 0}

	_, err := o.Submit(context.Background(), "say hello")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, requests, 2)
	assert.GreaterOrEqual(t, len(o.State.Messages()), 3)
}

func TestOrchestratorSkipsCleaningWhenBudgetIsZero(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		fmt.Fprint(w, endTurnSSE)
		flusher.Flush()
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	_, err := o.Submit(context.Background(), "say hello")
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
}

func TestOrchestratorRecordsMetricsWhenConfigured(t *testing.T) {
	server := sseServer(t, endTurnSSE)
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	o.Metrics = metrics.New()

	_, err := o.Submit(context.Background(), "say hello")
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(o.Metrics.TurnsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(12), testutil.ToFloat64(o.Metrics.TokensTotal.WithLabelValues("input")))
	assert.Equal(t, float64(2), testutil.ToFloat64(o.Metrics.TokensTotal.WithLabelValues("output")))
}

func TestOrchestratorGuardRailBlocksContinuationAtCostCap(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")
	o.CostCapUSD = 1.0
	o.Telemetry.CostPerInputToken = 1.0
	o.Telemetry.InputTokens = 2 // already over cap

	sp := o.State.Spine()
	sp.Pending.Add(spine.Notification{SourceTag: "notifications", Message: "test"})
	o.State.SetSpine(sp)

	outcome, _ := o.Spine.Check(o.snapshot(""), o.State.NowMs())

	assert.Equal(t, spine.OutcomeBlocked, outcome)
	assert.NotEmpty(t, o.State.Spine().Pending.Unprocessed())
}
