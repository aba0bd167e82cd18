package spine

// GuardRail is one check in the ordered list of §4.5; the first whose
// Blocks returns true stops the continuation and produces a notification.
type GuardRail interface {
	// Name is the source tag used for idempotent block notifications.
	Name() string
	// Blocks reports whether snap should be blocked from continuing.
	Blocks(snap Snapshot) bool
	// Message renders the human-readable reason, used as the blocking
	// notification's text.
	Message(snap Snapshot) string
}

// CostCap blocks continuation once SessionCostUSD reaches CostCapUSD.
type CostCap struct{}

func (CostCap) Name() string { return "guardrail_cost_cap" }

func (CostCap) Blocks(snap Snapshot) bool {
	return snap.CostCapUSD > 0 && snap.SessionCostUSD >= snap.CostCapUSD
}

func (CostCap) Message(snap Snapshot) string {
	return "cost cap reached: session cost has exceeded the configured budget"
}

// ToolCallCap blocks continuation once ToolCallCount reaches ToolCallCapCount.
type ToolCallCap struct{}

func (ToolCallCap) Name() string { return "guardrail_tool_call_cap" }

func (ToolCallCap) Blocks(snap Snapshot) bool {
	return snap.ToolCallCapCount > 0 && snap.ToolCallCount >= snap.ToolCallCapCount
}

func (ToolCallCap) Message(snap Snapshot) string {
	return "tool call cap reached: autonomous tool usage has hit its per-session limit"
}

// DefaultGuardRails returns the canonical ordered guard-rail list.
func DefaultGuardRails() []GuardRail {
	return []GuardRail{CostCap{}, ToolCallCap{}}
}
