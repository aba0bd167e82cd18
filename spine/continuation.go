package spine

import "github.com/bigmoostache/tui-sub000/turnstate"

// Snapshot is the narrow, read-only view of turn/worker state the spine
// needs to evaluate continuations and guard rails. The orchestrator fills
// it from state.State; taking a plain value keeps the spine package
// decoupled from it.
type Snapshot struct {
	LastStopReason       turnstate.StopReason
	PendingNotifications []Notification
	TodosIncomplete      bool
	AutonomousMode       bool
	LastMessageIsUser    bool

	// Guard-rail inputs.
	SessionCostUSD   float64
	CostCapUSD       float64
	ToolCallCount    int
	ToolCallCapCount int
}

// ActionKind discriminates the two continuation shapes of §4.5.
type ActionKind string

const (
	// ActionSyntheticMessage pushes a synthetic user message, then an
	// empty assistant, then begins streaming.
	ActionSyntheticMessage ActionKind = "synthetic_message"
	// ActionRelaunch pushes only an empty assistant (or a one-line
	// continue stub) and begins streaming.
	ActionRelaunch ActionKind = "relaunch"
)

// Action is the continuation action the controller decided on.
type Action struct {
	Kind    ActionKind
	Content string // populated for ActionSyntheticMessage, or the continue stub for Relaunch
}

// AutoContinuation is one trigger in the ordered list of §4.5; the first
// whose Check returns true wins.
type AutoContinuation interface {
	// Name identifies this continuation for logging and guard-rail
	// source tags.
	Name() string
	// Check reports whether this continuation should fire given snap.
	Check(snap Snapshot) bool
	// Action builds the continuation action once Check has returned true.
	Action(snap Snapshot) Action
}

// Notifications fires when the spine panel has unprocessed notifications;
// canonical continuation #1.
type Notifications struct{}

func (Notifications) Name() string { return "notifications" }

func (Notifications) Check(snap Snapshot) bool {
	return len(snap.PendingNotifications) > 0
}

func (Notifications) Action(snap Snapshot) Action {
	content := "Pending notifications:\n"
	for _, n := range snap.PendingNotifications {
		content += "- " + n.Message + "\n"
	}
	return Action{Kind: ActionSyntheticMessage, Content: content}
}

// MaxTokens fires when the last stream ended truncated by the token
// budget; canonical continuation #2.
type MaxTokens struct{}

func (MaxTokens) Name() string { return "max_tokens" }

func (MaxTokens) Check(snap Snapshot) bool {
	return snap.LastStopReason.IsMaxTokens()
}

func (MaxTokens) Action(snap Snapshot) Action {
	return relaunchOrStub(snap)
}

// TodosAutomatic fires when todos remain incomplete and the worker is in
// autonomous mode; canonical continuation #3.
type TodosAutomatic struct{}

func (TodosAutomatic) Name() string { return "todos_automatic" }

func (TodosAutomatic) Check(snap Snapshot) bool {
	return snap.TodosIncomplete && snap.AutonomousMode
}

func (TodosAutomatic) Action(snap Snapshot) Action {
	return relaunchOrStub(snap)
}

// relaunchOrStub implements §4.5's Relaunch rule: if the last non-empty
// message is already a user turn, just relaunch; otherwise inject a
// one-line continue stub.
func relaunchOrStub(snap Snapshot) Action {
	if snap.LastMessageIsUser {
		return Action{Kind: ActionRelaunch}
	}
	return Action{Kind: ActionRelaunch, Content: "Continue."}
}

// DefaultContinuations returns the canonical ordered list of §4.5.
func DefaultContinuations() []AutoContinuation {
	return []AutoContinuation{Notifications{}, MaxTokens{}, TodosAutomatic{}}
}
