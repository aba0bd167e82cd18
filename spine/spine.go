package spine

// Outcome is the controller's decision after checking continuations and
// guard rails against a Snapshot.
type Outcome string

const (
	// OutcomeIdle means no continuation fired; the turn cycle returns to
	// Idle and waits for user input.
	OutcomeIdle Outcome = "idle"
	// OutcomeContinue means a continuation fired and was not blocked; the
	// caller should apply the returned Action and transition to
	// PreparingContext.
	OutcomeContinue Outcome = "continue"
	// OutcomeBlocked means a continuation fired but a guard rail stopped
	// it; a notification was recorded and the controller stays idle.
	OutcomeBlocked Outcome = "blocked"
)

// Controller evaluates the ordered continuation and guard-rail lists of
// §4.5 against a Snapshot.
type Controller struct {
	continuations []AutoContinuation
	guardRails    []GuardRail
	pending       *Pending

	autoContinuationCount int
	autonomousStartMs     int64
	autonomousStarted     bool
}

// NewController builds a Controller with the canonical ordered lists.
// Pass a custom continuations/guardRails slice via the With* setters to
// override for testing.
func NewController(pending *Pending) *Controller {
	return &Controller{
		continuations: DefaultContinuations(),
		guardRails:    DefaultGuardRails(),
		pending:       pending,
	}
}

// WithContinuations overrides the ordered continuation list.
func (c *Controller) WithContinuations(list []AutoContinuation) *Controller {
	c.continuations = list
	return c
}

// WithGuardRails overrides the ordered guard-rail list.
func (c *Controller) WithGuardRails(list []GuardRail) *Controller {
	c.guardRails = list
	return c
}

// AutoContinuationCount reports how many continuations have successfully
// fired so far (§4.5's auto_continuation_count counter).
func (c *Controller) AutoContinuationCount() int {
	return c.autoContinuationCount
}

// AutonomousStartMs reports the timestamp of the first successful
// continuation, or 0 if none has fired yet.
func (c *Controller) AutonomousStartMs() int64 {
	return c.autonomousStartMs
}

// Check evaluates snap against the ordered continuation list, then the
// ordered guard-rail list, and returns the Outcome plus (for
// OutcomeContinue) the Action to apply. nowMs stamps autonomous_start_ms
// on first fire.
func (c *Controller) Check(snap Snapshot, nowMs int64) (Outcome, Action) {
	var fired AutoContinuation
	for _, cont := range c.continuations {
		if cont.Check(snap) {
			fired = cont
			break
		}
	}
	if fired == nil {
		return OutcomeIdle, Action{}
	}

	for _, gr := range c.guardRails {
		if gr.Blocks(snap) {
			c.pending.Add(Notification{SourceTag: gr.Name(), Message: gr.Message(snap)})
			return OutcomeBlocked, Action{}
		}
	}

	c.autoContinuationCount++
	if !c.autonomousStarted {
		c.autonomousStarted = true
		c.autonomousStartMs = nowMs
	}
	return OutcomeContinue, fired.Action(snap)
}
