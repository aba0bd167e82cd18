package compaction

import "fmt"

// Default configuration values, carried over from the original
// context-cleaner's threshold/target pair.
const (
	DefaultContextBudget = 160000 // tokens, leaves headroom under Sonnet's 200K window
	DefaultTrigger       = 0.85   // clean once 85% of the budget is used
	DefaultTarget        = 0.60   // the cleaner aims to bring usage back down to 60%
)

// Config controls when context cleaning triggers and how much headroom it
// targets.
type Config struct {
	// ContextBudget is the token budget cleaning is measured against. This is
	// normally somewhat below the model's real context window, leaving room
	// for the response itself.
	ContextBudget int

	// Trigger is the fraction of ContextBudget (0.0-1.0) that triggers
	// cleaning.
	Trigger float64

	// Target is the fraction of ContextBudget the cleaner is told to bring
	// usage back down to.
	Target float64
}

// DefaultConfig returns a Config with the original implementation's defaults.
func DefaultConfig() Config {
	return Config{
		ContextBudget: DefaultContextBudget,
		Trigger:       DefaultTrigger,
		Target:        DefaultTarget,
	}
}

// Validate returns an error if the configuration is unusable.
func (c Config) Validate() error {
	if c.ContextBudget <= 0 {
		return fmt.Errorf("%w: context_budget must be positive, got %d", ErrInvalidConfig, c.ContextBudget)
	}
	if c.Trigger <= 0 || c.Trigger > 1.0 {
		return fmt.Errorf("%w: trigger must be in (0,1], got %f", ErrInvalidConfig, c.Trigger)
	}
	if c.Target <= 0 || c.Target >= c.Trigger {
		return fmt.Errorf("%w: target must be in (0, trigger), got %f (trigger %f)", ErrInvalidConfig, c.Target, c.Trigger)
	}
	return nil
}

// TriggerTokens returns the absolute token count that triggers cleaning.
func (c Config) TriggerTokens() int {
	return int(float64(c.ContextBudget) * c.Trigger)
}

// TargetTokens returns the absolute token count the cleaner aims for.
func (c Config) TargetTokens() int {
	return int(float64(c.ContextBudget) * c.Target)
}
