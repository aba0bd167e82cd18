package tool

import "context"

// Context keys carrying turn-scoped information tools read during Execute.
type contextKey string

const (
	stateKey     contextKey = "contextpilot_state"
	workingDirKey contextKey = "contextpilot_working_dir"
)

// WithState attaches the mutable state handle tools use to open panels,
// edit files, and otherwise affect State per §4.4.4 ("Executing a tool may
// mutate State arbitrarily"). The concrete type is opaque here to avoid an
// import cycle with the state package; builtin tools type-assert it back
// to *state.State.
func WithState(ctx context.Context, state any) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

// GetState extracts the state handle attached by WithState.
func GetState(ctx context.Context) (any, bool) {
	v := ctx.Value(stateKey)
	return v, v != nil
}

// WithWorkingDir attaches a working directory to ctx. No caller in this
// module sets it; the built-in tools resolve relative paths against the
// State's repo path instead.
func WithWorkingDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workingDirKey, dir)
}

// GetWorkingDir extracts the working directory attached by WithWorkingDir,
// defaulting to "." if none was set.
func GetWorkingDir(ctx context.Context) string {
	dir, _ := ctx.Value(workingDirKey).(string)
	if dir == "" {
		return "."
	}
	return dir
}
