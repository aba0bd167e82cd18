package panel

import "sync"

// ModuleStore is the narrow interface panel hooks use to reach into
// module-specific substate without the panel package importing the state
// package (which owns Element and Message vectors and would otherwise
// create an import cycle). This realizes the §9 design note's
// "type-keyed map... module downcasts" option: State implements
// ModuleStore directly.
type ModuleStore interface {
	// Module returns the current boxed value for name, or nil if absent.
	Module(name string) any
	// SetModule replaces the boxed value for name.
	SetModule(name string, v any)
	// NowMs returns the current wall-clock time in milliseconds, routed
	// through State so refresh hooks stay pure with respect to the
	// system clock (testable with a fake clock).
	NowMs() int64
}

// Hooks is the per-type vtable of §4.2.3. Exactly one Hooks value is
// registered per Type; BuildRequest/Refresh/ApplyCacheUpdate are invoked
// polymorphically by Type via the registry below.
type Hooks interface {
	// BuildRequest shapes a Request from the panel's current metadata, or
	// reports false if no refresh is currently dispatchable (e.g. missing
	// required metadata).
	BuildRequest(e *Element) (Request, bool)

	// Refresh performs the actual work described by req. It must be pure
	// with respect to I/O ordering: safe to run concurrently with other
	// workers processing unrelated requests.
	Refresh(req Request) Update

	// ApplyCacheUpdate absorbs u into e (and, for module-specific
	// updates, into mods) per the §4.2.2 apply semantics. It returns true
	// if the panel's visible content changed.
	ApplyCacheUpdate(u Update, e *Element, mods ModuleStore) bool
}

var (
	registryMu sync.RWMutex
	registry   = map[Type]Hooks{}
)

// Register installs the vtable for t. Called from init() in catalog.go for
// each built-in type; a host program adding a new panel type calls this
// from its own init to extend the tagged union per §9.
func Register(t Type, h Hooks) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = h
}

// Get returns the vtable for t, and false if t has no registered hooks.
func Get(t Type) (Hooks, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	h, ok := registry[t]
	return h, ok
}
