package panel

// UpdateKind discriminates the three CacheUpdate shapes of §4.2.
type UpdateKind string

const (
	// UpdateContent carries freshly-computed generic panel content.
	UpdateContent UpdateKind = "content"
	// UpdateUnchanged signals the source hash matched; no content mutation.
	UpdateUnchanged UpdateKind = "unchanged"
	// UpdateModuleSpecific carries typed auxiliary data for a module
	// substate, in addition to (optionally) generic content.
	UpdateModuleSpecific UpdateKind = "module_specific"
)

// Update is the CacheUpdate of §4.2: the result of a worker's refresh,
// sent back on the cache engine's single shared reply channel and drained
// by the event loop each tick.
type Update struct {
	Kind      UpdateKind
	ContextID string

	// Populated for UpdateContent and UpdateModuleSpecific.
	Content       string
	HasContent    bool
	TokenCount    int
	NewSourceHash string

	// Populated for UpdateModuleSpecific.
	ModuleName string
	ModuleData any

	// Err is set when the refresh itself failed (§7 "Cache failure"):
	// the apply function still runs and writes a visible error string
	// into cached_content so the panel continues to render.
	Err error
}
