// Package panel implements the ContextElement data model of §3 and the
// per-type polymorphic contract of §4.2.3: a tagged union over panel kinds,
// a static TypeMeta table for the three per-type contract values, and a
// companion vtable (Hooks) supplying the three per-instance hooks.
package panel

import "time"

// Type discriminates the closed set of panel kinds named in §3 and
// cataloged in SPEC_FULL.md §4.1.
type Type string

const (
	TypeSystem              Type = "system"
	TypeConversation        Type = "conversation"
	TypeTree                Type = "tree"
	TypeFile                Type = "file"
	TypeGlob                Type = "glob"
	TypeGrep                Type = "grep"
	TypeTmux                Type = "tmux"
	TypeGit                 Type = "git"
	TypeGitResult           Type = "git_result"
	TypeGithubResult        Type = "github_result"
	TypeTodo                Type = "todo"
	TypeMemory              Type = "memory"
	TypeOverview            Type = "overview"
	TypeScratchpad          Type = "scratchpad"
	TypeConsole             Type = "console"
	TypeSpine               Type = "spine"
	TypeLogs                Type = "logs"
	TypeConversationHistory Type = "conversation_history"
	TypeSkill               Type = "skill"
)

// AllTypes lists the full closed set, used by bootstrap and validation.
func AllTypes() []Type {
	return []Type{
		TypeSystem, TypeConversation, TypeTree, TypeFile, TypeGlob, TypeGrep,
		TypeTmux, TypeGit, TypeGitResult, TypeGithubResult, TypeTodo,
		TypeMemory, TypeOverview, TypeScratchpad, TypeConsole, TypeSpine,
		TypeLogs, TypeConversationHistory, TypeSkill,
	}
}

// TypeMeta carries the §4.2.3 contract values that are the same for every
// instance of a panel type (as opposed to the three per-instance hooks,
// BuildRequest/Refresh/ApplyCacheUpdate, which live on the vtable in
// registry.go).
type TypeMeta struct {
	// NeedsCache is false for panels that render directly from State
	// (Conversation, Todo, Overview, Scratchpad, Spine).
	NeedsCache bool

	// NeedsAsyncWait is true when a tool call affecting this panel must
	// block the next stream until refresh completes (§4.2.4).
	NeedsAsyncWait bool

	// RefreshInterval is non-nil for timer-driven types (§4.2.1 step 2).
	RefreshInterval *time.Duration

	// HasUID is false only for System, whose content comes from config
	// and which therefore has no durable identity (§3 invariant).
	HasUID bool
}

func interval(ms int) *time.Duration {
	d := time.Duration(ms) * time.Millisecond
	return &d
}

// typeMeta is the table backing Meta(Type). Values follow SPEC_FULL.md's
// panel type catalog exactly.
var typeMeta = map[Type]TypeMeta{
	TypeSystem:              {NeedsCache: false, NeedsAsyncWait: false, HasUID: false},
	TypeConversation:        {NeedsCache: false, NeedsAsyncWait: false, HasUID: true},
	TypeTree:                {NeedsCache: true, NeedsAsyncWait: false, HasUID: true},
	TypeFile:                {NeedsCache: true, NeedsAsyncWait: true, HasUID: true},
	TypeGlob:                {NeedsCache: true, NeedsAsyncWait: false, RefreshInterval: interval(3000), HasUID: true},
	TypeGrep:                {NeedsCache: true, NeedsAsyncWait: false, RefreshInterval: interval(3000), HasUID: true},
	TypeTmux:                {NeedsCache: true, NeedsAsyncWait: true, RefreshInterval: interval(2000), HasUID: true},
	TypeGit:                 {NeedsCache: true, NeedsAsyncWait: false, RefreshInterval: interval(5000), HasUID: true},
	TypeGitResult:           {NeedsCache: true, NeedsAsyncWait: true, HasUID: true},
	TypeGithubResult:        {NeedsCache: true, NeedsAsyncWait: true, HasUID: true},
	TypeTodo:                {NeedsCache: false, NeedsAsyncWait: false, HasUID: true},
	TypeMemory:              {NeedsCache: true, NeedsAsyncWait: false, HasUID: true},
	TypeOverview:            {NeedsCache: false, NeedsAsyncWait: false, HasUID: true},
	TypeScratchpad:          {NeedsCache: false, NeedsAsyncWait: false, HasUID: true},
	TypeConsole:             {NeedsCache: true, NeedsAsyncWait: true, HasUID: true},
	TypeSpine:               {NeedsCache: false, NeedsAsyncWait: false, HasUID: true},
	TypeLogs:                {NeedsCache: true, NeedsAsyncWait: false, HasUID: true},
	TypeConversationHistory: {NeedsCache: true, NeedsAsyncWait: false, HasUID: true},
	TypeSkill:               {NeedsCache: true, NeedsAsyncWait: false, HasUID: true},
}

// Meta returns the static contract values for t. The zero TypeMeta is
// returned for an unregistered type; callers needing strict validation
// should cross-check against AllTypes or the vtable registry.
func Meta(t Type) TypeMeta {
	return typeMeta[t]
}
