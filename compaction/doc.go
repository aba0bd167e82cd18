// Package compaction implements threshold-triggered context cleaning.
//
// Rather than an algorithmic summarizer running outside the model's view,
// cleaning here is agentic: once the context budget crosses a threshold, the
// orchestrator runs a sub-turn restricted to a handful of shrinking tools
// (close_panel, message_status, todo_add, todo_toggle, memory_write) and lets
// the model decide what to cut. This mirrors the original implementation's
// context_cleaner rather than the summarize-then-archive pipeline a
// Postgres-backed agent would need.
package compaction
