// Package message defines the conversation Message record of §3: a typed,
// status-aware unit of transcript content that is filtered and substituted
// when the streaming orchestrator assembles model request context.
package message

import (
	"encoding/json"

	"github.com/bigmoostache/tui-sub000/hashid"
)

// Role is the message author role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind discriminates the three message shapes the orchestrator round-trips
// through model requests.
type Kind string

const (
	KindText       Kind = "text"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
)

// Status governs how a message is presented when building request context.
// Deleted and Detached messages are filtered out entirely; Summarized
// messages substitute TlDr for Content.
type Status string

const (
	StatusFull       Status = "full"
	StatusSummarized Status = "summarized"
	StatusDeleted    Status = "deleted"
	StatusDetached   Status = "detached"
)

// ToolUse is a structured side-effecting invocation emitted by the model.
type ToolUse struct {
	ID    string          `json:"id" yaml:"id"`
	Name  string          `json:"name" yaml:"name"`
	Input json.RawMessage `json:"input" yaml:"input"`
}

// ToolResult is the paired response to a ToolUse.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id" yaml:"tool_use_id"`
	ToolName  string `json:"tool_name" yaml:"tool_name"`
	Content   string `json:"content" yaml:"content"`
	IsError   bool   `json:"is_error" yaml:"is_error"`
}

// Message is the central transcript record described by §3.
type Message struct {
	LocalID string    `json:"local_id" yaml:"local_id"`
	UID     hashid.UID `json:"uid" yaml:"uid"`

	Role Role `json:"role" yaml:"role"`
	Kind Kind `json:"kind" yaml:"kind"`

	Content     string       `json:"content" yaml:"content"`
	ToolUses    []ToolUse    `json:"tool_uses,omitempty" yaml:"tool_uses,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty" yaml:"tool_results,omitempty"`

	Status Status `json:"status" yaml:"status"`
	TlDr   string `json:"tl_dr,omitempty" yaml:"tl_dr,omitempty"`

	ContentTokenCount int `json:"content_token_count" yaml:"content_token_count"`
	TlDrTokenCount    int `json:"tl_dr_token_count" yaml:"tl_dr_token_count"`

	TimestampMs int64 `json:"timestamp_ms" yaml:"timestamp_ms"`
}

// IncludeInContext reports whether the message survives §4.4.1 step 3's
// filter when assembling model request context.
func (m *Message) IncludeInContext() bool {
	return m.Status != StatusDeleted && m.Status != StatusDetached
}

// EffectiveContent returns the text that should be sent to the model in
// place of Content: the TlDr when Summarized, Content otherwise.
func (m *Message) EffectiveContent() string {
	if m.Status == StatusSummarized {
		return m.TlDr
	}
	return m.Content
}

// EffectiveTokenCount returns the token count matching EffectiveContent,
// used by §8's Conversation-panel token-count law.
func (m *Message) EffectiveTokenCount() int {
	if m.Status == StatusSummarized {
		return m.TlDrTokenCount
	}
	return m.ContentTokenCount
}

// HasContentOrToolArtifacts reports whether the message carries anything
// worth sending, used by §4.4.1 step 3 to drop empty placeholder messages.
func (m *Message) HasContentOrToolArtifacts() bool {
	return m.Content != "" || len(m.ToolUses) > 0 || len(m.ToolResults) > 0
}

// EstimateTokens applies the spec's char/4 ceiling estimator (§3).
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}
