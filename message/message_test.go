package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveContentSubstitutesTlDr(t *testing.T) {
	m := &Message{Status: StatusSummarized, Content: "full text", TlDr: "short summary"}
	assert.Equal(t, "short summary", m.EffectiveContent())

	m2 := &Message{Status: StatusFull, Content: "full text"}
	assert.Equal(t, "full text", m2.EffectiveContent())
}

func TestIncludeInContextFiltersDeletedAndDetached(t *testing.T) {
	assert.False(t, (&Message{Status: StatusDeleted}).IncludeInContext())
	assert.False(t, (&Message{Status: StatusDetached}).IncludeInContext())
	assert.True(t, (&Message{Status: StatusFull}).IncludeInContext())
	assert.True(t, (&Message{Status: StatusSummarized}).IncludeInContext())
}

func TestHasContentOrToolArtifacts(t *testing.T) {
	assert.False(t, (&Message{}).HasContentOrToolArtifacts())
	assert.True(t, (&Message{Content: "hi"}).HasContentOrToolArtifacts())
	assert.True(t, (&Message{ToolUses: []ToolUse{{ID: "t1"}}}).HasContentOrToolArtifacts())
	assert.True(t, (&Message{ToolResults: []ToolResult{{ToolUseID: "t1"}}}).HasContentOrToolArtifacts())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}
