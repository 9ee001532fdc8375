package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentConfig_InstanceKey(t *testing.T) {
	withID := AgentConfig{ID: AgentProviderClaude, InstanceID: "abc"}
	assert.Equal(t, "abc", withID.InstanceKey())

	withoutID := AgentConfig{ID: AgentProviderCodex}
	assert.Equal(t, "codex", withoutID.InstanceKey())
}

func TestRunRecord_DeriveStatus(t *testing.T) {
	cases := []struct {
		name   string
		agents []AgentResult
		want   RunStatus
	}{
		{"all success", []AgentResult{{Status: AgentStatusSuccess}, {Status: AgentStatusSuccess}}, RunStatusSuccess},
		{"one running", []AgentResult{{Status: AgentStatusSuccess}, {Status: AgentStatusRunning}}, RunStatusRunning},
		{"one error", []AgentResult{{Status: AgentStatusSuccess}, {Status: AgentStatusError}}, RunStatusPartialError},
		{"mixed terminal", []AgentResult{{Status: AgentStatusSuccess}, {Status: AgentStatusCancelled}}, RunStatusMixed},
		{"no agents", nil, RunStatusMixed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := RunRecord{Agents: c.agents}
			assert.Equal(t, c.want, r.DeriveStatus())
		})
	}
}

func TestPromptPreview(t *testing.T) {
	assert.Equal(t, "short", PromptPreview("short", 70))
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	preview := PromptPreview(long, 70)
	assert.Len(t, []rune(preview), 70)
}

func TestAgentStatus_IsTerminal(t *testing.T) {
	assert.False(t, AgentStatusQueued.IsTerminal())
	assert.False(t, AgentStatusRunning.IsTerminal())
	for _, s := range []AgentStatus{AgentStatusSuccess, AgentStatusError, AgentStatusCancelled, AgentStatusAborted} {
		assert.True(t, s.IsTerminal())
	}
}

func TestAgentResult_JSONRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	r := AgentResult{
		ID:             "inst-1",
		DisplayName:    "claude · opus",
		Status:         AgentStatusSuccess,
		StartedAt:      now,
		EndedAt:        now,
		NormalizedPlan: "plan text",
		Events: []ParsedEvent{
			{EventType: EventTypeText, Text: "hello"},
		},
	}
	assert.Equal(t, AgentStatusSuccess, r.Status)
	assert.NotEmpty(t, r.NormalizedPlan)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var back AgentResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}
