package agent

import (
	"testing"

	"github.com/concilium/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodexLine_AgentMessage(t *testing.T) {
	events := parseCodexLine(`{"type":"agent_message","text":"here is my answer"}`)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeText, events[0].EventType)
	assert.Equal(t, "here is my answer", events[0].Text)
}

func TestParseCodexLine_AgentReasoning(t *testing.T) {
	events := parseCodexLine(`{"type":"agent_reasoning","text":"considering options"}`)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeThinking, events[0].EventType)
}

func TestParseCodexLine_ExecCommandBeginTruncatesLongCommand(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	events := parseCodexLine(`{"type":"exec_command_begin","command":"` + long + `"}`)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeToolCall, events[0].EventType)
	assert.LessOrEqual(t, len(events[0].Text), len("Tool: exec -> ")+60)
}

func TestParseCodexLine_ExecCommandEnd(t *testing.T) {
	events := parseCodexLine(`{"type":"exec_command_end","exit_code":1}`)
	require.Len(t, events, 1)
	assert.Equal(t, "Command finished (exit 1)", events[0].Text)
}

func TestParseCodexLine_TaskCompleteAndError(t *testing.T) {
	events := parseCodexLine(`{"type":"task_complete"}`)
	require.Len(t, events, 1)
	assert.Equal(t, "Run completed", events[0].Text)

	events = parseCodexLine(`{"type":"error","message":"boom"}`)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Text, "boom")
}

func TestParseCodexLine_MalformedFallsBackToRaw(t *testing.T) {
	events := parseCodexLine("not json")
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeRaw, events[0].EventType)
}

func TestParseCodexLine_UnknownTypeDropped(t *testing.T) {
	assert.Nil(t, parseCodexLine(`{"type":"mystery"}`))
}
