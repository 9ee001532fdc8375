package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactEvents_SumsNonCumulativeReplacesOnCumulative(t *testing.T) {
	events := []ParsedEvent{
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 20}},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 5, OutputTokens: 5}},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 0, OutputTokens: 3}},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 100, OutputTokens: 50}, TokenUsageCumulative: true},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 1, OutputTokens: 1}},
	}

	got := CompactEvents(events)

	require.Len(t, got, 1)
	assert.True(t, got[0].TokenUsageCumulative)
	assert.Equal(t, 101, got[0].TokenUsage.InputTokens)
	assert.Equal(t, 51, got[0].TokenUsage.OutputTokens)
}

func TestCompactEvents_PassesThroughNonUsageEventsInOrder(t *testing.T) {
	events := []ParsedEvent{
		{EventType: EventTypeText, Text: "first"},
		{EventType: EventTypeToolCall, Text: "tool"},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 1, OutputTokens: 1}},
	}

	got := CompactEvents(events)

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "tool", got[1].Text)
	assert.True(t, got[2].TokenUsageCumulative)
}

func TestCompactEvents_NoUsageEventsLeavesListUnchanged(t *testing.T) {
	events := []ParsedEvent{
		{EventType: EventTypeText, Text: "a"},
		{EventType: EventTypeRaw, RawLine: "raw line"},
	}

	got := CompactEvents(events)
	assert.Equal(t, events, got)
}

func TestCompactEvents_IsFixedPoint(t *testing.T) {
	events := []ParsedEvent{
		{EventType: EventTypeText, Text: "first"},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 20}},
		{EventType: EventTypeStatus, TokenUsage: &TokenUsage{InputTokens: 5, OutputTokens: 5}, TokenUsageCumulative: true},
	}

	once := CompactEvents(events)
	twice := CompactEvents(once)
	assert.Equal(t, once, twice)
}
