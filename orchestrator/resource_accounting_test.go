package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concilium/core/model"
)

func TestResourceAccountingNote_SumsTokensAcrossAgentsAndCouncil(t *testing.T) {
	agents := []model.AgentResult{
		{Events: []model.ParsedEvent{
			{TokenUsage: &model.TokenUsage{InputTokens: 10, OutputTokens: 5}},
			{TokenUsage: &model.TokenUsage{InputTokens: 2, OutputTokens: 1}},
		}},
	}
	stage2 := []model.Stage2Result{
		{Usage: &model.Usage{PromptTokens: 100, CompletionTokens: 50}},
		{Usage: &model.Usage{PromptTokens: 100, CompletionTokens: 50}},
	}
	stage3 := &model.Stage3Result{Usage: &model.Usage{PromptTokens: 40, CompletionTokens: 20}}

	note := resourceAccountingNote(agents, stage2, stage3)

	assert.Contains(t, note, "3 gateway calls")
	assert.Contains(t, note, "252 prompt tokens")
	assert.Contains(t, note, "126 completion tokens")
}

func TestResourceAccountingNote_CumulativeEventReplacesPriorTotals(t *testing.T) {
	// Per-turn non-cumulative usages followed by a cumulative terminal
	// event carrying the run's grand total: only the grand total counts.
	agents := []model.AgentResult{
		{Events: []model.ParsedEvent{
			{TokenUsage: &model.TokenUsage{InputTokens: 10, OutputTokens: 5}},
			{TokenUsage: &model.TokenUsage{InputTokens: 7, OutputTokens: 3}},
			{TokenUsage: &model.TokenUsage{InputTokens: 100, OutputTokens: 50}, TokenUsageCumulative: true},
		}},
	}

	note := resourceAccountingNote(agents, nil, nil)

	assert.Contains(t, note, "100 prompt tokens")
	assert.Contains(t, note, "50 completion tokens")
}

func TestResourceAccountingNote_NoStage3IsNotCountedAsACall(t *testing.T) {
	note := resourceAccountingNote(nil, []model.Stage2Result{{}}, nil)
	assert.Contains(t, note, "1 gateway calls")
}
