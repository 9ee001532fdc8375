package model

import "time"

// AgentInstance is created by the caller and is immutable during a run.
type AgentInstance struct {
	InstanceID string            `json:"instanceId"`
	Provider   AgentProviderKind `json:"provider"`
	Model      string            `json:"model,omitempty"`
	Enabled    bool              `json:"enabled"`
}

// AgentConfig is derived per-instance at run start.
type AgentConfig struct {
	ID               AgentProviderKind `json:"id"`
	InstanceID       string            `json:"instanceId"`
	DisplayName      string            `json:"displayName"`
	Model            string            `json:"model,omitempty"`
	WorkingDirectory string            `json:"workingDirectory"`
	Environment      map[string]string `json:"environment,omitempty"`
}

// InstanceKey is the key used to address an agent for status/event/cancel
// purposes: instanceId if present, else the provider kind.
func (c AgentConfig) InstanceKey() string {
	if c.InstanceID != "" {
		return c.InstanceID
	}
	return string(c.ID)
}

// TokenUsage reports token counts and optional cost for one ParsedEvent.
type TokenUsage struct {
	InputTokens  int      `json:"inputTokens"`
	OutputTokens int      `json:"outputTokens"`
	TotalCost    *float64 `json:"totalCost,omitempty"`
}

// ParsedEvent is the common shape every AgentProvider parser normalizes
// its native streaming protocol into.
type ParsedEvent struct {
	EventType            EventType   `json:"eventType"`
	Text                 string      `json:"text"`
	RawLine              string      `json:"rawLine,omitempty"`
	TokenUsage           *TokenUsage `json:"tokenUsage,omitempty"`
	TokenUsageCumulative bool        `json:"tokenUsageCumulative,omitempty"`
}

// AgentResult is the normalized outcome of one agent execution.
// Invariant: Status == success implies NormalizedPlan is non-empty.
type AgentResult struct {
	ID             string        `json:"id"`
	InstanceID     string        `json:"instanceId,omitempty"`
	DisplayName    string        `json:"displayName"`
	Status         AgentStatus   `json:"status"`
	StartedAt      time.Time     `json:"startedAt"`
	EndedAt        time.Time     `json:"endedAt"`
	NormalizedPlan string        `json:"normalizedPlan"`
	Errors         []string      `json:"errors,omitempty"`
	Command        []string      `json:"command,omitempty"`
	Events         []ParsedEvent `json:"events"`
}

// Stage1Result is built only from successful AgentResults.
type Stage1Result struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Stage2Result is one juror's ranking outcome.
type Stage2Result struct {
	Model         string    `json:"model"`
	Ranking       string    `json:"ranking"`
	ParsedRanking []string  `json:"parsedRanking"`
	Usage         *Usage    `json:"usage,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	EstimatedCost *float64  `json:"estimatedCost,omitempty"`
}

// Stage3Result is the chairman's synthesized answer.
type Stage3Result struct {
	Model         string    `json:"model"`
	Response      string    `json:"response"`
	Usage         *Usage    `json:"usage,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	EstimatedCost *float64  `json:"estimatedCost,omitempty"`
}

// Usage is a token usage tally attached to a gateway response.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// AggregateRanking is one model's position in the overall jury verdict.
type AggregateRanking struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"averageRank"`
	RankingsCount int     `json:"rankingsCount"`
}

// ModelSnapshot records the pricing/latency profile observed for a model
// during a run, for later analytics.
type ModelSnapshot struct {
	ModelID         string    `json:"modelId"`
	Provider        string    `json:"provider,omitempty"`
	CostPer1kTokens *float64  `json:"costPer1kTokens,omitempty"`
	LatencyMs       int64     `json:"latencyMs"`
	SpeedTier       SpeedTier `json:"speedTier"`
}

// RunMetadata carries everything computed about a run that isn't itself
// a stage result: the blind-labeling map, aggregate rankings, notes, and
// per-model snapshots.
type RunMetadata struct {
	LabelToModel      map[string]string        `json:"labelToModel,omitempty"`
	AggregateRankings []AggregateRanking       `json:"aggregateRankings,omitempty"`
	Notes             []string                 `json:"notes,omitempty"`
	ModelSnapshots    map[string]ModelSnapshot `json:"modelSnapshots,omitempty"`
}

// RunRecord is created once per run and never mutated after persist.
type RunRecord struct {
	ID               string              `json:"id"`
	CreatedAt        time.Time           `json:"createdAt"`
	Prompt           string              `json:"prompt"`
	WorkingDirectory string              `json:"workingDirectory"`
	SelectedAgents   []AgentProviderKind `json:"selectedAgents"`
	Agents           []AgentResult       `json:"agents"`
	Stage1           []Stage1Result      `json:"stage1"`
	Stage2           []Stage2Result      `json:"stage2"`
	Stage3           *Stage3Result       `json:"stage3,omitempty"`
	Metadata         RunMetadata         `json:"metadata"`
}

// RunSummary is the compact projection RunRepository.list returns.
type RunSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	PromptPreview string    `json:"promptPreview"`
	Status        RunStatus `json:"status"`
}

// DeriveStatus summarizes a record's agents into a single status:
// success if all agents succeeded, running if any is still running,
// partial_error if any errored, otherwise mixed.
func (r RunRecord) DeriveStatus() RunStatus {
	if len(r.Agents) == 0 {
		return RunStatusMixed
	}
	allSuccess := true
	anyRunning := false
	anyError := false
	for _, a := range r.Agents {
		switch a.Status {
		case AgentStatusSuccess:
		default:
			allSuccess = false
		}
		if a.Status == AgentStatusRunning || a.Status == AgentStatusQueued {
			anyRunning = true
		}
		if a.Status == AgentStatusError {
			anyError = true
		}
	}
	if allSuccess {
		return RunStatusSuccess
	}
	if anyRunning {
		return RunStatusRunning
	}
	if anyError {
		return RunStatusPartialError
	}
	return RunStatusMixed
}

// PromptPreview returns the first n runes of the prompt, safe for
// prompts shorter than n.
func PromptPreview(prompt string, n int) string {
	r := []rune(prompt)
	if len(r) <= n {
		return prompt
	}
	return string(r[:n])
}
