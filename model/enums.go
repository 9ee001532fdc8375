// Package model defines the data shapes shared by every stage of the
// deliberation pipeline: agent configuration, parsed provider events,
// per-stage results, and the final run record.
package model

// AgentProviderKind identifies which external coding-agent backs an
// AgentInstance.
type AgentProviderKind string

const (
	AgentProviderClaude   AgentProviderKind = "claude"
	AgentProviderCodex    AgentProviderKind = "codex"
	AgentProviderOpencode AgentProviderKind = "opencode"
)

// AgentStatus is the agent lifecycle state machine: queued -> running ->
// {success | error | cancelled | aborted}. Terminal states are absorbing.
type AgentStatus string

const (
	AgentStatusQueued    AgentStatus = "queued"
	AgentStatusRunning   AgentStatus = "running"
	AgentStatusSuccess   AgentStatus = "success"
	AgentStatusError     AgentStatus = "error"
	AgentStatusCancelled AgentStatus = "cancelled"
	AgentStatusAborted   AgentStatus = "aborted"
)

// IsTerminal reports whether the status is one of the pipeline's
// absorbing terminal states.
func (s AgentStatus) IsTerminal() bool {
	switch s {
	case AgentStatusSuccess, AgentStatusError, AgentStatusCancelled, AgentStatusAborted:
		return true
	default:
		return false
	}
}

// EventType is the closed tag set for ParsedEvent. Consumers should be
// exhaustive over it.
type EventType string

const (
	EventTypeText     EventType = "text"
	EventTypeThinking EventType = "thinking"
	EventTypeToolCall EventType = "tool_call"
	EventTypeStatus   EventType = "status"
	EventTypeRaw      EventType = "raw"
)

// JurorStatus is the lifecycle of a single juror's ranking call.
type JurorStatus string

const (
	JurorStatusEvaluating JurorStatus = "evaluating"
	JurorStatusComplete   JurorStatus = "complete"
	JurorStatusFailed     JurorStatus = "failed"
)

// RunStatus is the derived summary status used by RunRepository.list.
type RunStatus string

const (
	RunStatusSuccess      RunStatus = "success"
	RunStatusRunning      RunStatus = "running"
	RunStatusPartialError RunStatus = "partial_error"
	RunStatusMixed        RunStatus = "mixed"
)

// SpeedTier classifies a model snapshot by observed latency.
type SpeedTier string

const (
	SpeedTierFast     SpeedTier = "fast"
	SpeedTierBalanced SpeedTier = "balanced"
	SpeedTierSlow     SpeedTier = "slow"
)
