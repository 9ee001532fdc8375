// Package agent implements the Agent Runner and the Agent Provider
// contract: launching one external coding-agent subprocess (or SDK
// session) per enabled AgentInstance, parsing its native streaming
// protocol into the common ParsedEvent shape, and returning a normalized
// AgentResult.
package agent

import (
	"context"

	"github.com/concilium/core/model"
)

// Callbacks are the Agent Runner's forwarding hooks, ultimately backed by
// an eventbus.Sink but kept provider-agnostic here so providers don't
// depend on the eventbus package.
type Callbacks struct {
	OnStatus func(instanceKey string, status model.AgentStatus, displayName string)
	OnEvent  func(instanceKey string, event model.ParsedEvent)
}

func (c Callbacks) emitStatus(instanceKey string, status model.AgentStatus, displayName string) {
	if c.OnStatus != nil {
		c.OnStatus(instanceKey, status, displayName)
	}
}

func (c Callbacks) emitEvent(instanceKey string, event model.ParsedEvent) {
	if c.OnEvent != nil {
		c.OnEvent(instanceKey, event)
	}
}

// ExecuteParams bundles one agent execution's inputs.
type ExecuteParams struct {
	Agent       model.AgentConfig
	Prompt      string
	Images      []string
	Callbacks   Callbacks
	CancelToken *CancelToken

	// UpdateHandle lets a subprocess-backed provider replace the
	// Abort-only KillHandle the runner registered at launch with one
	// carrying the real process-group pid, once the subprocess exists.
	UpdateHandle func(KillHandle)
}

// Provider is the per-kind capability contract: discover
// available models for this provider kind, and execute one agent run.
type Provider interface {
	DiscoverModels(ctx context.Context) ([]string, error)
	Execute(ctx context.Context, params ExecuteParams) model.AgentResult
}

// Registry looks up a Provider by kind.
type Registry map[model.AgentProviderKind]Provider

// Lookup returns the provider for kind, or ok=false if none is registered.
func (r Registry) Lookup(kind model.AgentProviderKind) (Provider, bool) {
	p, ok := r[kind]
	return p, ok
}
