package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/concilium/core/model"
	"github.com/concilium/core/observability"
)

// RunParams bundles RunAgentsParallel's inputs.
type RunParams struct {
	Agents     []model.AgentConfig
	Prompt     string
	Images     []string
	Callbacks  Callbacks
	Controller *RunController
	Providers  Registry
}

// RunAgentsParallel launches one task per agent, all running concurrently,
// and returns their results in the same order as params.Agents regardless
// of completion order.
func RunAgentsParallel(ctx context.Context, params RunParams) []model.AgentResult {
	results := make([]model.AgentResult, len(params.Agents))

	var wg sync.WaitGroup
	for i, cfg := range params.Agents {
		wg.Add(1)
		go func(idx int, cfg model.AgentConfig) {
			defer wg.Done()
			results[idx] = runOne(ctx, cfg, params)
		}(i, cfg)
	}
	wg.Wait()

	return results
}

func runOne(ctx context.Context, cfg model.AgentConfig, params RunParams) model.AgentResult {
	instanceKey := cfg.InstanceKey()

	provider, ok := params.Providers.Lookup(cfg.ID)
	if !ok {
		params.Callbacks.emitStatus(instanceKey, model.AgentStatusError, cfg.DisplayName)
		now := stableNow()
		return model.AgentResult{
			ID:          instanceKey,
			InstanceID:  cfg.InstanceID,
			DisplayName: cfg.DisplayName,
			Status:      model.AgentStatusError,
			StartedAt:   now,
			EndedAt:     now,
			Errors:      []string{fmt.Sprintf("No provider found for agent type %q", cfg.ID)},
		}
	}

	token, cancel := NewCancelToken(ctx)
	handle := KillHandle{Abort: cancel}
	params.Controller.Register(instanceKey, handle)
	defer params.Controller.Unregister(instanceKey)

	startedAt := time.Now()
	result := provider.Execute(ctx, ExecuteParams{
		Agent:       cfg,
		Prompt:      params.Prompt,
		Images:      params.Images,
		Callbacks:   params.Callbacks,
		CancelToken: token,
		UpdateHandle: func(h KillHandle) {
			params.Controller.Register(instanceKey, h)
		},
	})
	durationMS := time.Since(startedAt).Milliseconds()

	if params.Controller.Cancelled() {
		result.Status = model.AgentStatusCancelled
	}

	observability.RecordAgentExecution(string(cfg.ID), string(result.Status), durationMS)
	var inputTokens, outputTokens int
	for _, e := range result.Events {
		if e.TokenUsage != nil {
			inputTokens += e.TokenUsage.InputTokens
			outputTokens += e.TokenUsage.OutputTokens
		}
	}
	observability.RecordAgentTokens(string(cfg.ID), inputTokens, outputTokens)

	return result
}

// stableNow exists so the zero-provider error path has a single place to
// source its timestamp, matching AgentResult's startedAt/endedAt contract
// even though no process was ever spawned.
func stableNow() time.Time {
	return time.Now()
}
