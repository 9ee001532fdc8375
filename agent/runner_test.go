package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/concilium/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	delay      time.Duration
	result     func(params ExecuteParams) model.AgentResult
	discovered []string
}

func (f fakeProvider) DiscoverModels(ctx context.Context) ([]string, error) {
	return f.discovered, nil
}

func (f fakeProvider) Execute(ctx context.Context, params ExecuteParams) model.AgentResult {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.result != nil {
		return f.result(params)
	}
	return model.AgentResult{
		ID:             params.Agent.InstanceKey(),
		DisplayName:    params.Agent.DisplayName,
		Status:         model.AgentStatusSuccess,
		NormalizedPlan: "ok",
	}
}

func TestRunAgentsParallel_PreservesInputOrderRegardlessOfCompletionOrder(t *testing.T) {
	agents := []model.AgentConfig{
		{ID: model.AgentProviderClaude, InstanceID: "slow", DisplayName: "Slow"},
		{ID: model.AgentProviderCodex, InstanceID: "fast", DisplayName: "Fast"},
	}
	providers := Registry{
		model.AgentProviderClaude: fakeProvider{delay: 30 * time.Millisecond},
		model.AgentProviderCodex:  fakeProvider{},
	}

	results := RunAgentsParallel(context.Background(), RunParams{
		Agents:     agents,
		Controller: NewRunController(),
		Providers:  providers,
	})

	require.Len(t, results, 2)
	assert.Equal(t, "slow", results[0].ID)
	assert.Equal(t, "fast", results[1].ID)
}

func TestRunAgentsParallel_MissingProviderSynthesizesErrorResult(t *testing.T) {
	agents := []model.AgentConfig{
		{ID: model.AgentProviderOpencode, InstanceID: "missing", DisplayName: "Missing"},
	}

	results := RunAgentsParallel(context.Background(), RunParams{
		Agents:     agents,
		Controller: NewRunController(),
		Providers:  Registry{},
	})

	require.Len(t, results, 1)
	assert.Equal(t, model.AgentStatusError, results[0].Status)
	require.Len(t, results[0].Errors, 1)
	assert.Contains(t, results[0].Errors[0], "No provider found")
}

func TestRunAgentsParallel_ControllerCancelledOverridesResultStatus(t *testing.T) {
	controller := NewRunController()
	agents := []model.AgentConfig{
		{ID: model.AgentProviderClaude, InstanceID: "a", DisplayName: "A"},
	}
	providers := Registry{
		model.AgentProviderClaude: fakeProvider{
			result: func(params ExecuteParams) model.AgentResult {
				// Simulate the controller being cancelled mid-flight,
				// before the provider returns its own (successful) result.
				controller.Cancel()
				return model.AgentResult{
					ID:     params.Agent.InstanceKey(),
					Status: model.AgentStatusSuccess,
				}
			},
		},
	}

	results := RunAgentsParallel(context.Background(), RunParams{
		Agents:     agents,
		Controller: controller,
		Providers:  providers,
	})

	require.Len(t, results, 1)
	assert.Equal(t, model.AgentStatusCancelled, results[0].Status)
}

func TestRunAgentsParallel_TrulyConcurrent(t *testing.T) {
	const n = 5
	agents := make([]model.AgentConfig, n)
	for i := range agents {
		agents[i] = model.AgentConfig{ID: model.AgentProviderClaude, InstanceID: string(rune('a' + i))}
	}

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0
	providers := Registry{
		model.AgentProviderClaude: fakeProvider{
			result: func(params ExecuteParams) model.AgentResult {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return model.AgentResult{ID: params.Agent.InstanceKey(), Status: model.AgentStatusSuccess}
			},
		},
	}

	RunAgentsParallel(context.Background(), RunParams{
		Agents:     agents,
		Controller: NewRunController(),
		Providers:  providers,
	})

	assert.Greater(t, maxInFlight, 1, "agents should run concurrently, not sequentially")
}

func TestRunAgentsParallel_UpdateHandleRegistersWithController(t *testing.T) {
	controller := NewRunController()
	agents := []model.AgentConfig{
		{ID: model.AgentProviderClaude, InstanceID: "a"},
	}
	providers := Registry{
		model.AgentProviderClaude: fakeProvider{
			result: func(params ExecuteParams) model.AgentResult {
				require.NotNil(t, params.UpdateHandle)
				params.UpdateHandle(KillHandle{Pid: 12345})
				controller.mu.Lock()
				registered := controller.handles[params.Agent.InstanceKey()]
				controller.mu.Unlock()
				assert.Equal(t, 12345, registered.Pid)
				return model.AgentResult{ID: params.Agent.InstanceKey(), Status: model.AgentStatusSuccess}
			},
		},
	}

	RunAgentsParallel(context.Background(), RunParams{
		Agents:     agents,
		Controller: controller,
		Providers:  providers,
	})
}
