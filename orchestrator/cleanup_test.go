package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/concilium/core/agent"
)

func TestStartCleanupLoop_EvictsAbandonedControllers(t *testing.T) {
	orch := newTestOrchestrator(&fakeGateway{}, &fakeRepository{}, agent.Registry{})
	stale := agent.NewRunController()
	orch.registry.entries["stale"] = &registryEntry{controller: stale, startedAt: time.Now().Add(-time.Hour)}

	stop := orch.StartCleanupLoop(5*time.Millisecond, 30*time.Minute)
	defer stop()

	assert.Eventually(t, func() bool {
		_, ok := orch.registry.Get("stale")
		return !ok && stale.Cancelled()
	}, 200*time.Millisecond, 5*time.Millisecond)
}

func TestStartCleanupLoop_StopIsIdempotent(t *testing.T) {
	orch := newTestOrchestrator(&fakeGateway{}, &fakeRepository{}, agent.Registry{})
	stop := orch.StartCleanupLoop(time.Minute, time.Minute)
	assert.NotPanics(t, func() {
		stop()
		stop()
	})
}

func TestStartCleanupLoop_NonPositiveDurationsFallBackToDefaults(t *testing.T) {
	orch := newTestOrchestrator(&fakeGateway{}, &fakeRepository{}, agent.Registry{})
	stop := orch.StartCleanupLoop(0, -time.Second)
	stop()
}
