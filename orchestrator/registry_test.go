package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concilium/core/agent"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()
	c := agent.NewRunController()

	_, ok := r.Get("run-1")
	assert.False(t, ok)

	r.Put("run-1", c)
	got, ok := r.Get("run-1")
	require.True(t, ok)
	assert.Same(t, c, got)

	r.Remove("run-1")
	_, ok = r.Get("run-1")
	assert.False(t, ok)
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() { r.Remove("nope") })
}

func TestRegistry_All(t *testing.T) {
	r := NewRegistry()
	a := agent.NewRunController()
	b := agent.NewRunController()
	r.Put("run-a", a)
	r.Put("run-b", b)

	all := r.All()
	assert.Len(t, all, 2)
	assert.Same(t, a, all["run-a"])
	assert.Same(t, b, all["run-b"])
}

func TestRegistry_SweepAbandonedEvictsAndCancelsOnlyStaleEntries(t *testing.T) {
	r := NewRegistry()
	stale := agent.NewRunController()
	fresh := agent.NewRunController()

	r.entries["stale"] = &registryEntry{controller: stale, startedAt: time.Now().Add(-time.Hour)}
	r.entries["fresh"] = &registryEntry{controller: fresh, startedAt: time.Now()}

	cleaned := r.sweepAbandoned(time.Now(), 30*time.Minute)

	assert.Equal(t, 1, cleaned)
	assert.True(t, stale.Cancelled())
	assert.False(t, fresh.Cancelled())

	_, ok := r.Get("stale")
	assert.False(t, ok)
	_, ok = r.Get("fresh")
	assert.True(t, ok)
}

func TestRegistry_SweepAbandonedNoStaleEntriesIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Put("run-1", agent.NewRunController())

	cleaned := r.sweepAbandoned(time.Now(), 30*time.Minute)
	assert.Zero(t, cleaned)
	assert.Len(t, r.All(), 1)
}
