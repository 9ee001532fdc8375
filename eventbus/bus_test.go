package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concilium/core/model"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recordingSink) StageChange(stageNumber int, summary string) { r.record("stage") }
func (r *recordingSink) AgentStatus(instanceKey string, status model.AgentStatus, displayName string) {
	r.record("agent:status")
}
func (r *recordingSink) AgentEvent(instanceKey string, event model.ParsedEvent) {
	r.record("agent:event")
}
func (r *recordingSink) JurorStatus(modelName string, status model.JurorStatus) {
	r.record("juror:status")
}
func (r *recordingSink) JurorChunk(modelName string, chunk string) { r.record("juror:chunk") }
func (r *recordingSink) JurorComplete(modelName string, success bool, usage *model.Usage) {
	r.record("juror:complete")
}
func (r *recordingSink) SynthesisStart()                     { r.record("synthesis:start") }
func (r *recordingSink) RunComplete(record *model.RunRecord) { r.record("run:complete") }
func (r *recordingSink) RunError(message string)             { r.record("run:error") }

func TestInMemoryEventBus_FansOutToAllListeners(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	a := &recordingSink{}
	b := &recordingSink{}
	bus.Subscribe(a)
	bus.Subscribe(b)

	bus.StageChange(1, "Competing …")
	bus.AgentStatus("inst-1", model.AgentStatusRunning, "claude")

	assert.Equal(t, []string{"stage", "agent:status"}, a.events)
	assert.Equal(t, []string{"stage", "agent:status"}, b.events)
}

func TestInMemoryEventBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	a := &recordingSink{}
	unsubscribe := bus.Subscribe(a)

	bus.StageChange(1, "first")
	unsubscribe()
	bus.StageChange(2, "second")

	assert.Equal(t, []string{"stage"}, a.events)
}

func TestInMemoryEventBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	a := &recordingSink{}
	unsubscribe := bus.Subscribe(a)

	unsubscribe()
	assert.NotPanics(t, func() { unsubscribe() })
}

func TestInMemoryEventBus_ImplementsSink(t *testing.T) {
	var _ Sink = NewInMemoryEventBus(nil)
	require.True(t, true)
}
