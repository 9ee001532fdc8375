package eventbus

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/concilium/core/model"
)

// listenerEntry holds a subscribed Sink with a unique ID so Subscribe's
// returned unsubscribe func can remove exactly the entry it created.
type listenerEntry struct {
	id   uint64
	sink Sink
}

// InMemoryEventBus fans every Sink notification out to all currently
// subscribed listeners. A run's orchestrator is given one EventBus and
// calls it as the single Sink; callers (a websocket handler, a file logger,
// a test recorder) Subscribe their own Sink to observe the same stream.
//
// Fan-out to listeners runs synchronously in publish order. The pipeline's
// ordering guarantees (per-run event order, exactly one terminal event)
// are only meaningful if listeners see events in the order they were
// emitted, so delivery is deliberately not parallelized per listener.
type InMemoryEventBus struct {
	mu        sync.RWMutex
	listeners []listenerEntry
	nextID    uint64
	logger    *zap.Logger
}

// NewInMemoryEventBus builds an EventBus. A nil logger is replaced with
// zap.NewNop().
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{logger: logger}
}

// Subscribe registers sink to receive every subsequent notification.
// The returned func deregisters it; calling it more than once is a no-op.
func (b *InMemoryEventBus) Subscribe(sink Sink) func() {
	id := atomic.AddUint64(&b.nextID, 1)

	b.mu.Lock()
	b.listeners = append(b.listeners, listenerEntry{id: id, sink: sink})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.listeners {
			if e.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *InMemoryEventBus) snapshot() []Sink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Sink, len(b.listeners))
	for i, e := range b.listeners {
		out[i] = e.sink
	}
	return out
}

func (b *InMemoryEventBus) StageChange(stageNumber int, summary string) {
	for _, s := range b.snapshot() {
		s.StageChange(stageNumber, summary)
	}
}

func (b *InMemoryEventBus) AgentStatus(instanceKey string, status model.AgentStatus, displayName string) {
	for _, s := range b.snapshot() {
		s.AgentStatus(instanceKey, status, displayName)
	}
}

func (b *InMemoryEventBus) AgentEvent(instanceKey string, event model.ParsedEvent) {
	for _, s := range b.snapshot() {
		s.AgentEvent(instanceKey, event)
	}
}

func (b *InMemoryEventBus) JurorStatus(modelName string, status model.JurorStatus) {
	for _, s := range b.snapshot() {
		s.JurorStatus(modelName, status)
	}
}

func (b *InMemoryEventBus) JurorChunk(modelName string, chunk string) {
	for _, s := range b.snapshot() {
		s.JurorChunk(modelName, chunk)
	}
}

func (b *InMemoryEventBus) JurorComplete(modelName string, success bool, usage *model.Usage) {
	for _, s := range b.snapshot() {
		s.JurorComplete(modelName, success, usage)
	}
}

func (b *InMemoryEventBus) SynthesisStart() {
	for _, s := range b.snapshot() {
		s.SynthesisStart()
	}
}

func (b *InMemoryEventBus) RunComplete(record *model.RunRecord) {
	b.logger.Debug("run_complete", zap.String("runId", record.ID))
	for _, s := range b.snapshot() {
		s.RunComplete(record)
	}
}

func (b *InMemoryEventBus) RunError(message string) {
	b.logger.Warn("run_error", zap.String("message", message))
	for _, s := range b.snapshot() {
		s.RunError(message)
	}
}

var _ Sink = (*InMemoryEventBus)(nil)
