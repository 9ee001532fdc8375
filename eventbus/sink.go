package eventbus

import "github.com/concilium/core/model"

// Sink is the EventSink protocol: the one-way notifications the
// orchestrator and its components emit as a run progresses. Implementations
// must not block the pipeline for long. InMemoryEventBus (bus.go) calls its
// listeners synchronously in publish order, so a slow listener delays the
// caller.
type Sink interface {
	StageChange(stageNumber int, summary string)
	AgentStatus(instanceKey string, status model.AgentStatus, displayName string)
	AgentEvent(instanceKey string, event model.ParsedEvent)
	JurorStatus(modelName string, status model.JurorStatus)
	JurorChunk(modelName string, chunk string)
	JurorComplete(modelName string, success bool, usage *model.Usage)
	SynthesisStart()
	RunComplete(record *model.RunRecord)
	RunError(message string)
}

// NoopSink discards every notification. Useful as a default when the
// caller does not care about progress events.
type NoopSink struct{}

func (NoopSink) StageChange(int, string)                       {}
func (NoopSink) AgentStatus(string, model.AgentStatus, string) {}
func (NoopSink) AgentEvent(string, model.ParsedEvent)          {}
func (NoopSink) JurorStatus(string, model.JurorStatus)         {}
func (NoopSink) JurorChunk(string, string)                     {}
func (NoopSink) JurorComplete(string, bool, *model.Usage)      {}
func (NoopSink) SynthesisStart()                               {}
func (NoopSink) RunComplete(*model.RunRecord)                  {}
func (NoopSink) RunError(string)                               {}

var _ Sink = NoopSink{}
