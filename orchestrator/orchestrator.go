package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/concilium/core/agent"
	"github.com/concilium/core/config"
	"github.com/concilium/core/council"
	"github.com/concilium/core/eventbus"
	"github.com/concilium/core/gateway"
	"github.com/concilium/core/model"
	"github.com/concilium/core/observability"
)

// RunRepository is the persistence collaborator the Orchestrator depends
// on to finalize a run record. Only the operation the
// orchestrator itself calls is named here; the full RunRepository
// contract (load/list/loadAll) lives in the repository package, which
// implements this interface.
type RunRepository interface {
	Save(ctx context.Context, record *model.RunRecord) (string, error)
}

// GatewayFactory builds an LlmGateway from a resolved GatewayConfig. A
// fresh gateway is constructed per run so that a credential or base-URL
// change picked up by config.Service.Resolve takes effect on the very
// next run without restarting the process.
type GatewayFactory func(cfg config.GatewayConfig) gateway.Gateway

// Params bundles the Orchestrator's fixed collaborators.
type Params struct {
	Providers      agent.Registry
	ConfigService  *config.Service
	GatewayFactory GatewayFactory
	Repository     RunRepository
	Sink           eventbus.Sink
	Logger         Logger
	CoreConfig     *config.CoreConfig
}

// Orchestrator drives the three-stage deliberation pipeline: it owns
// run identity and cancellation scope, and assembles the final RunRecord.
type Orchestrator struct {
	providers      agent.Registry
	configService  *config.Service
	gatewayFactory GatewayFactory
	repo           RunRepository
	sink           eventbus.Sink
	logger         Logger
	coreConfig     *config.CoreConfig
	registry       *Registry
}

// New builds an Orchestrator. A nil Sink is replaced with eventbus.NoopSink,
// a nil Logger with a no-op, and a nil CoreConfig with config.DefaultCoreConfig().
func New(p Params) *Orchestrator {
	sink := p.Sink
	if sink == nil {
		sink = eventbus.NoopSink{}
	}
	logger := p.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	coreConfig := p.CoreConfig
	if coreConfig == nil {
		coreConfig = config.DefaultCoreConfig()
	}
	return &Orchestrator{
		providers:      p.Providers,
		configService:  p.ConfigService,
		gatewayFactory: p.GatewayFactory,
		repo:           p.Repository,
		sink:           sink,
		logger:         logger.Bind("component", "orchestrator"),
		coreConfig:     coreConfig,
		registry:       NewRegistry(),
	}
}

// Run drives the full three-stage pipeline for one prompt
// against the given agent instances, returning the persisted RunRecord.
func (o *Orchestrator) Run(ctx context.Context, prompt string, images []string, instances []model.AgentInstance, workingDirectory string) (*model.RunRecord, error) {
	if err := validateRunInputs(prompt, instances, workingDirectory); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	controller := agent.NewRunController()
	o.registry.Put(runID, controller)
	defer o.registry.Remove(runID)

	ctx, runSpan := observability.StartRunSpan(ctx, runID, prompt)
	defer runSpan.End()

	startedAt := time.Now()
	record, err := o.run(ctx, runID, prompt, images, instances, workingDirectory, controller)
	durationMS := time.Since(startedAt).Milliseconds()

	if err != nil {
		observability.RecordRun("error", durationMS)
		o.sink.RunError(err.Error())
		return nil, err
	}
	observability.RecordRun("success", durationMS)
	return record, nil
}

func (o *Orchestrator) run(ctx context.Context, runID, prompt string, images []string, instances []model.AgentInstance, workingDirectory string, controller *agent.RunController) (*model.RunRecord, error) {
	configs := buildAgentConfigs(instances, workingDirectory)

	ctx, stage1Span := observability.StartStageSpan(ctx, "compete")
	competeStart := time.Now()
	o.sink.StageChange(1, "Competing …")
	for _, cfg := range configs {
		o.sink.AgentStatus(cfg.InstanceKey(), model.AgentStatusQueued, cfg.DisplayName)
	}

	agentResults := agent.RunAgentsParallel(ctx, agent.RunParams{
		Agents: configs,
		Prompt: prompt,
		Images: images,
		Callbacks: agent.Callbacks{
			OnStatus: o.sink.AgentStatus,
			OnEvent:  o.sink.AgentEvent,
		},
		Controller: controller,
		Providers:  o.providers,
	})
	stage1Span.End()
	observability.RecordStageDuration("compete", time.Since(competeStart).Milliseconds())

	if controller.Cancelled() {
		return nil, fmt.Errorf("Run cancelled after Stage 1")
	}

	stage1 := buildStage1Results(agentResults)
	if len(stage1) == 0 {
		return nil, fmt.Errorf("All agents failed or were aborted.")
	}

	gwConfig, err := o.configService.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve gateway config: %w", err)
	}
	gw := o.gatewayFactory(gwConfig)

	ctx, stage23Span := observability.StartStageSpan(ctx, "judge-and-synthesize")
	defer stage23Span.End()
	o.sink.StageChange(2, "Judging …")

	// The council runs Stages 2 and 3 in one call; the synthesis-start
	// callback marks the boundary between the two. Callbacks fire on
	// this goroutine, so no locking is needed around synthesisStart.
	reviewStart := time.Now()
	var synthesisStart time.Time
	councilResult := council.RunCouncilStages(ctx, council.Params{
		Config: council.Config{
			APIKey:        gwConfig.APIKey,
			CouncilModels: gwConfig.CouncilModels,
			ChairmanModel: gwConfig.ChairmanModel,
		},
		UserPrompt:    prompt,
		Stage1Results: stage1,
		Gateway:       gw,
		Callbacks: council.Callbacks{
			OnJurorStatus:   o.sink.JurorStatus,
			OnJurorChunk:    o.sink.JurorChunk,
			OnJurorComplete: o.sink.JurorComplete,
			OnSynthesisStart: func() {
				synthesisStart = time.Now()
				observability.RecordStageDuration("review", synthesisStart.Sub(reviewStart).Milliseconds())
				o.sink.StageChange(3, "Synthesizing …")
				o.sink.SynthesisStart()
			},
		},
	})
	if synthesisStart.IsZero() {
		// A guard branch skipped synthesis; the whole call was review.
		observability.RecordStageDuration("review", time.Since(reviewStart).Milliseconds())
	} else {
		observability.RecordStageDuration("synthesize", time.Since(synthesisStart).Milliseconds())
	}

	if controller.Cancelled() {
		return nil, fmt.Errorf("Run cancelled after Stage 2/3")
	}

	metadata := councilResult.Metadata
	metadata.ModelSnapshots = buildModelSnapshots(configs, agentResults, gw.GetCachedOrFallbackModels())
	metadata.Notes = append(metadata.Notes, resourceAccountingNote(agentResults, councilResult.Stage2, councilResult.Stage3))

	record := &model.RunRecord{
		ID:               runID,
		CreatedAt:        time.Now(),
		Prompt:           prompt,
		WorkingDirectory: workingDirectory,
		SelectedAgents:   selectedAgentKinds(configs),
		Agents:           agentResults,
		Stage1:           stage1,
		Stage2:           councilResult.Stage2,
		Stage3:           councilResult.Stage3,
		Metadata:         metadata,
	}

	if o.repo != nil {
		if _, err := o.repo.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("orchestrator: persist run record: %w", err)
		}
	}

	o.sink.RunComplete(record)
	return record, nil
}

// Cancel fires runID's RunController and removes it from the registry.
func (o *Orchestrator) Cancel(runID string) bool {
	controller, ok := o.registry.Get(runID)
	if !ok {
		return false
	}
	controller.Cancel()
	o.registry.Remove(runID)
	return true
}

// CancelAgent delegates to runID's controller to cancel a single agent.
func (o *Orchestrator) CancelAgent(runID, instanceKey string) bool {
	controller, ok := o.registry.Get(runID)
	if !ok {
		return false
	}
	return controller.CancelAgent(instanceKey)
}

// CancelAll fires every currently registered controller.
func (o *Orchestrator) CancelAll() {
	for runID, controller := range o.registry.All() {
		controller.Cancel()
		o.registry.Remove(runID)
	}
}

// buildAgentConfigs derives AgentConfig from enabled instances only,
// computing each one's displayName as
// "{provider} · {short model}" where short model is the segment
// after the last '/' if the model contains one, else the full model.
func buildAgentConfigs(instances []model.AgentInstance, workingDirectory string) []model.AgentConfig {
	var out []model.AgentConfig
	for _, inst := range instances {
		if !inst.Enabled {
			continue
		}
		out = append(out, model.AgentConfig{
			ID:               inst.Provider,
			InstanceID:       inst.InstanceID,
			DisplayName:      displayName(inst.Provider, inst.Model),
			Model:            inst.Model,
			WorkingDirectory: workingDirectory,
		})
	}
	return out
}

func displayName(provider model.AgentProviderKind, modelName string) string {
	if modelName == "" {
		return string(provider)
	}
	short := modelName
	if idx := strings.LastIndex(modelName, "/"); idx >= 0 {
		short = modelName[idx+1:]
	}
	return fmt.Sprintf("%s · %s", provider, short)
}

// buildStage1Results composes Stage1Result from agents that succeeded
// with a non-empty normalized plan.
func buildStage1Results(results []model.AgentResult) []model.Stage1Result {
	var out []model.Stage1Result
	for _, r := range results {
		if r.Status == model.AgentStatusSuccess && r.NormalizedPlan != "" {
			out = append(out, model.Stage1Result{Model: r.DisplayName, Response: r.NormalizedPlan})
		}
	}
	return out
}

func selectedAgentKinds(configs []model.AgentConfig) []model.AgentProviderKind {
	out := make([]model.AgentProviderKind, 0, len(configs))
	for _, c := range configs {
		out = append(out, c.ID)
	}
	return out
}

// buildModelSnapshots computes a ModelSnapshot for every
// successful agent, keyed by its displayName.
func buildModelSnapshots(configs []model.AgentConfig, results []model.AgentResult, models []gateway.ModelInfo) map[string]model.ModelSnapshot {
	modelByKey := make(map[string]string, len(configs))
	providerByKey := make(map[string]string, len(configs))
	for _, c := range configs {
		modelByKey[c.InstanceKey()] = c.Model
		providerByKey[c.InstanceKey()] = string(c.ID)
	}

	out := make(map[string]model.ModelSnapshot)
	for _, r := range results {
		if r.Status != model.AgentStatusSuccess {
			continue
		}
		modelID := modelByKey[r.ID]
		if modelID == "" {
			continue
		}
		out[r.DisplayName] = council.BuildModelSnapshot(modelID, providerByKey[r.ID], r.StartedAt, r.EndedAt, models)
	}
	return out
}

// resourceAccountingNote summarizes the run's LLM call volume and token
// totals as a single RunMetadata.notes entry. No quota is enforced here,
// only the bookkeeping.
func resourceAccountingNote(agentResults []model.AgentResult, stage2 []model.Stage2Result, stage3 *model.Stage3Result) string {
	calls := len(stage2)
	var promptTokens, completionTokens int

	for _, r := range agentResults {
		// Compact first: a cumulative usage event replaces prior totals,
		// so summing raw events would double-count multi-turn agents.
		for _, e := range model.CompactEvents(r.Events) {
			if e.TokenUsage != nil {
				promptTokens += e.TokenUsage.InputTokens
				completionTokens += e.TokenUsage.OutputTokens
			}
		}
	}
	for _, s2 := range stage2 {
		if s2.Usage != nil {
			promptTokens += s2.Usage.PromptTokens
			completionTokens += s2.Usage.CompletionTokens
		}
	}
	if stage3 != nil {
		calls++
		if stage3.Usage != nil {
			promptTokens += stage3.Usage.PromptTokens
			completionTokens += stage3.Usage.CompletionTokens
		}
	}

	return fmt.Sprintf("resource accounting: %d gateway calls, %d prompt tokens, %d completion tokens",
		calls, promptTokens, completionTokens)
}
