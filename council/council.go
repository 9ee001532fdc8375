// Package council implements Stage 2 (parallel juror ranking) and
// Stage 3 (chairman synthesis) of the deliberation pipeline.
package council

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/concilium/core/gateway"
	"github.com/concilium/core/model"
	"github.com/concilium/core/observability"
)

// synthesisTimeout bounds the Stage 3 chairman call.
const synthesisTimeout = 180 * time.Second

// Config is the subset of gateway/model configuration the Council
// Pipeline needs: an API key gate, and the model rosters for the two
// stages.
type Config struct {
	APIKey        string
	CouncilModels []string
	ChairmanModel string
}

// Callbacks are the Council Pipeline's EventSink-forwarding hooks,
// mirroring eventbus.Sink's juror/synthesis methods without depending
// on that package.
type Callbacks struct {
	OnJurorStatus    func(modelName string, status model.JurorStatus)
	OnJurorChunk     func(modelName string, chunk string)
	OnJurorComplete  func(modelName string, success bool, usage *model.Usage)
	OnSynthesisStart func()
}

func (c Callbacks) jurorStatus(m string, s model.JurorStatus) {
	if c.OnJurorStatus != nil {
		c.OnJurorStatus(m, s)
	}
}

func (c Callbacks) jurorChunk(m, chunk string) {
	if c.OnJurorChunk != nil {
		c.OnJurorChunk(m, chunk)
	}
}

func (c Callbacks) jurorComplete(m string, success bool, usage *model.Usage) {
	if c.OnJurorComplete != nil {
		c.OnJurorComplete(m, success, usage)
	}
}

func (c Callbacks) synthesisStart() {
	if c.OnSynthesisStart != nil {
		c.OnSynthesisStart()
	}
}

// Params bundles RunCouncilStages' inputs.
type Params struct {
	Config        Config
	UserPrompt    string
	Stage1Results []model.Stage1Result
	Callbacks     Callbacks
	Gateway       gateway.Gateway
}

// Result is RunCouncilStages' output triple.
type Result struct {
	Stage2   []model.Stage2Result
	Stage3   *model.Stage3Result
	Metadata model.RunMetadata
}

// RunCouncilStages drives Stage 2 and Stage 3 against params.Gateway,
// returning the juror rankings, the chairman's synthesis, and the
// aggregated metadata. It never returns an error: every failure mode
// it can encounter (missing API key, too few Stage 1 results, all
// jurors failing) is modeled as a degraded-but-valid Result.
func RunCouncilStages(ctx context.Context, params Params) Result {
	if params.Config.APIKey == "" {
		return Result{
			Stage2: nil,
			Stage3: &model.Stage3Result{
				Model:    "chairman-unavailable",
				Response: "Stage 2/3 are unavailable because no gateway API key is configured.",
			},
			Metadata: model.RunMetadata{
				Notes: []string{"OPENROUTER_API_KEY is missing, Stage 2 and Stage 3 were skipped."},
			},
		}
	}

	if len(params.Stage1Results) < 2 {
		response := "Insufficient Stage 1 outputs to run a council; returning the only available response."
		if len(params.Stage1Results) == 1 {
			response = params.Stage1Results[0].Response
		}
		return Result{
			Stage2: nil,
			Stage3: &model.Stage3Result{
				Model:    params.Config.ChairmanModel,
				Response: response,
			},
			Metadata: model.RunMetadata{
				Notes: []string{"Fewer than two Stage 1 results were available; ranking was skipped."},
			},
		}
	}

	rankingPrompt, labelToModel := buildRankingPrompt(params.Stage1Results)

	stage2, notes := runStage2(ctx, params, rankingPrompt)

	metadata := model.RunMetadata{
		LabelToModel: labelToModel,
		Notes:        notes,
	}

	if len(stage2) == 0 {
		metadata.Notes = append(metadata.Notes, "All Stage 2 ranking calls failed.")
		return Result{
			Stage2: stage2,
			Stage3: &model.Stage3Result{
				Model: params.Config.ChairmanModel,
				Response: "All Stage 2 ranking calls failed. Showing first Stage 1 plan as degraded fallback:\n\n" +
					params.Stage1Results[0].Response,
			},
			Metadata: metadata,
		}
	}

	metadata.AggregateRankings = aggregateRankings(stage2, labelToModel)

	stage3 := runStage3(ctx, params, stage2)

	return Result{Stage2: stage2, Stage3: stage3, Metadata: metadata}
}

func runStage2(ctx context.Context, params Params, rankingPrompt string) ([]model.Stage2Result, []string) {
	var notes []string

	// The gateway invokes these callbacks from one goroutine per model.
	var timesMu sync.Mutex
	startedAt := make(map[string]time.Time)
	endedAt := make(map[string]time.Time)

	responses := params.Gateway.QueryModelsParallelStreaming(
		ctx,
		params.Config.CouncilModels,
		[]gateway.Message{{Role: "user", Content: rankingPrompt}},
		func(m string) {
			timesMu.Lock()
			startedAt[m] = time.Now()
			timesMu.Unlock()
			params.Callbacks.jurorStatus(m, model.JurorStatusEvaluating)
		},
		func(m string, chunk string) {
			params.Callbacks.jurorChunk(m, chunk)
		},
		func(m string, resp *gateway.Response) {
			timesMu.Lock()
			endedAt[m] = time.Now()
			timesMu.Unlock()
			params.Callbacks.jurorComplete(m, resp != nil, toModelUsage(respUsage(resp)))
		},
	)

	var results []model.Stage2Result
	models := append([]string{}, params.Config.CouncilModels...)
	for _, m := range models {
		resp := responses[m]
		durationMS := endedAt[m].Sub(startedAt[m]).Milliseconds()
		if resp == nil {
			observability.RecordJurorCall(m, string(model.JurorStatusFailed), durationMS)
			notes = append(notes, fmt.Sprintf("Ranking model failed: %s", m))
			continue
		}
		observability.RecordJurorCall(m, string(model.JurorStatusComplete), durationMS)

		estimatedCost := estimateCost(respUsage(resp), m, params.Gateway.GetCachedOrFallbackModels())
		if estimatedCost != nil {
			observability.RecordEstimatedCost(m, *estimatedCost)
		}
		results = append(results, model.Stage2Result{
			Model:         m,
			Ranking:       resp.Content,
			ParsedRanking: parseRanking(resp.Content),
			Usage:         toModelUsage(respUsage(resp)),
			StartedAt:     startedAt[m],
			EndedAt:       endedAt[m],
			EstimatedCost: estimatedCost,
		})
	}

	return results, notes
}

func runStage3(ctx context.Context, params Params, stage2 []model.Stage2Result) *model.Stage3Result {
	params.Callbacks.synthesisStart()

	synthesisPrompt := buildSynthesisPrompt(params.UserPrompt, params.Stage1Results, stage2)

	startedAt := time.Now()
	resp := params.Gateway.Query(ctx, params.Config.ChairmanModel, []gateway.Message{{Role: "user", Content: synthesisPrompt}}, synthesisTimeout)
	endedAt := time.Now()
	durationMS := endedAt.Sub(startedAt).Milliseconds()

	if resp == nil {
		observability.RecordJurorCall(params.Config.ChairmanModel, string(model.JurorStatusFailed), durationMS)
		return &model.Stage3Result{
			Model:     params.Config.ChairmanModel,
			Response:  "Error: Unable to generate final synthesis from chairman model.",
			StartedAt: startedAt,
			EndedAt:   endedAt,
		}
	}
	observability.RecordJurorCall(params.Config.ChairmanModel, string(model.JurorStatusComplete), durationMS)

	estimatedCost := estimateCost(respUsage(resp), params.Config.ChairmanModel, params.Gateway.GetCachedOrFallbackModels())
	if estimatedCost != nil {
		observability.RecordEstimatedCost(params.Config.ChairmanModel, *estimatedCost)
	}
	return &model.Stage3Result{
		Model:         params.Config.ChairmanModel,
		Response:      resp.Content,
		Usage:         toModelUsage(respUsage(resp)),
		StartedAt:     startedAt,
		EndedAt:       endedAt,
		EstimatedCost: estimatedCost,
	}
}

func respUsage(resp *gateway.Response) *gateway.Usage {
	if resp == nil {
		return nil
	}
	return resp.Usage
}

func toModelUsage(u *gateway.Usage) *model.Usage {
	if u == nil {
		return nil
	}
	return &model.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens}
}
