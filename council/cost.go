package council

import (
	"strings"
	"time"

	"github.com/concilium/core/gateway"
	"github.com/concilium/core/model"
)

// estimateCost looks up modelID's pricing in models (matching by exact
// id or suffix in either direction) and computes
// promptTokens*pricing.prompt/1e6 + completionTokens*pricing.completion/1e6.
// Returns nil if pricing is unknown or the result is not positive.
func estimateCost(usage *gateway.Usage, modelID string, models []gateway.ModelInfo) *float64 {
	if usage == nil {
		return nil
	}
	pricing, ok := findPricing(modelID, models)
	if !ok {
		return nil
	}

	cost := float64(usage.PromptTokens)*pricing.Prompt/1_000_000 + float64(usage.CompletionTokens)*pricing.Completion/1_000_000
	if cost <= 0 {
		return nil
	}
	return &cost
}

func findPricing(modelID string, models []gateway.ModelInfo) (gateway.Pricing, bool) {
	for _, m := range models {
		if modelID == m.ID || strings.HasSuffix(modelID, m.ID) || strings.HasSuffix(m.ID, modelID) {
			return m.Pricing, true
		}
	}
	return gateway.Pricing{}, false
}

// BuildModelSnapshot computes the pricing/latency profile for one
// successful agent, matched against the gateway's model catalog by the
// same exact-or-suffix rule as estimateCost.
func BuildModelSnapshot(modelID, provider string, startedAt, endedAt time.Time, models []gateway.ModelInfo) model.ModelSnapshot {
	snapshot := model.ModelSnapshot{
		ModelID:   modelID,
		Provider:  provider,
		LatencyMs: endedAt.Sub(startedAt).Milliseconds(),
	}
	snapshot.SpeedTier = speedTier(snapshot.LatencyMs)

	if pricing, ok := findPricing(modelID, models); ok {
		costPer1k := (pricing.Prompt + pricing.Completion) / 2 / 1000
		snapshot.CostPer1kTokens = &costPer1k
	}

	return snapshot
}

func speedTier(latencyMs int64) model.SpeedTier {
	switch {
	case latencyMs < 15000:
		return model.SpeedTierFast
	case latencyMs < 60000:
		return model.SpeedTierBalanced
	default:
		return model.SpeedTierSlow
	}
}
