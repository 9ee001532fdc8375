// Package gateway implements the LLM gateway: a single HTTP client
// against an OpenRouter-compatible chat-
// completions endpoint, used by the Council Pipeline to query jurors
// and the chairman, and to resolve model pricing for cost estimation.
package gateway

import (
	"context"
	"time"
)

// Message is one chat-completions turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is a token tally returned alongside a gateway response.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Response is one model's completion: its text and, if the upstream
// reported it, token usage.
type Response struct {
	Content string
	Usage   *Usage
}

// Pricing is a model's per-token cost, expressed per million tokens to
// match the upstream catalog convention.
type Pricing struct {
	Prompt     float64 `json:"prompt"`
	Completion float64 `json:"completion"`
}

// ModelInfo is one entry from the upstream model catalog.
type ModelInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	ContextLength int     `json:"context_length"`
	Pricing       Pricing `json:"pricing"`
}

// OnStart/OnChunk/OnComplete are the juror-lifecycle callbacks
// queryModelsParallelStreaming forwards to, mirroring the Council
// Pipeline's juror:status/juror:chunk/juror:complete events.
type (
	OnStart    func(model string)
	OnChunk    func(model string, chunk string)
	OnComplete func(model string, resp *Response)
)

// Gateway is the LLM gateway contract. A nil *Response return
// from query/queryStreaming, or a nil map value from
// queryModelsParallelStreaming, means that model's call failed; it is
// never an error return — failures are per-model, not pipeline-fatal.
type Gateway interface {
	// Query and QueryStreaming return a nil *Response, not an error, on
	// any upstream or transport failure: a gateway failure surfaces as a
	// nil response for that model, never a propagated error. timeout of 0
	// means no override: the call is bounded only by ctx's own deadline,
	// if any.
	Query(ctx context.Context, model string, messages []Message, timeout time.Duration) *Response
	QueryStreaming(ctx context.Context, model string, messages []Message, onChunk func(chunk string), timeout time.Duration) *Response
	QueryModelsParallelStreaming(ctx context.Context, models []string, messages []Message, onStart OnStart, onChunk OnChunk, onComplete OnComplete) map[string]*Response
	FetchModels(ctx context.Context) ([]ModelInfo, error)
	GetCachedOrFallbackModels() []ModelInfo
	ClearModelCache()
}
