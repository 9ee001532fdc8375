package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/concilium/core/observability"
)

// fallbackModels is returned by GetCachedOrFallbackModels when no
// catalog has ever been fetched successfully, so cost estimation always
// has something to match against.
var fallbackModels = []ModelInfo{
	{ID: "openai/gpt-5.2", Name: "GPT-5.2", ContextLength: 400000, Pricing: Pricing{Prompt: 3, Completion: 15}},
	{ID: "google/gemini-3-pro-preview", Name: "Gemini 3 Pro Preview", ContextLength: 1000000, Pricing: Pricing{Prompt: 2, Completion: 10}},
	{ID: "anthropic/claude-opus-4.6", Name: "Claude Opus 4.6", ContextLength: 500000, Pricing: Pricing{Prompt: 5, Completion: 25}},
}

// HTTPGateway is the LlmGateway implementation against an OpenRouter-
// compatible chat-completions endpoint.
type HTTPGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger

	mu         sync.RWMutex
	modelCache []ModelInfo

	limiter *RateLimiter
}

// NewHTTPGateway builds a gateway against baseURL (e.g.
// "https://openrouter.ai/api/v1") using apiKey for bearer auth, with
// outbound calls unrestricted by rate limiting. Use
// NewHTTPGatewayWithRateLimit to cap requests per model per minute.
func NewHTTPGateway(apiKey, baseURL string, logger *zap.Logger) *HTTPGateway {
	return NewHTTPGatewayWithRateLimit(apiKey, baseURL, logger, 0)
}

// NewHTTPGatewayWithRateLimit is NewHTTPGateway plus a per-model,
// per-minute outbound call cap (0 disables limiting).
func NewHTTPGatewayWithRateLimit(apiKey, baseURL string, logger *zap.Logger, requestsPerMinute int) *HTTPGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPGateway{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
		limiter: NewRateLimiter(requestsPerMinute),
	}
}

func (g *HTTPGateway) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (g *HTTPGateway) Query(ctx context.Context, model string, messages []Message, timeout time.Duration) *Response {
	ctx, cancel := g.withTimeout(ctx, timeout)
	defer cancel()
	g.limiter.Wait(model)

	body := chatCompletionRequest{Model: model, Messages: messages}
	resp, err := g.send(ctx, body)
	if err != nil {
		g.logger.Warn("gateway query failed", zap.String("model", model), zap.Error(err))
		observability.RecordGatewayRequest(model, "failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("gateway query non-200", zap.String("model", model), zap.Int("status", resp.StatusCode))
		observability.RecordGatewayRequest(model, "failed")
		return nil
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		g.logger.Warn("gateway query decode failed", zap.String("model", model), zap.Error(err))
		observability.RecordGatewayRequest(model, "failed")
		return nil
	}
	observability.RecordGatewayRequest(model, "success")
	var content string
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message != nil {
		content = parsed.Choices[0].Message.Content
	}
	return &Response{Content: content, Usage: parsed.Usage.toUsage()}
}

func (g *HTTPGateway) QueryStreaming(ctx context.Context, model string, messages []Message, onChunk func(chunk string), timeout time.Duration) *Response {
	ctx, cancel := g.withTimeout(ctx, timeout)
	defer cancel()
	g.limiter.Wait(model)

	body := chatCompletionRequest{Model: model, Messages: messages, Stream: true, StreamOptions: &streamOptions{IncludeUsage: true}}
	resp, err := g.send(ctx, body)
	if err != nil {
		g.logger.Warn("gateway streaming query failed", zap.String("model", model), zap.Error(err))
		observability.RecordGatewayRequest(model, "failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("gateway streaming query non-200", zap.String("model", model), zap.Int("status", resp.StatusCode))
		observability.RecordGatewayRequest(model, "failed")
		return nil
	}

	parsed := parseSSE(ctx, resp.Body, onChunk)
	if parsed == nil {
		observability.RecordGatewayRequest(model, "failed")
		return nil
	}
	observability.RecordGatewayRequest(model, "success")
	return parsed
}

// QueryModelsParallelStreaming fans one goroutine out per model. Each
// model's call is recorded by QueryStreaming, so no separate request
// metric is emitted here.
func (g *HTTPGateway) QueryModelsParallelStreaming(ctx context.Context, models []string, messages []Message, onStart OnStart, onChunk OnChunk, onComplete OnComplete) map[string]*Response {
	results := make(map[string]*Response, len(models))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, model := range models {
		wg.Add(1)
		go func(model string) {
			defer wg.Done()
			if onStart != nil {
				onStart(model)
			}
			resp := g.QueryStreaming(ctx, model, messages, func(chunk string) {
				if onChunk != nil {
					onChunk(model, chunk)
				}
			}, 0)

			mu.Lock()
			results[model] = resp
			mu.Unlock()

			if onComplete != nil {
				onComplete(model, resp)
			}
		}(model)
	}
	wg.Wait()

	return results
}

func (g *HTTPGateway) FetchModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	g.setAuthHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch models: unexpected status %d", resp.StatusCode)
	}

	var parsed modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	g.mu.Lock()
	g.modelCache = parsed.Data
	g.mu.Unlock()

	return parsed.Data, nil
}

func (g *HTTPGateway) GetCachedOrFallbackModels() []ModelInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.modelCache) > 0 {
		return g.modelCache
	}
	return fallbackModels
}

func (g *HTTPGateway) ClearModelCache() {
	g.mu.Lock()
	g.modelCache = nil
	g.mu.Unlock()
}

func (g *HTTPGateway) send(ctx context.Context, body chatCompletionRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.setAuthHeaders(req)

	return g.client.Do(req)
}

func (g *HTTPGateway) setAuthHeaders(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
}

var _ Gateway = (*HTTPGateway)(nil)
