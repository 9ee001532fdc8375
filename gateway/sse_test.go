package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSSE_AccumulatesTextDeltasAndForwardsChunks(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\", world\"}}]}\n" +
			"data: {\"choices\":[],\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":5}}\n" +
			"data: [DONE]\n",
	)

	var chunks []string
	resp := parseSSE(context.Background(), body, func(chunk string) { chunks = append(chunks, chunk) })

	require.NotNil(t, resp)
	assert.Equal(t, "Hello, world", resp.Content)
	assert.Equal(t, []string{"Hello", ", world"}, chunks)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
}

func TestParseSSE_SkipsMalformedChunks(t *testing.T) {
	body := strings.NewReader(
		"data: not json\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n" +
			"data: [DONE]\n",
	)

	resp := parseSSE(context.Background(), body, nil)
	require.NotNil(t, resp)
	assert.Equal(t, "ok", resp.Content)
}

func TestParseSSE_IgnoresNonDataLines(t *testing.T) {
	body := strings.NewReader(
		": comment\n" +
			"event: message\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n" +
			"data: [DONE]\n",
	)

	resp := parseSSE(context.Background(), body, nil)
	require.NotNil(t, resp)
	assert.Equal(t, "x", resp.Content)
}

func TestParseSSE_CancelledContextReturnsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n")

	resp := parseSSE(ctx, body, nil)
	assert.Nil(t, resp)
}
