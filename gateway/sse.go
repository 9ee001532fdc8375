package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

const maxSSELineBytes = 1024 * 1024

// parseSSE reads an OpenAI-compatible SSE stream, forwarding each text
// delta to onChunk and accumulating the full response. Returns nil if
// ctx is cancelled mid-stream or the stream can't be read at all.
func parseSSE(ctx context.Context, body io.Reader, onChunk func(chunk string)) *Response {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineBytes)

	var content strings.Builder
	var usage *Usage

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if chunk.Usage != nil {
			usage = chunk.Usage.toUsage()
		}

		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil
	}

	return &Response{Content: content.String(), Usage: usage}
}
