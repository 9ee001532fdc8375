package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/concilium/core/model"
)

// claudeLine is the union of every top-level JSON-line shape Claude's
// `--output-format stream-json` protocol can emit. Only the fields the
// parser needs are modeled; everything else is ignored.
type claudeLine struct {
	Type    string             `json:"type"`
	Event   *claudeStreamEvent `json:"event,omitempty"`
	Message *claudeMessage     `json:"message,omitempty"`
	Subtype string             `json:"subtype,omitempty"`
	Result  *string            `json:"result,omitempty"`
	Usage   *claudeUsage       `json:"usage,omitempty"`
}

type claudeStreamEvent struct {
	Type         string              `json:"type"`
	ContentBlock *claudeContentBlock `json:"content_block,omitempty"`
	Delta        *claudeDelta        `json:"delta,omitempty"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type claudeDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Thinking   string `json:"thinking,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

type claudeMessage struct {
	Content    []claudeContentBlockFull `json:"content,omitempty"`
	StopReason string                   `json:"stop_reason,omitempty"`
	Usage      *claudeUsage             `json:"usage,omitempty"`
}

type claudeContentBlockFull struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
}

type claudeUsage struct {
	InputTokens              float64 `json:"input_tokens"`
	CacheCreationInputTokens float64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     float64 `json:"cache_read_input_tokens"`
	OutputTokens             float64 `json:"output_tokens"`
	TotalCostUSD             float64 `json:"total_cost_usd"`
}

func (u *claudeUsage) toTokenUsage() *model.TokenUsage {
	if u == nil {
		return nil
	}
	inputTokens := int(math.Floor(u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens))
	outputTokens := int(math.Floor(u.OutputTokens))
	if inputTokens == 0 && outputTokens == 0 {
		return nil
	}
	tu := &model.TokenUsage{InputTokens: inputTokens, OutputTokens: outputTokens}
	if u.TotalCostUSD > 0 {
		cost := u.TotalCostUSD
		tu.TotalCost = &cost
	}
	return tu
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// parseClaudeLine is the Claude event parser: a pure function from one
// raw stdout line to zero or more ParsedEvents.
func parseClaudeLine(line string) []model.ParsedEvent {
	var parsed claudeLine
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		stripped := ansiEscape.ReplaceAllString(line, "")
		if stripped == "" {
			return nil
		}
		return []model.ParsedEvent{{EventType: model.EventTypeRaw, Text: stripped, RawLine: line}}
	}

	switch parsed.Type {
	case "system":
		return nil
	case "stream_event":
		return parseClaudeStreamEvent(parsed.Event)
	case "assistant":
		return parseClaudeAssistant(parsed.Message)
	case "result":
		return parseClaudeResult(parsed)
	default:
		return nil
	}
}

func parseClaudeStreamEvent(event *claudeStreamEvent) []model.ParsedEvent {
	if event == nil {
		return nil
	}
	switch event.Type {
	case "content_block_start":
		if event.ContentBlock == nil {
			return nil
		}
		switch event.ContentBlock.Type {
		case "tool_use":
			label := "Tool use"
			if event.ContentBlock.Name != "" {
				label = fmt.Sprintf("Tool: %s", event.ContentBlock.Name)
			}
			return []model.ParsedEvent{{EventType: model.EventTypeToolCall, Text: label}}
		case "thinking":
			return []model.ParsedEvent{{EventType: model.EventTypeThinking, Text: "Thinking..."}}
		}
		return nil
	case "content_block_delta":
		if event.Delta == nil {
			return nil
		}
		switch event.Delta.Type {
		case "text_delta":
			return []model.ParsedEvent{{EventType: model.EventTypeText, Text: event.Delta.Text}}
		case "thinking_delta":
			return []model.ParsedEvent{{EventType: model.EventTypeThinking, Text: event.Delta.Thinking}}
		}
		return nil
	case "message_delta":
		if event.Delta == nil {
			return nil
		}
		if event.Delta.StopReason == "tool_use" {
			return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: "Executing tools..."}}
		}
		return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: fmt.Sprintf("Response complete (%s)", event.Delta.StopReason)}}
	}
	return nil
}

func parseClaudeAssistant(msg *claudeMessage) []model.ParsedEvent {
	if msg == nil {
		return nil
	}

	var events []model.ParsedEvent
	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			events = append(events, model.ParsedEvent{EventType: model.EventTypeToolCall, Text: toolCallLabel(block)})
		case "thinking":
			events = append(events, model.ParsedEvent{EventType: model.EventTypeThinking, Text: block.Thinking})
		}
	}

	var trailing model.ParsedEvent
	switch {
	case msg.StopReason == "tool_use":
		trailing = model.ParsedEvent{EventType: model.EventTypeStatus, Text: "Executing tools..."}
	case msg.StopReason != "":
		trailing = model.ParsedEvent{EventType: model.EventTypeStatus, Text: fmt.Sprintf("Turn completed (%s)", msg.StopReason)}
	default:
		trailing = model.ParsedEvent{EventType: model.EventTypeStatus, Text: "Processing..."}
	}
	events = append(events, trailing)

	if usage := msg.Usage.toTokenUsage(); usage != nil {
		events[len(events)-1].TokenUsage = usage
	}

	return events
}

// toolCallLabel renders "Tool: {name} -> {command or file_path, truncated
// to 60 chars}" for an assistant tool_use content block.
func toolCallLabel(block claudeContentBlockFull) string {
	label := fmt.Sprintf("Tool: %s", block.Name)
	if block.Input == nil {
		return label
	}
	var input map[string]any
	if err := json.Unmarshal(block.Input, &input); err != nil {
		return label
	}
	var detail string
	if v, ok := input["command"].(string); ok {
		detail = v
	} else if v, ok := input["file_path"].(string); ok {
		detail = v
	}
	if detail == "" {
		return label
	}
	if len(detail) > 60 {
		detail = detail[:60]
	}
	return fmt.Sprintf("%s -> %s", label, detail)
}

func parseClaudeResult(parsed claudeLine) []model.ParsedEvent {
	var event model.ParsedEvent
	switch {
	case parsed.Result != nil && *parsed.Result != "":
		event = model.ParsedEvent{EventType: model.EventTypeText, Text: *parsed.Result}
	case strings.HasPrefix(parsed.Subtype, "error"):
		event = model.ParsedEvent{EventType: model.EventTypeStatus, Text: "Run failed"}
	default:
		event = model.ParsedEvent{EventType: model.EventTypeStatus, Text: "Run completed"}
	}
	event.TokenUsageCumulative = true
	event.TokenUsage = parsed.Usage.toTokenUsage()
	return []model.ParsedEvent{event}
}
