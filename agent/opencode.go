package agent

import (
	"context"
	"strings"

	"github.com/concilium/core/model"
)

// OpenCodeProvider drives the OpenCode CLI as a subprocess. OpenCode
// streams plain text to stdout rather than a JSON event protocol, with
// a small set of conventional prefix markers for tool activity; Execute
// falls back to the concatenated last textual output as its
// normalizedPlan.
type OpenCodeProvider struct {
	Binary string
}

func (p OpenCodeProvider) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "opencode"
}

func (p OpenCodeProvider) DiscoverModels(ctx context.Context) ([]string, error) {
	return []string{"opencode/default"}, nil
}

func (p OpenCodeProvider) Execute(ctx context.Context, params ExecuteParams) model.AgentResult {
	args := []string{"run", "--print", params.Prompt}
	if params.Agent.Model != "" {
		args = append(args, "--model", params.Agent.Model)
	}
	return runStreamingSubprocess(params, p.binary(), args, parseOpenCodeLine)
}

const (
	openCodeToolPrefix   = "> tool:"
	openCodeStatusPrefix = "> status:"
)

func parseOpenCodeLine(line string) []model.ParsedEvent {
	stripped := ansiEscape.ReplaceAllString(line, "")
	switch {
	case strings.HasPrefix(stripped, openCodeToolPrefix):
		text := strings.TrimSpace(strings.TrimPrefix(stripped, openCodeToolPrefix))
		return []model.ParsedEvent{{EventType: model.EventTypeToolCall, Text: "Tool: " + text}}
	case strings.HasPrefix(stripped, openCodeStatusPrefix):
		text := strings.TrimSpace(strings.TrimPrefix(stripped, openCodeStatusPrefix))
		return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: text}}
	default:
		return []model.ParsedEvent{{EventType: model.EventTypeText, Text: stripped}}
	}
}

var _ Provider = OpenCodeProvider{}
