package agent

import (
	"context"

	"github.com/concilium/core/model"
)

// ClaudeProvider drives the Claude Code CLI as a subprocess, speaking its
// `--output-format stream-json` protocol.
type ClaudeProvider struct {
	// Binary is the executable name or path; defaults to "claude".
	Binary string
}

func (p ClaudeProvider) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "claude"
}

// DiscoverModels returns the model identifiers this provider can be
// pointed at. Claude's CLI has no model-list endpoint, so this is a
// curated static set rather than a live query.
func (p ClaudeProvider) DiscoverModels(ctx context.Context) ([]string, error) {
	return []string{
		"claude-opus-4-6",
		"claude-sonnet-4-6",
		"claude-haiku-4-6",
	}, nil
}

func (p ClaudeProvider) Execute(ctx context.Context, params ExecuteParams) model.AgentResult {
	args := []string{"-p", params.Prompt, "--output-format", "stream-json", "--verbose"}
	if params.Agent.Model != "" {
		args = append(args, "--model", params.Agent.Model)
	}
	return runStreamingSubprocessWithPlan(params, p.binary(), args, parseClaudeLine, lastTextOnly)
}

var _ Provider = ClaudeProvider{}
