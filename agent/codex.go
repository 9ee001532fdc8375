package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/concilium/core/model"
)

type codexLine struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Message  string `json:"message,omitempty"`
	Command  string `json:"command,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// CodexProvider drives the Codex CLI as a subprocess in its JSON-event
// exec mode. Unlike Claude's protocol, Codex has no single terminal
// "final answer" line, so Execute falls back to the concatenated last
// textual output.
type CodexProvider struct {
	Binary string
}

func (p CodexProvider) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "codex"
}

func (p CodexProvider) DiscoverModels(ctx context.Context) ([]string, error) {
	return []string{"gpt-5.2-codex", "gpt-5.2-codex-mini"}, nil
}

func (p CodexProvider) Execute(ctx context.Context, params ExecuteParams) model.AgentResult {
	args := []string{"exec", "--json", params.Prompt}
	if params.Agent.Model != "" {
		args = append(args, "--model", params.Agent.Model)
	}
	return runStreamingSubprocess(params, p.binary(), args, parseCodexLine)
}

func parseCodexLine(line string) []model.ParsedEvent {
	var parsed codexLine
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		stripped := ansiEscape.ReplaceAllString(line, "")
		if stripped == "" {
			return nil
		}
		return []model.ParsedEvent{{EventType: model.EventTypeRaw, Text: stripped, RawLine: line}}
	}

	switch parsed.Type {
	case "task_started":
		return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: "Running..."}}
	case "agent_reasoning":
		return []model.ParsedEvent{{EventType: model.EventTypeThinking, Text: parsed.Text}}
	case "agent_message":
		return []model.ParsedEvent{{EventType: model.EventTypeText, Text: parsed.Text}}
	case "exec_command_begin":
		command := parsed.Command
		if len(command) > 60 {
			command = command[:60]
		}
		label := "Tool: exec"
		if command != "" {
			label = fmt.Sprintf("Tool: exec -> %s", command)
		}
		return []model.ParsedEvent{{EventType: model.EventTypeToolCall, Text: label}}
	case "exec_command_end":
		code := 0
		if parsed.ExitCode != nil {
			code = *parsed.ExitCode
		}
		return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: fmt.Sprintf("Command finished (exit %d)", code)}}
	case "task_complete":
		return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: "Run completed"}}
	case "error":
		msg := parsed.Message
		if msg == "" {
			msg = "Run failed"
		}
		return []model.ParsedEvent{{EventType: model.EventTypeStatus, Text: fmt.Sprintf("Run failed: %s", msg)}}
	default:
		return nil
	}
}

var _ Provider = CodexProvider{}
