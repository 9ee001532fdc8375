package agent

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/concilium/core/model"
)

// maxAgentLineBytes bounds the scanner buffer so one runaway line of
// stdout can't grow without limit.
const maxAgentLineBytes = 10 * 1024 * 1024

// runStreamingSubprocess spawns binary/args as the process-group leader
// of a new group, scans its stdout line by line through parseLine, and
// folds the result into an AgentResult. It is the shared spawn/stream/
// reap skeleton every subprocess-backed Provider uses; only the line
// grammar (parseLine) and the normalizedPlan projection differ per
// provider kind.
func runStreamingSubprocess(params ExecuteParams, binary string, args []string, parseLine func(string) []model.ParsedEvent) model.AgentResult {
	return runStreamingSubprocessWithPlan(params, binary, args, parseLine, concatenatedText)
}

// planFunc derives a result's normalizedPlan from its accumulated
// events. Claude's protocol carries one terminal "result" line, so its
// plan is that line alone; providers with no such terminal line use
// concatenatedText instead.
type planFunc func(events []model.ParsedEvent) string

func lastTextOnly(events []model.ParsedEvent) string {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].EventType == model.EventTypeText {
			return events[i].Text
		}
	}
	return ""
}

func runStreamingSubprocessWithPlan(params ExecuteParams, binary string, args []string, parseLine func(string) []model.ParsedEvent, plan planFunc) model.AgentResult {
	instanceKey := params.Agent.InstanceKey()
	startedAt := time.Now()

	cmd := exec.Command(binary, args...)
	cmd.Dir = params.Agent.WorkingDirectory
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = mergeEnv(os.Environ(), params.Agent.Environment)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failedResult(params, startedAt, fmt.Sprintf("failed to open stdout pipe: %v", err))
	}
	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf

	params.Callbacks.emitStatus(instanceKey, model.AgentStatusRunning, params.Agent.DisplayName)

	if err := cmd.Start(); err != nil {
		return failedResult(params, startedAt, fmt.Sprintf("failed to start %s: %v", binary, err))
	}

	if params.UpdateHandle != nil {
		params.UpdateHandle(KillHandle{Pid: cmd.Process.Pid})
	}

	result := model.AgentResult{
		ID:          instanceKey,
		InstanceID:  params.Agent.InstanceID,
		DisplayName: params.Agent.DisplayName,
		Command:     append([]string{binary}, args...),
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxAgentLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, event := range parseLine(line) {
			result.Events = append(result.Events, event)
			params.Callbacks.emitEvent(instanceKey, event)
		}
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	result.StartedAt = startedAt
	result.EndedAt = time.Now()

	switch {
	case params.CancelToken != nil && params.CancelToken.Cancelled():
		result.Status = model.AgentStatusCancelled
		result.Errors = append(result.Errors, "cancelled")
	case scanErr != nil:
		result.Status = model.AgentStatusError
		result.Errors = append(result.Errors, fmt.Sprintf("failed reading %s output: %v", binary, scanErr))
	case waitErr != nil:
		result.Status = model.AgentStatusError
		msg := waitErr.Error()
		if stderrBuf.Len() > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(stderrBuf.String()))
		}
		result.Errors = append(result.Errors, msg)
	default:
		result.Status = model.AgentStatusSuccess
	}

	result.NormalizedPlan = plan(result.Events)

	params.Callbacks.emitStatus(instanceKey, result.Status, params.Agent.DisplayName)
	return result
}

// concatenatedText falls back to every text-event's content concatenated,
// for a provider whose protocol has no single terminal "final answer"
// line.
func concatenatedText(events []model.ParsedEvent) string {
	var sb strings.Builder
	for _, e := range events {
		if e.EventType == model.EventTypeText {
			sb.WriteString(e.Text)
		}
	}
	return sb.String()
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	env := append([]string{}, base...)
	for k, v := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func failedResult(params ExecuteParams, startedAt time.Time, message string) model.AgentResult {
	return model.AgentResult{
		ID:          params.Agent.InstanceKey(),
		InstanceID:  params.Agent.InstanceID,
		DisplayName: params.Agent.DisplayName,
		Status:      model.AgentStatusError,
		StartedAt:   startedAt,
		EndedAt:     time.Now(),
		Errors:      []string{message},
	}
}
