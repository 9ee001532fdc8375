// Concilium Core demo runner.
//
// Builds the full deliberation pipeline — agent providers, config
// service, LLM gateway, console event sink, file repository, orchestrator — and
// drives one run from a prompt given on the command line, printing
// stage transitions as they arrive and the synthesized answer at the end.
//
// Usage:
//
//	go run ./cmd/concilium-core -prompt "add input validation to the signup form"
//	go run ./cmd/concilium-core -prompt "..." -dir /path/to/repo -agents claude,codex
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/concilium/core/agent"
	"github.com/concilium/core/config"
	"github.com/concilium/core/eventbus"
	"github.com/concilium/core/gateway"
	"github.com/concilium/core/model"
	"github.com/concilium/core/observability"
	"github.com/concilium/core/orchestrator"
	"github.com/concilium/core/repository"
)

// consoleSink implements eventbus.Sink by printing each notification,
// standing in for a real UI transport layer.
type consoleSink struct{}

func (consoleSink) StageChange(stageNumber int, summary string) {
	fmt.Printf("\n== stage %d: %s ==\n", stageNumber, summary)
}

func (consoleSink) AgentStatus(instanceKey string, status model.AgentStatus, displayName string) {
	fmt.Printf("[%s] %s -> %s\n", displayName, instanceKey, status)
}

func (consoleSink) AgentEvent(instanceKey string, event model.ParsedEvent) {
	if event.EventType == model.EventTypeText && event.Text != "" {
		fmt.Printf("[%s] %s\n", instanceKey, event.Text)
	}
}

func (consoleSink) JurorStatus(modelName string, status model.JurorStatus) {
	fmt.Printf("[juror %s] %s\n", modelName, status)
}

func (consoleSink) JurorChunk(string, string) {}

func (consoleSink) JurorComplete(modelName string, success bool, usage *model.Usage) {
	fmt.Printf("[juror %s] complete (success=%v)\n", modelName, success)
}

func (consoleSink) SynthesisStart() {
	fmt.Println("chairman synthesizing final answer …")
}

func (consoleSink) RunComplete(record *model.RunRecord) {
	fmt.Println("\n== synthesized answer ==")
	if record.Stage3 != nil {
		fmt.Println(record.Stage3.Response)
	}
}

func (consoleSink) RunError(message string) {
	fmt.Printf("run error: %s\n", message)
}

var _ eventbus.Sink = consoleSink{}

func main() {
	prompt := flag.String("prompt", "", "task prompt for the agent council")
	workingDir := flag.String("dir", ".", "working directory handed to each agent")
	agentsFlag := flag.String("agents", "claude,codex,opencode", "comma-separated agent provider kinds to run")
	dataDir := flag.String("data-dir", "./concilium-data", "directory for run record persistence")
	configFile := flag.String("config-file", "", "optional TOML file for council/chairman/api-key overrides")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP gRPC collector endpoint; tracing disabled if empty")
	gatewayRPM := flag.Int("gateway-rpm", 0, "cap gateway requests per model per minute; 0 is unbounded")
	flag.Parse()

	if *prompt == "" {
		log.Fatal("concilium-core: -prompt is required")
	}

	_ = godotenv.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("concilium-core: build logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := orchestrator.NewZapLogger(zapLogger)

	if *otelEndpoint != "" {
		shutdown, err := observability.InitTracer("concilium-core", *otelEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	var configStore config.ConfigStore
	if *configFile != "" {
		configStore = config.NewFileConfigStore(*configFile)
	}
	configService := config.NewService(nil, configStore)

	providers := agent.Registry{
		model.AgentProviderClaude:   agent.ClaudeProvider{},
		model.AgentProviderCodex:    agent.CodexProvider{},
		model.AgentProviderOpencode: agent.OpenCodeProvider{},
	}

	repo := repository.New(*dataDir)

	orch := orchestrator.New(orchestrator.Params{
		Providers:     providers,
		ConfigService: configService,
		GatewayFactory: func(cfg config.GatewayConfig) gateway.Gateway {
			return gateway.NewHTTPGatewayWithRateLimit(cfg.APIKey, cfg.APIBaseURL, zapLogger, *gatewayRPM)
		},
		Repository: repo,
		Sink:       consoleSink{},
		Logger:     logger,
		CoreConfig: config.CoreConfigFromEnv(),
	})

	stopCleanup := orch.StartCleanupLoop(orchestrator.DefaultCleanupInterval, orchestrator.DefaultMaxRunAge)
	defer stopCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	instances := buildInstances(*agentsFlag)

	record, err := orch.Run(ctx, *prompt, nil, instances, *workingDir)
	if err != nil {
		log.Fatalf("concilium-core: run failed: %v", err)
	}

	logger.Info("run complete", "runId", record.ID, "status", record.DeriveStatus())
}

func buildInstances(agentsFlag string) []model.AgentInstance {
	var out []model.AgentInstance
	for _, name := range strings.Split(agentsFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, model.AgentInstance{
			InstanceID: name,
			Provider:   model.AgentProviderKind(name),
			Enabled:    true,
		})
	}
	return out
}
