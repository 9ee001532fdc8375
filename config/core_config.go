// Package config resolves the active LLM gateway credentials, the
// council model roster, and the chairman model from environment
// variables, a pluggable ConfigStore, and built-in defaults, in that
// precedence order.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// CoreConfig holds the orchestration-level timeouts and limits that are
// infrastructure-agnostic: independent of which agent providers or LLM
// gateway implementation are wired in. No code outside this package reads
// these fields: the agent, council, gateway and orchestrator packages use
// their own fixed values (for example the controller's 3-second
// escalation delay, the council's 180-second synthesis timeout, and the
// interval and age passed to Orchestrator.StartCleanupLoop).
type CoreConfig struct {
	// AgentTimeout bounds a single agent execution (Stage 1).
	AgentTimeout time.Duration `json:"agentTimeout"`
	// JurorTimeout bounds a single juror ranking call (Stage 2).
	JurorTimeout time.Duration `json:"jurorTimeout"`
	// SynthesisTimeout bounds the chairman's synthesis call (Stage 3).
	SynthesisTimeout time.Duration `json:"synthesisTimeout"`
	// MaxGatewayRetries bounds retry attempts for a single gateway call.
	MaxGatewayRetries int `json:"maxGatewayRetries"`
	// EscalationGracePeriod is how long a cancelled agent's process group
	// is given to exit after SIGTERM before SIGKILL is sent.
	EscalationGracePeriod time.Duration `json:"escalationGracePeriod"`
	// CleanupInterval is a sweep period for the background cleanup of
	// abandoned runs.
	CleanupInterval time.Duration `json:"cleanupInterval"`
	// ControllerRetention is a maximum age for a still-registered run's
	// controller before such a sweep evicts it. A run that finishes
	// removes its own controller at once.
	ControllerRetention time.Duration `json:"controllerRetention"`
	LogLevel            string        `json:"logLevel"`
}

// DefaultCoreConfig returns the built-in defaults: a 180-second
// synthesis timeout, and conservative timeouts/limits for the remaining
// stages.
func DefaultCoreConfig() *CoreConfig {
	return &CoreConfig{
		AgentTimeout:          10 * time.Minute,
		JurorTimeout:          60 * time.Second,
		SynthesisTimeout:      180 * time.Second,
		MaxGatewayRetries:     2,
		EscalationGracePeriod: 3 * time.Second,
		CleanupInterval:       time.Minute,
		ControllerRetention:   30 * time.Minute,
		LogLevel:              "info",
	}
}

var (
	globalCoreConfig *CoreConfig
	coreConfigMu     sync.RWMutex
)

// GetCoreConfig returns the process-wide CoreConfig, or defaults if none
// has been set.
func GetCoreConfig() *CoreConfig {
	coreConfigMu.RLock()
	defer coreConfigMu.RUnlock()
	if globalCoreConfig == nil {
		return DefaultCoreConfig()
	}
	return globalCoreConfig
}

// SetCoreConfig installs the process-wide CoreConfig, normally called once
// at startup after resolving environment overrides.
func SetCoreConfig(c *CoreConfig) {
	coreConfigMu.Lock()
	defer coreConfigMu.Unlock()
	globalCoreConfig = c
}

// ResetCoreConfig clears the process-wide CoreConfig. Used by tests.
func ResetCoreConfig() {
	coreConfigMu.Lock()
	defer coreConfigMu.Unlock()
	globalCoreConfig = nil
}

// CoreConfigFromEnv layers CONCILIUM_-prefixed environment overrides onto
// DefaultCoreConfig. Malformed values are ignored and the default is kept.
func CoreConfigFromEnv() *CoreConfig {
	c := DefaultCoreConfig()
	if v, ok := durationFromEnv("CONCILIUM_AGENT_TIMEOUT_SECONDS"); ok {
		c.AgentTimeout = v
	}
	if v, ok := durationFromEnv("CONCILIUM_JUROR_TIMEOUT_SECONDS"); ok {
		c.JurorTimeout = v
	}
	if v, ok := durationFromEnv("CONCILIUM_SYNTHESIS_TIMEOUT_SECONDS"); ok {
		c.SynthesisTimeout = v
	}
	if v := os.Getenv("CONCILIUM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return c
}

func durationFromEnv(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}
