package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCoreConfig(t *testing.T) {
	c := DefaultCoreConfig()

	assert.Equal(t, 10*time.Minute, c.AgentTimeout)
	assert.Equal(t, 60*time.Second, c.JurorTimeout)
	assert.Equal(t, 180*time.Second, c.SynthesisTimeout)
	assert.Equal(t, 2, c.MaxGatewayRetries)
	assert.Equal(t, 3*time.Second, c.EscalationGracePeriod)
	assert.Equal(t, "info", c.LogLevel)
}

func TestGetSetResetCoreConfig(t *testing.T) {
	defer ResetCoreConfig()

	assert.Equal(t, DefaultCoreConfig(), GetCoreConfig())

	custom := DefaultCoreConfig()
	custom.LogLevel = "debug"
	SetCoreConfig(custom)
	assert.Equal(t, "debug", GetCoreConfig().LogLevel)

	ResetCoreConfig()
	assert.Equal(t, "info", GetCoreConfig().LogLevel)
}

func TestCoreConfigFromEnv(t *testing.T) {
	t.Setenv("CONCILIUM_AGENT_TIMEOUT_SECONDS", "45")
	t.Setenv("CONCILIUM_JUROR_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("CONCILIUM_LOG_LEVEL", "warn")

	c := CoreConfigFromEnv()
	assert.Equal(t, 45*time.Second, c.AgentTimeout)
	// Malformed override is ignored; default is kept.
	assert.Equal(t, 60*time.Second, c.JurorTimeout)
	assert.Equal(t, "warn", c.LogLevel)
}
