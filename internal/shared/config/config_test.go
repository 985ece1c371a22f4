package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsForSpinService(t *testing.T) {
	t.Setenv("SERVICE_NAME", "spin-service")

	cfg := Load()

	assert.Equal(t, "spin-service", cfg.ServiceName)
	assert.Equal(t, "8083", cfg.HTTPPort)
	assert.Equal(t, "9099", cfg.MetricsPort)
	assert.Equal(t, 5, cfg.SpinMaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.SpinAttemptTimeout)
	assert.True(t, cfg.SpinMaxStake.IsZero())
	assert.Equal(t, "spin_notifications", cfg.TopicNotifications)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "outcome-service")
	t.Setenv("HTTP_PORT_OUTCOME", "9001")
	t.Setenv("SPIN_MAX_ATTEMPTS", "8")
	t.Setenv("SPIN_ATTEMPT_TIMEOUT", "750ms")
	t.Setenv("SPIN_MAX_STAKE", "250.50")
	t.Setenv("OUTCOME_CACHE_TTL", "1m")

	cfg := Load()

	assert.Equal(t, "9001", cfg.HTTPPort)
	assert.Equal(t, 8, cfg.SpinMaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.SpinAttemptTimeout)
	require.True(t, cfg.SpinMaxStake.Equal(decimal.RequireFromString("250.50")))
	assert.Equal(t, time.Minute, cfg.OutcomeCacheTTL)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SPIN_MAX_ATTEMPTS", "many")
	t.Setenv("SPIN_NOTIFY_TIMEOUT", "soon")
	t.Setenv("SPIN_MAX_STAKE", "lots")

	cfg := Load()

	assert.Equal(t, 5, cfg.SpinMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.SpinNotifyTimeout)
	assert.True(t, cfg.SpinMaxStake.IsZero())
}
