package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10*time.Second, cfg.DispatchInterval)
	assert.Equal(t, 100, cfg.DispatchBatchSize)
	assert.Equal(t, 5, cfg.DispatchMaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.DispatchHandlerTimeout)
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.Equal(t, 30*time.Minute, cfg.ReconcileStaleThreshold)
	assert.Equal(t, 5, cfg.ReconcileAlertThreshold)
	assert.Equal(t, 100, cfg.ReconcilePageSize)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.SweepProcessedRetention)
	assert.Equal(t, 30*24*time.Hour, cfg.SweepDeadLetterRetention)
	assert.Equal(t, "kbsync", cfg.MetricsNamespace)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DISPATCH_INTERVAL_SECONDS", "30")
	t.Setenv("DISPATCH_BATCH_SIZE", "10")
	t.Setenv("RECONCILE_ALERT_THRESHOLD", "50")
	t.Setenv("OBJECT_STORE_URL", "mem://")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.DispatchInterval)
	assert.Equal(t, 10, cfg.DispatchBatchSize)
	assert.Equal(t, 50, cfg.ReconcileAlertThreshold)
	assert.Equal(t, "mem://", cfg.ObjectStoreURL)
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}
