package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturingAlerter(t *testing.T) (Alerter, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewSlogAlerter(logger), &buf
}

func TestSlogAlerter_Critical(t *testing.T) {
	alerter, buf := newCapturingAlerter(t)

	alerter.Critical(context.Background(), AdminInterventionRequired, map[string]any{
		"event_id":   "0192a1b2-0000-7000-8000-000000000001",
		"event_type": "document.process",
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "admin alert", record["msg"])
	assert.Equal(t, "CRITICAL", record["severity"])
	assert.Equal(t, AdminInterventionRequired, record["alert"])
	assert.Equal(t, "document.process", record["event_type"])
}

func TestSlogAlerter_Warning(t *testing.T) {
	alerter, buf := newCapturingAlerter(t)

	alerter.Warning(context.Background(), ReconciliationAnomalyThreshold, map[string]any{
		"anomaly_count": 7,
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "WARNING", record["severity"])
	assert.Equal(t, ReconciliationAnomalyThreshold, record["alert"])
	assert.Equal(t, float64(7), record["anomaly_count"])
}
