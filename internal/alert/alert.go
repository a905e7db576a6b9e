// Package alert provides a structured admin alerting sink. Alerts are emitted
// as structured log records with a severity and alert code so the operations
// layer can route them (log aggregation, paging) without the emitting code
// knowing about delivery.
package alert

import (
	"context"
	"log/slog"
)

// Alert codes emitted by the outbox and reconciliation pipeline.
const (
	// AdminInterventionRequired signals a dead-lettered outbox event that
	// will never be retried automatically.
	AdminInterventionRequired = "ADMIN_INTERVENTION_REQUIRED"

	// ReconciliationAnomalyThreshold signals a reconciliation scan whose
	// total anomaly count exceeded the configured threshold.
	ReconciliationAnomalyThreshold = "RECONCILIATION_ANOMALY_THRESHOLD"
)

// Alerter emits structured admin alerts.
type Alerter interface {
	// Critical emits an alert requiring operator attention.
	Critical(ctx context.Context, alertCode string, details map[string]any)

	// Warning emits an informational alert that does not require immediate action.
	Warning(ctx context.Context, alertCode string, details map[string]any)
}

// slogAlerter implements Alerter on top of a structured logger.
type slogAlerter struct {
	logger *slog.Logger
}

// NewSlogAlerter creates an Alerter that writes alerts to the given logger.
func NewSlogAlerter(logger *slog.Logger) Alerter {
	return &slogAlerter{logger: logger}
}

// Critical logs the alert at error level with severity=CRITICAL.
func (a *slogAlerter) Critical(ctx context.Context, alertCode string, details map[string]any) {
	a.logger.ErrorContext(ctx, "admin alert", attrs("CRITICAL", alertCode, details)...)
}

// Warning logs the alert at warn level with severity=WARNING.
func (a *slogAlerter) Warning(ctx context.Context, alertCode string, details map[string]any) {
	a.logger.WarnContext(ctx, "admin alert", attrs("WARNING", alertCode, details)...)
}

func attrs(severity, alertCode string, details map[string]any) []any {
	out := []any{
		slog.String("severity", severity),
		slog.String("alert", alertCode),
	}
	for key, value := range details {
		out = append(out, slog.Any(key, value))
	}
	return out
}
