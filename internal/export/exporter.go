// Package export consumes the state-transition stream and writes each
// transition to the structured audit log. Downstream systems that need
// the stream (dashboards, paging, long-term storage) subscribe to the
// same topic; the exporter doubles as a liveness check for the stream.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
	"vigil-go/internal/queue"
)

// Exporter consumes state transitions and logs them.
type Exporter struct {
	consumer queue.Consumer
	logger   *slog.Logger
}

// NewExporter creates a transition stream exporter.
func NewExporter(consumer queue.Consumer, logger *slog.Logger) *Exporter {
	return &Exporter{
		consumer: consumer,
		logger:   logger,
	}
}

// Start begins consuming the transition stream. Blocks until the
// context is canceled.
func (e *Exporter) Start(ctx context.Context) error {
	return e.consumer.Start(ctx, e.handle)
}

// handle processes one transition message.
func (e *Exporter) handle(ctx context.Context, msg *queue.Message) error {
	var transition domain.StateTransition
	if err := json.Unmarshal(msg.Value, &transition); err != nil {
		// A malformed message will never parse; log and move on rather
		// than blocking the partition.
		e.logger.Error("dropping malformed transition message", "error", err)
		return nil
	}

	alert := transition.Alert

	attrs := []any{
		"kind", transition.Kind,
		"alertID", alert.ID,
		"ruleID", alert.RuleID,
		"rule", alert.RuleName,
		"metric", alert.Metric,
		"value", alert.CurrentValue,
		"threshold", alert.Threshold,
		"severity", alert.Severity,
		"triggeredAt", alert.TriggeredAt,
	}
	if alert.ResolvedAt != nil {
		attrs = append(attrs, "resolvedAt", *alert.ResolvedAt)
	}

	e.logger.Info(fmt.Sprintf("alert %s", transition.Kind), attrs...)

	metrics.TransitionsExportedTotal.WithLabelValues(string(transition.Kind)).Inc()

	return nil
}

// Close shuts down the underlying consumer.
func (e *Exporter) Close() error {
	return e.consumer.Close()
}
