// Package notification delivers alert state changes to the channels a
// rule is configured with. Chat and webhook channels post directly over
// HTTP; email and SMS are handed to an external delivery worker through
// the queue. In memory mode every channel falls back to a logging stub.
package notification

import (
	"context"
	"fmt"
	"time"

	"vigil-go/internal/domain"
)

// Event is the channel-independent description of an alert state change.
// Senders format it for their own wire format.
type Event struct {
	Kind       domain.TransitionKind `json:"kind"`
	Alert      domain.Alert          `json:"alert"`
	Text       string                `json:"text"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// Notifier defines the interface for sending alert notifications.
// Implementations must not block the caller on channel delivery.
type Notifier interface {
	// NotifyTriggered sends a notification when an alert starts firing.
	NotifyTriggered(ctx context.Context, alert *domain.Alert, channels []domain.Channel)

	// NotifyResolved sends a notification when an alert resolves.
	NotifyResolved(ctx context.Context, alert *domain.Alert, channels []domain.Channel)
}

// ChannelSender delivers a single event over one channel.
type ChannelSender interface {
	Send(ctx context.Context, event *Event) error
}

// buildEvent creates a delivery event from an alert state change.
// The text carries the rule name, observed value, threshold, and
// severity; resolutions additionally carry how long the alert fired.
func buildEvent(kind domain.TransitionKind, alert *domain.Alert) *Event {
	now := time.Now().UTC()

	text := fmt.Sprintf("%s %s", severityLabel(alert.Severity), alert.Message)
	if kind == domain.TransitionResolved && alert.ResolvedAt != nil {
		fired := alert.ResolvedAt.Sub(alert.TriggeredAt)
		text = fmt.Sprintf("%s (fired for %s)", text, fired.Round(time.Second))
	}

	return &Event{
		Kind:       kind,
		Alert:      *alert,
		Text:       text,
		OccurredAt: now,
	}
}

func severityLabel(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "[CRITICAL]"
	case domain.SeverityWarning:
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "FF4F6A"
	case domain.SeverityWarning:
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
