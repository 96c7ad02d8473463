package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
)

// Dispatcher fans an alert state change out to the rule's channels.
// Each channel is attempted independently in its own goroutine, so a
// slow or failing channel never blocks the others. A failure on one
// channel is logged and counted but does not abort the rest.
type Dispatcher struct {
	senders        map[domain.Channel]ChannelSender
	channelTimeout time.Duration
	logger         *slog.Logger
}

// NewDispatcher creates a dispatcher over the given per-channel senders.
func NewDispatcher(senders map[domain.Channel]ChannelSender, channelTimeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		senders:        senders,
		channelTimeout: channelTimeout,
		logger:         logger,
	}
}

// NotifyTriggered sends a trigger notification to the given channels.
func (d *Dispatcher) NotifyTriggered(ctx context.Context, alert *domain.Alert, channels []domain.Channel) {
	d.dispatch(ctx, domain.TransitionTriggered, alert, channels)
}

// NotifyResolved sends a resolution notification to the given channels.
func (d *Dispatcher) NotifyResolved(ctx context.Context, alert *domain.Alert, channels []domain.Channel) {
	d.dispatch(ctx, domain.TransitionResolved, alert, channels)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind domain.TransitionKind, alert *domain.Alert, channels []domain.Channel) {
	event := buildEvent(kind, alert)
	start := time.Now()

	var wg sync.WaitGroup
	for _, ch := range channels {
		// SMS is reserved for critical alerts.
		if ch == domain.ChannelSMS && alert.Severity != domain.SeverityCritical {
			d.logger.Debug("skipping sms for non-critical alert",
				"alertID", alert.ID,
				"severity", alert.Severity,
			)
			metrics.NotificationsSentTotal.WithLabelValues(string(ch), "skipped").Inc()
			continue
		}

		sender, ok := d.senders[ch]
		if !ok {
			d.logger.Warn("no sender configured for channel, skipping",
				"channel", ch,
				"alertID", alert.ID,
			)
			metrics.NotificationsSentTotal.WithLabelValues(string(ch), "skipped").Inc()
			continue
		}

		wg.Add(1)
		go func(ch domain.Channel, sender ChannelSender) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.channelTimeout)
			defer cancel()

			if err := sender.Send(sendCtx, event); err != nil {
				d.logger.Error("notification delivery failed",
					"channel", ch,
					"alertID", alert.ID,
					"rule", alert.RuleName,
					"error", err,
				)
				metrics.NotificationsSentTotal.WithLabelValues(string(ch), "failure").Inc()
				return
			}

			d.logger.Debug("notification delivered",
				"channel", ch,
				"alertID", alert.ID,
				"kind", kind,
			)
			metrics.NotificationsSentTotal.WithLabelValues(string(ch), "success").Inc()
		}(ch, sender)
	}

	wg.Wait()
	metrics.NotificationLatency.Observe(time.Since(start).Seconds())
}
