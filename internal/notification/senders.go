package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"vigil-go/internal/queue"
)

// ChatSender posts events to a Slack-compatible incoming webhook.
type ChatSender struct {
	webhookURL string
	client     *http.Client
}

// NewChatSender creates a chat channel sender.
func NewChatSender(webhookURL string) *ChatSender {
	return &ChatSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the event text as a chat message.
func (s *ChatSender) Send(ctx context.Context, event *Event) error {
	body, err := json.Marshal(map[string]string{
		"text": event.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal chat payload: %w", err)
	}
	return post(ctx, s.client, s.webhookURL, body)
}

// WebhookSender posts the full event as JSON to a configured endpoint.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates a generic webhook sender.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the event payload. The severity color is included for
// receivers that render cards.
func (s *WebhookSender) Send(ctx context.Context, event *Event) error {
	body, err := json.Marshal(map[string]interface{}{
		"kind":        event.Kind,
		"alert":       event.Alert,
		"text":        event.Text,
		"occurred_at": event.OccurredAt,
		"color":       severityColor(event.Alert.Severity),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	return post(ctx, s.client, s.url, body)
}

func post(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// DeliveryRequest is the message handed to the external delivery worker
// for channels Vigil does not deliver itself (email, SMS).
type DeliveryRequest struct {
	Channel    string    `json:"channel"`
	AlertID    string    `json:"alert_id"`
	RuleID     string    `json:"rule_id"`
	Severity   string    `json:"severity"`
	Text       string    `json:"text"`
	OccurredAt time.Time `json:"occurred_at"`
}

// QueueSender publishes delivery requests to the queue instead of
// delivering directly. Used for email and SMS in storage mode.
type QueueSender struct {
	channel  string
	producer queue.Producer
}

// NewQueueSender creates a queue-backed sender for the named channel.
func NewQueueSender(channel string, producer queue.Producer) *QueueSender {
	return &QueueSender{
		channel:  channel,
		producer: producer,
	}
}

// Send publishes a delivery request keyed by rule id, so requests for
// the same rule stay ordered.
func (s *QueueSender) Send(ctx context.Context, event *Event) error {
	req := DeliveryRequest{
		Channel:    s.channel,
		AlertID:    event.Alert.ID,
		RuleID:     event.Alert.RuleID,
		Severity:   string(event.Alert.Severity),
		Text:       event.Text,
		OccurredAt: event.OccurredAt,
	}

	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery request: %w", err)
	}

	return s.producer.Publish(ctx, &queue.Message{
		Key:   []byte(event.Alert.RuleID),
		Value: value,
		Headers: map[string]string{
			"channel": s.channel,
		},
	})
}

// LogSender logs notifications instead of delivering them. Used for
// every channel in memory mode and as a stand-in for channels with no
// configured endpoint.
type LogSender struct {
	channel string
	logger  *slog.Logger
}

// NewLogSender creates a logging sender for the named channel.
func NewLogSender(channel string, logger *slog.Logger) *LogSender {
	return &LogSender{
		channel: channel,
		logger:  logger,
	}
}

// Send logs the notification that would have been delivered.
func (s *LogSender) Send(ctx context.Context, event *Event) error {
	s.logger.Info("STUB: would send notification",
		"channel", s.channel,
		"kind", event.Kind,
		"alertID", event.Alert.ID,
		"rule", event.Alert.RuleName,
		"severity", event.Alert.Severity,
		"text", event.Text,
	)
	return nil
}
