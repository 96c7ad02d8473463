package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vigil-go/internal/domain"
	"vigil-go/internal/queue"
	memoryqueue "vigil-go/internal/queue/memory"
)

func triggeredEvent() *Event {
	rule := &domain.AlertRule{
		ID:        "high-api-latency",
		Name:      "High API Latency",
		Metric:    domain.MetricAPILatencyP95,
		Condition: domain.ConditionGreaterThan,
		Threshold: 3000,
		Severity:  domain.SeverityCritical,
	}
	alert := domain.NewAlert(rule, 4000, time.Now().UTC())
	return buildEvent(domain.TransitionTriggered, alert)
}

func TestChatSenderPostsText(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewChatSender(server.URL)
	event := triggeredEvent()

	if err := sender.Send(context.Background(), event); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if received["text"] != event.Text {
		t.Errorf("expected text %q, got %q", event.Text, received["text"])
	}
}

func TestWebhookSenderFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewWebhookSender(server.URL)

	if err := sender.Send(context.Background(), triggeredEvent()); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}

func TestQueueSenderPublishesDeliveryRequest(t *testing.T) {
	q := memoryqueue.NewQueue(10)
	defer q.Close()

	sender := NewQueueSender("email", q)
	event := triggeredEvent()

	if err := sender.Send(context.Background(), event); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if q.Len() != 1 {
		t.Fatalf("expected 1 queued message, got %d", q.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *queue.Message, 1)
	go q.Start(ctx, func(ctx context.Context, msg *queue.Message) error {
		received <- msg
		return nil
	})

	select {
	case msg := <-received:
		if string(msg.Key) != event.Alert.RuleID {
			t.Errorf("expected key %q, got %q", event.Alert.RuleID, msg.Key)
		}

		var req DeliveryRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			t.Fatalf("failed to decode delivery request: %v", err)
		}
		if req.Channel != "email" {
			t.Errorf("expected channel email, got %q", req.Channel)
		}
		if req.AlertID != event.Alert.ID {
			t.Errorf("expected alert id %q, got %q", event.Alert.ID, req.AlertID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery request")
	}
}
