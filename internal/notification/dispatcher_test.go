package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"vigil-go/internal/domain"
)

// fakeSender records the events it receives.
type fakeSender struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (f *fakeSender) Send(ctx context.Context, event *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeSender) last() *Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testAlert(severity domain.Severity) *domain.Alert {
	rule := &domain.AlertRule{
		ID:        "high-error-rate",
		Name:      "High Error Rate",
		Metric:    domain.MetricErrorRate,
		Condition: domain.ConditionGreaterThan,
		Threshold: 5,
		Severity:  severity,
	}
	return domain.NewAlert(rule, 12.5, time.Now().UTC())
}

func TestDispatcherFansOutToAllChannels(t *testing.T) {
	chat := &fakeSender{}
	email := &fakeSender{}

	d := NewDispatcher(map[domain.Channel]ChannelSender{
		domain.ChannelChat:  chat,
		domain.ChannelEmail: email,
	}, time.Second, testLogger())

	alert := testAlert(domain.SeverityCritical)
	d.NotifyTriggered(context.Background(), alert, []domain.Channel{domain.ChannelChat, domain.ChannelEmail})

	if chat.count() != 1 {
		t.Errorf("expected 1 chat delivery, got %d", chat.count())
	}
	if email.count() != 1 {
		t.Errorf("expected 1 email delivery, got %d", email.count())
	}

	event := chat.last()
	if event.Kind != domain.TransitionTriggered {
		t.Errorf("expected triggered event, got %s", event.Kind)
	}
	if !strings.Contains(event.Text, "High Error Rate") {
		t.Errorf("expected text to contain rule name, got %q", event.Text)
	}
	if !strings.Contains(event.Text, "[CRITICAL]") {
		t.Errorf("expected text to contain severity label, got %q", event.Text)
	}
}

func TestDispatcherSkipsSMSForNonCritical(t *testing.T) {
	sms := &fakeSender{}
	chat := &fakeSender{}

	d := NewDispatcher(map[domain.Channel]ChannelSender{
		domain.ChannelSMS:  sms,
		domain.ChannelChat: chat,
	}, time.Second, testLogger())

	alert := testAlert(domain.SeverityWarning)
	d.NotifyTriggered(context.Background(), alert, []domain.Channel{domain.ChannelChat, domain.ChannelSMS})

	if sms.count() != 0 {
		t.Errorf("expected no sms delivery for warning alert, got %d", sms.count())
	}
	if chat.count() != 1 {
		t.Errorf("expected 1 chat delivery, got %d", chat.count())
	}
}

func TestDispatcherSendsSMSForCritical(t *testing.T) {
	sms := &fakeSender{}

	d := NewDispatcher(map[domain.Channel]ChannelSender{
		domain.ChannelSMS: sms,
	}, time.Second, testLogger())

	alert := testAlert(domain.SeverityCritical)
	d.NotifyTriggered(context.Background(), alert, []domain.Channel{domain.ChannelSMS})

	if sms.count() != 1 {
		t.Errorf("expected 1 sms delivery for critical alert, got %d", sms.count())
	}
}

func TestDispatcherSkipsUnknownChannel(t *testing.T) {
	chat := &fakeSender{}

	d := NewDispatcher(map[domain.Channel]ChannelSender{
		domain.ChannelChat: chat,
	}, time.Second, testLogger())

	alert := testAlert(domain.SeverityCritical)
	// "pager" has no configured sender and must not abort the rest.
	d.NotifyTriggered(context.Background(), alert, []domain.Channel{domain.Channel("pager"), domain.ChannelChat})

	if chat.count() != 1 {
		t.Errorf("expected 1 chat delivery, got %d", chat.count())
	}
}

func TestDispatcherFailureDoesNotAffectOtherChannels(t *testing.T) {
	chat := &fakeSender{err: errors.New("webhook down")}
	email := &fakeSender{}

	d := NewDispatcher(map[domain.Channel]ChannelSender{
		domain.ChannelChat:  chat,
		domain.ChannelEmail: email,
	}, time.Second, testLogger())

	alert := testAlert(domain.SeverityCritical)
	d.NotifyTriggered(context.Background(), alert, []domain.Channel{domain.ChannelChat, domain.ChannelEmail})

	if email.count() != 1 {
		t.Errorf("expected email delivery despite chat failure, got %d", email.count())
	}
}

func TestResolvedEventIncludesFiringDuration(t *testing.T) {
	chat := &fakeSender{}

	d := NewDispatcher(map[domain.Channel]ChannelSender{
		domain.ChannelChat: chat,
	}, time.Second, testLogger())

	alert := testAlert(domain.SeverityCritical)
	alert.TriggeredAt = time.Now().UTC().Add(-90 * time.Second)
	alert.Resolve(time.Now().UTC())

	d.NotifyResolved(context.Background(), alert, []domain.Channel{domain.ChannelChat})

	event := chat.last()
	if event == nil {
		t.Fatal("expected a delivery")
	}
	if event.Kind != domain.TransitionResolved {
		t.Errorf("expected resolved event, got %s", event.Kind)
	}
	if !strings.Contains(event.Text, "RESOLVED") {
		t.Errorf("expected resolved marker in text, got %q", event.Text)
	}
	if !strings.Contains(event.Text, "fired for") {
		t.Errorf("expected firing duration in text, got %q", event.Text)
	}
}
