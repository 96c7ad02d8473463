// Package evaluator contains the alert evaluation engine. Each pass
// compares a metric snapshot against every enabled rule, drives alert
// lifecycle transitions, and hands state changes to the notification
// dispatcher and the transition stream.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
	"vigil-go/internal/notification"
	"vigil-go/internal/queue"
	"vigil-go/internal/store"
)

// Evaluation outcome labels for metrics.
const (
	resultOK        = "ok"
	resultTriggered = "triggered"
	resultResolved  = "resolved"
	resultSkipped   = "skipped"
	resultError     = "error"
)

// Service evaluates metric snapshots against the rule registry.
// Passes are serialized behind a mutex so concurrent callers (the
// periodic runner and the on-demand API) never interleave transitions
// for the same rule.
type Service struct {
	ruleRepo  store.RuleRepository
	alertRepo store.AlertRepository
	active    store.ActiveStore
	notifier  notification.Notifier
	producer  queue.Producer
	logger    *slog.Logger

	mu sync.Mutex

	// pendingSince tracks, per rule, when a breach was first observed.
	// Rules with a sustain duration only fire once the breach has held
	// for that long. Reset whenever the condition stops matching.
	pendingSince map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the evaluation engine.
func NewService(
	ruleRepo store.RuleRepository,
	alertRepo store.AlertRepository,
	active store.ActiveStore,
	notifier notification.Notifier,
	producer queue.Producer,
	logger *slog.Logger,
) *Service {
	return &Service{
		ruleRepo:     ruleRepo,
		alertRepo:    alertRepo,
		active:       active,
		notifier:     notifier,
		producer:     producer,
		logger:       logger,
		pendingSince: make(map[string]time.Time),
		now:          time.Now,
	}
}

// Evaluate runs one evaluation pass over the snapshot and returns the
// state transitions it produced, in rule registration order.
func (s *Service) Evaluate(ctx context.Context, snapshot domain.Snapshot) ([]domain.StateTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now().UTC()

	rules, err := s.ruleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	var transitions []domain.StateTransition
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		t, err := s.evaluateRule(ctx, rule, snapshot, start)
		if err != nil {
			s.logger.Error("rule evaluation failed",
				"ruleID", rule.ID,
				"metric", rule.Metric,
				"error", err,
			)
			metrics.RuleEvaluationsTotal.WithLabelValues(resultError).Inc()
			continue
		}
		if t != nil {
			transitions = append(transitions, *t)
		}
	}

	s.updateFiringGauge(ctx)

	metrics.EvaluationPassesTotal.Inc()
	metrics.EvaluationPassDuration.Observe(time.Since(start).Seconds())

	return transitions, nil
}

// evaluateRule evaluates a single rule against the snapshot. It returns
// a transition when the rule triggered or resolved, nil otherwise.
// A panic in rule evaluation is contained so one bad rule cannot take
// down the pass.
func (s *Service) evaluateRule(ctx context.Context, rule *domain.AlertRule, snapshot domain.Snapshot, now time.Time) (t *domain.StateTransition, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()

	value, ok := snapshot[rule.Metric]
	if !ok {
		s.logger.Warn("metric missing from snapshot, skipping rule",
			"ruleID", rule.ID,
			"metric", rule.Metric,
		)
		metrics.RuleEvaluationsTotal.WithLabelValues(resultSkipped).Inc()
		return nil, nil
	}

	breached := domain.Check(value, rule.Condition, rule.Threshold)

	entry, err := s.active.Get(ctx, rule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read active index: %w", err)
	}

	switch {
	case breached && entry == nil:
		return s.trigger(ctx, rule, value, now)

	case !breached && entry != nil:
		delete(s.pendingSince, rule.ID)
		return s.resolve(ctx, rule, entry, value, now)

	default:
		// Already firing and still breached, or healthy and not firing.
		if !breached {
			delete(s.pendingSince, rule.ID)
		}
		metrics.RuleEvaluationsTotal.WithLabelValues(resultOK).Inc()
		return nil, nil
	}
}

// trigger fires a new alert for the rule, subject to its sustain
// duration.
func (s *Service) trigger(ctx context.Context, rule *domain.AlertRule, value float64, now time.Time) (*domain.StateTransition, error) {
	if sustain := rule.Duration(); sustain > 0 {
		since, pending := s.pendingSince[rule.ID]
		if !pending {
			s.pendingSince[rule.ID] = now
			metrics.RuleEvaluationsTotal.WithLabelValues(resultOK).Inc()
			return nil, nil
		}
		if now.Sub(since) < sustain {
			metrics.RuleEvaluationsTotal.WithLabelValues(resultOK).Inc()
			return nil, nil
		}
	}

	alert := domain.NewAlert(rule, value, now)

	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to record alert: %w", err)
	}

	if err := s.active.Set(ctx, &store.ActiveAlert{
		RuleID:      rule.ID,
		AlertID:     alert.ID,
		TriggeredAt: alert.TriggeredAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to index active alert: %w", err)
	}

	delete(s.pendingSince, rule.ID)

	s.logger.Info("alert triggered",
		"alertID", alert.ID,
		"ruleID", rule.ID,
		"metric", rule.Metric,
		"value", value,
		"threshold", rule.Threshold,
		"severity", rule.Severity,
	)
	metrics.RuleEvaluationsTotal.WithLabelValues(resultTriggered).Inc()
	metrics.AlertsTriggeredTotal.WithLabelValues(string(rule.Severity)).Inc()

	transition := domain.StateTransition{Kind: domain.TransitionTriggered, Alert: *alert}
	s.publishTransition(ctx, &transition)

	// Notification delivery must not hold up the pass.
	notifyAlert := *alert
	channels := append([]domain.Channel(nil), rule.Channels...)
	go s.notifier.NotifyTriggered(context.WithoutCancel(ctx), &notifyAlert, channels)

	return &transition, nil
}

// resolve closes the firing alert indexed for the rule.
func (s *Service) resolve(ctx context.Context, rule *domain.AlertRule, entry *store.ActiveAlert, value float64, now time.Time) (*domain.StateTransition, error) {
	alert, err := s.alertRepo.GetByID(ctx, entry.AlertID)
	if err != nil {
		// The index points at a ledger entry that no longer exists
		// (history eviction). Drop the stale index entry.
		if derr := s.active.Delete(ctx, rule.ID); derr != nil {
			return nil, fmt.Errorf("failed to drop stale active entry: %w", derr)
		}
		return nil, fmt.Errorf("failed to load firing alert %s: %w", entry.AlertID, err)
	}

	alert.CurrentValue = value
	alert.Resolve(now)

	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}

	if err := s.active.Delete(ctx, rule.ID); err != nil {
		return nil, fmt.Errorf("failed to clear active index: %w", err)
	}

	s.logger.Info("alert resolved",
		"alertID", alert.ID,
		"ruleID", rule.ID,
		"metric", rule.Metric,
		"value", value,
		"firedFor", alert.FiringDuration(now).Round(time.Second).String(),
	)
	metrics.RuleEvaluationsTotal.WithLabelValues(resultResolved).Inc()
	metrics.AlertsResolvedTotal.WithLabelValues(string(alert.Severity)).Inc()

	transition := domain.StateTransition{Kind: domain.TransitionResolved, Alert: *alert}
	s.publishTransition(ctx, &transition)

	notifyAlert := *alert
	channels := append([]domain.Channel(nil), rule.Channels...)
	go s.notifier.NotifyResolved(context.WithoutCancel(ctx), &notifyAlert, channels)

	return &transition, nil
}

// publishTransition puts a state transition on the stream. Stream
// failures are logged but never fail the pass; the ledger is the
// source of truth.
func (s *Service) publishTransition(ctx context.Context, t *domain.StateTransition) {
	if s.producer == nil {
		return
	}

	value, err := json.Marshal(t)
	if err != nil {
		s.logger.Error("failed to marshal transition", "error", err)
		return
	}

	msg := &queue.Message{
		Key:   []byte(t.Alert.RuleID),
		Value: value,
		Headers: map[string]string{
			"kind": string(t.Kind),
		},
	}

	if err := s.producer.Publish(ctx, msg); err != nil {
		s.logger.Error("failed to publish transition",
			"alertID", t.Alert.ID,
			"kind", t.Kind,
			"error", err,
		)
		return
	}

	metrics.TransitionsPublishedTotal.WithLabelValues(string(t.Kind)).Inc()
}

func (s *Service) updateFiringGauge(ctx context.Context) {
	entries, err := s.active.List(ctx)
	if err != nil {
		s.logger.Error("failed to list active alerts for gauge", "error", err)
		return
	}
	metrics.AlertsFiring.Set(float64(len(entries)))
}
