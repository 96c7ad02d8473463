package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlertNotFound is returned when an alert cannot be found.
var ErrAlertNotFound = errors.New("alert not found")

// AlertStatus represents the current state of an alert.
type AlertStatus string

const (
	// AlertStatusFiring indicates the rule condition is currently true.
	AlertStatusFiring AlertStatus = "firing"
	// AlertStatusResolved indicates the condition has since evaluated false.
	AlertStatusResolved AlertStatus = "resolved"
)

// resolvedPrefix is prepended to an alert's message at resolution time.
const resolvedPrefix = "RESOLVED: "

// Alert is one instance of a rule's condition being true, or having been
// true. At most one firing alert exists per rule at any time; resolved
// alerts accumulate in the history ledger, one per firing episode.
type Alert struct {
	// ID is derived from the rule id and trigger time so repeated firings
	// of the same rule produce distinct alerts.
	ID string `json:"id"`

	// RuleID identifies the rule that fired.
	RuleID string `json:"rule_id"`

	// RuleName is the rule's display name at trigger time.
	RuleName string `json:"rule_name"`

	// Metric is the metric the rule watches.
	Metric string `json:"metric"`

	// CurrentValue is the metric value observed at trigger time.
	CurrentValue float64 `json:"current_value"`

	// Threshold is the rule threshold at trigger time.
	Threshold float64 `json:"threshold"`

	// Severity is the rule severity at trigger time.
	Severity Severity `json:"severity"`

	// Status is firing or resolved. Acknowledgment is an annotation, not
	// a status.
	Status AlertStatus `json:"status"`

	// Message is generated at trigger time and rewritten with a resolved
	// prefix at resolution time.
	Message string `json:"message"`

	// TriggeredAt is when the alert fired.
	TriggeredAt time.Time `json:"triggered_at"`

	// ResolvedAt is when the alert resolved. Nil while firing.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	// Acknowledgments is the append-only list of operator acknowledgments.
	Acknowledgments []Acknowledgment `json:"acknowledgments,omitempty"`
}

// NewAlert creates a firing alert for a rule whose condition just became
// true at the observed metric value.
func NewAlert(rule *AlertRule, value float64, now time.Time) *Alert {
	now = now.UTC()
	return &Alert{
		ID:           fmt.Sprintf("%s-%d", rule.ID, now.UnixNano()),
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		Metric:       rule.Metric,
		CurrentValue: value,
		Threshold:    rule.Threshold,
		Severity:     rule.Severity,
		Status:       AlertStatusFiring,
		Message: fmt.Sprintf("%s: %s is %s (threshold %s)",
			rule.Name,
			rule.Metric,
			FormatMetricValue(rule.Metric, value),
			FormatMetricValue(rule.Metric, rule.Threshold),
		),
		TriggeredAt: now,
	}
}

// IsFiring returns true if the alert's condition is still true.
func (a *Alert) IsFiring() bool {
	return a.Status == AlertStatusFiring
}

// IsResolved returns true if the alert has been resolved.
func (a *Alert) IsResolved() bool {
	return a.Status == AlertStatusResolved
}

// Resolve marks the alert as resolved and rewrites its message with the
// resolution prefix. Resolving an already-resolved alert is a no-op.
func (a *Alert) Resolve(now time.Time) {
	if a.IsResolved() {
		return
	}
	now = now.UTC()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
	a.Message = resolvedPrefix + a.Message
}

// FiringDuration returns how long the alert fired, up to now if it is
// still firing.
func (a *Alert) FiringDuration(now time.Time) time.Duration {
	if a.ResolvedAt != nil {
		return a.ResolvedAt.Sub(a.TriggeredAt)
	}
	return now.Sub(a.TriggeredAt)
}

// Acknowledge appends an operator acknowledgment. Acknowledgment never
// changes the alert status.
func (a *Alert) Acknowledge(ack Acknowledgment) {
	a.Acknowledgments = append(a.Acknowledgments, ack)
}

// Acknowledgment records an operator's claim of awareness of an alert.
type Acknowledgment struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	Message        string    `json:"message,omitempty"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

// TransitionKind classifies an alert state change within an evaluation pass.
type TransitionKind string

const (
	TransitionTriggered TransitionKind = "triggered"
	TransitionResolved  TransitionKind = "resolved"
)

// StateTransition is one alert lifecycle change emitted by an evaluation
// pass, consumable by a logging/metrics exporter. It carries a copy of
// the alert so later ledger updates never rewrite a published transition.
type StateTransition struct {
	Kind  TransitionKind `json:"kind"`
	Alert Alert          `json:"alert"`
}
