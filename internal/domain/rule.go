// Package domain contains the core types of the alerting engine:
// rules, alerts, acknowledgments, metric snapshots, and the condition
// check that connects them.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Condition is the comparison applied between a metric value and a rule threshold.
type Condition string

const (
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "not_equals"
)

// IsValid returns true if the condition is one of the supported comparisons.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionGreaterThan, ConditionLessThan, ConditionEquals, ConditionNotEquals:
		return true
	}
	return false
}

// Severity indicates how urgent a rule's alerts are.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Channel is a named notification transport referenced by rules.
// Actual delivery mechanics live outside the engine.
type Channel string

const (
	ChannelChat    Channel = "chat"
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
)

// AlertRule is a monitoring policy: a thresholded condition over one metric,
// with severity and notification channels.
type AlertRule struct {
	// ID is the unique, stable identifier for this rule.
	ID string `json:"id"`

	// Name is a human-readable display name.
	Name string `json:"name"`

	// Description provides additional operator-facing context.
	Description string `json:"description,omitempty"`

	// Metric is the key into the extracted metric snapshot.
	Metric string `json:"metric"`

	// Condition is the comparison applied to the metric value.
	Condition Condition `json:"condition"`

	// Threshold is the numeric value the metric is compared against.
	Threshold float64 `json:"threshold"`

	// Severity is either warning or critical. SMS delivery is gated on critical.
	Severity Severity `json:"severity"`

	// Channels lists the notification channels for this rule, in order.
	Channels []Channel `json:"channels"`

	// Enabled controls whether the evaluator considers this rule at all.
	Enabled bool `json:"enabled"`

	// Tags are free-form labels for grouping rules in the management surface.
	Tags []string `json:"tags,omitempty"`

	// DurationSeconds is the minimum time the condition must hold
	// continuously before the rule fires. Zero fires on the first true
	// observation.
	DurationSeconds int `json:"duration_seconds"`

	// CreatedAt is when the rule was registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the rule was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for AlertRule.
var (
	ErrInvalidRule  = errors.New("invalid rule")
	ErrRuleNotFound = errors.New("rule not found")
)

// Validate checks the rule carries the fields the evaluator depends on.
// Only id and metric are hard requirements; everything else has a usable
// zero value or a default applied by Normalize.
func (r *AlertRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRule)
	}
	if r.Metric == "" {
		return fmt.Errorf("%w: metric is required", ErrInvalidRule)
	}
	if r.Condition != "" && !r.Condition.IsValid() {
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidRule, r.Condition)
	}
	return nil
}

// Normalize fills defaults for optional fields.
func (r *AlertRule) Normalize() {
	if r.Condition == "" {
		r.Condition = ConditionGreaterThan
	}
	if r.Severity == "" {
		r.Severity = SeverityWarning
	}
	if r.Name == "" {
		r.Name = r.ID
	}
}

// Duration returns the sustained-condition window as a time.Duration.
func (r *AlertRule) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// UpdateRuleRequest is a partial update for an existing rule. Nil fields
// are left untouched so callers can patch a single attribute.
type UpdateRuleRequest struct {
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Metric          *string    `json:"metric,omitempty"`
	Condition       *Condition `json:"condition,omitempty"`
	Threshold       *float64   `json:"threshold,omitempty"`
	Severity        *Severity  `json:"severity,omitempty"`
	Channels        *[]Channel `json:"channels,omitempty"`
	Enabled         *bool      `json:"enabled,omitempty"`
	Tags            *[]string  `json:"tags,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
}

// ApplyTo merges the set fields into an existing rule.
func (u *UpdateRuleRequest) ApplyTo(r *AlertRule) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Metric != nil {
		r.Metric = *u.Metric
	}
	if u.Condition != nil {
		r.Condition = *u.Condition
	}
	if u.Threshold != nil {
		r.Threshold = *u.Threshold
	}
	if u.Severity != nil {
		r.Severity = *u.Severity
	}
	if u.Channels != nil {
		r.Channels = *u.Channels
	}
	if u.Enabled != nil {
		r.Enabled = *u.Enabled
	}
	if u.Tags != nil {
		r.Tags = *u.Tags
	}
	if u.DurationSeconds != nil {
		r.DurationSeconds = *u.DurationSeconds
	}
	r.UpdatedAt = time.Now().UTC()
}

// DefaultRules returns the built-in seed rules covering the standard
// health-probe metrics. They carry no special evaluation logic and exist
// so a fresh deployment alerts on something sensible out of the box.
func DefaultRules() []*AlertRule {
	now := time.Now().UTC()
	rules := []*AlertRule{
		{
			ID:        "high-api-latency",
			Name:      "High API Latency",
			Metric:    MetricAPILatencyP95,
			Condition: ConditionGreaterThan,
			Threshold: 3000,
			Severity:  SeverityCritical,
			Channels:  []Channel{ChannelChat, ChannelEmail},
			Enabled:   true,
		},
		{
			ID:        "high-error-rate",
			Name:      "High Error Rate",
			Metric:    MetricErrorRate,
			Condition: ConditionGreaterThan,
			Threshold: 5,
			Severity:  SeverityCritical,
			Channels:  []Channel{ChannelChat, ChannelEmail, ChannelSMS},
			Enabled:   true,
		},
		{
			ID:        "low-cache-hit-rate",
			Name:      "Low Cache Hit Rate",
			Metric:    MetricCacheHitRate,
			Condition: ConditionLessThan,
			Threshold: 80,
			Severity:  SeverityWarning,
			Channels:  []Channel{ChannelChat},
			Enabled:   true,
		},
		{
			ID:        "database-connection-saturation",
			Name:      "Database Connection Saturation",
			Metric:    MetricDatabaseConnections,
			Condition: ConditionGreaterThan,
			Threshold: 90,
			Severity:  SeverityCritical,
			Channels:  []Channel{ChannelChat, ChannelEmail},
			Enabled:   true,
		},
		{
			ID:        "high-memory-usage",
			Name:      "High Memory Usage",
			Metric:    MetricMemoryUsage,
			Condition: ConditionGreaterThan,
			Threshold: 85,
			Severity:  SeverityWarning,
			Channels:  []Channel{ChannelChat},
			Enabled:   true,
		},
		{
			ID:        "aggregate-health-degraded",
			Name:      "Aggregate Health Degraded",
			Metric:    MetricHealthStatus,
			Condition: ConditionNotEquals,
			Threshold: 1,
			Severity:  SeverityCritical,
			Channels:  []Channel{ChannelChat, ChannelEmail, ChannelSMS},
			Enabled:   true,
		},
		{
			ID:        "external-services-degraded",
			Name:      "External Services Degraded",
			Metric:    MetricExternalServicesStatus,
			Condition: ConditionNotEquals,
			Threshold: 1,
			Severity:  SeverityWarning,
			Channels:  []Channel{ChannelChat, ChannelWebhook},
			Enabled:   true,
		},
	}

	for _, r := range rules {
		r.CreatedAt = now
		r.UpdatedAt = now
	}
	return rules
}
