// Package metrics provides Prometheus metrics for Vigil.
// It tracks evaluation passes, alert lifecycle transitions, and
// notification delivery outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "vigil"
)

// Evaluation metrics track the periodic evaluation loop.
var (
	// EvaluationPassesTotal counts completed evaluation passes.
	EvaluationPassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_passes_total",
			Help:      "Total number of completed evaluation passes",
		},
	)

	// RuleEvaluationsTotal counts per-rule evaluation outcomes.
	RuleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_evaluations_total",
			Help:      "Total number of rule evaluations by outcome",
		},
		[]string{"result"}, // result: ok, triggered, resolved, skipped, error
	)

	// EvaluationPassDuration measures wall time of a full evaluation pass.
	EvaluationPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_pass_duration_seconds",
			Help:      "Duration of a full evaluation pass in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Alert metrics track alert lifecycle.
var (
	// AlertsTriggeredTotal counts alerts fired, labeled by severity.
	AlertsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Total number of alerts triggered",
		},
		[]string{"severity"},
	)

	// AlertsResolvedTotal counts alerts resolved, labeled by severity.
	AlertsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_resolved_total",
			Help:      "Total number of alerts resolved",
		},
		[]string{"severity"},
	)

	// AlertsFiring tracks the current number of firing alerts.
	AlertsFiring = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_firing",
			Help:      "Current number of firing alerts",
		},
	)
)

// Notification metrics track the notification fan-out.
var (
	// NotificationsSentTotal counts per-channel delivery attempts by outcome.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notification delivery attempts",
		},
		[]string{"channel", "status"}, // status: success, failure, skipped
	)

	// NotificationLatency measures time from alert state change to
	// notification dispatch completion.
	NotificationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_latency_seconds",
			Help:      "Time from alert state change to notification dispatch in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Transition stream metrics track the exporter pipeline.
var (
	// TransitionsPublishedTotal counts transitions published to the stream.
	TransitionsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_published_total",
			Help:      "Total number of state transitions published to the stream",
		},
		[]string{"kind"}, // kind: triggered, resolved
	)

	// TransitionsExportedTotal counts transitions consumed by the exporter.
	TransitionsExportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_exported_total",
			Help:      "Total number of state transitions consumed by the exporter",
		},
		[]string{"kind"},
	)
)
