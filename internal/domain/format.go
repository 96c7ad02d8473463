package domain

import (
	"fmt"
	"strings"
)

// FormatMetricValue renders a metric value with a unit inferred from the
// metric name: percentages get a % suffix, latencies are shown in ms below
// one second and in seconds above it. Everything else prints as a plain
// number.
func FormatMetricValue(metric string, value float64) string {
	switch {
	case isPercentMetric(metric):
		return fmt.Sprintf("%.1f%%", value)
	case isLatencyMetric(metric):
		if value >= 1000 {
			return fmt.Sprintf("%.1fs", value/1000)
		}
		return fmt.Sprintf("%.0fms", value)
	default:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	}
}

// isPercentMetric reports whether the metric name denotes a percentage.
func isPercentMetric(metric string) bool {
	return strings.HasSuffix(metric, "_rate") ||
		strings.HasSuffix(metric, "_usage") ||
		strings.HasSuffix(metric, "_pct") ||
		strings.Contains(metric, "hit_rate")
}

// isLatencyMetric reports whether the metric name denotes a millisecond latency.
func isLatencyMetric(metric string) bool {
	return strings.Contains(metric, "latency") ||
		strings.HasSuffix(metric, "_ms") ||
		strings.HasSuffix(metric, "_duration")
}
