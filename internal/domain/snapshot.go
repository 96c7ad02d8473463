package domain

// Snapshot is a point-in-time mapping of metric name to numeric value,
// produced by the external health-probe subsystem. The engine never
// computes these values; it only names the metrics it expects.
type Snapshot map[string]float64

// Metric names produced by the health-probe subsystem.
const (
	MetricAPILatencyP95          = "api_latency_p95"
	MetricErrorRate              = "error_rate"
	MetricCacheHitRate           = "cache_hit_rate"
	MetricDatabaseConnections    = "database_connections"
	MetricMemoryUsage            = "memory_usage"
	MetricHealthStatus           = "health_status"
	MetricExternalServicesStatus = "external_services_status"
)
