package telemetry

// Histogram bucket definitions
var (
	// IngestBuckets for CSV parsing plus bulk insert latency
	IngestBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// HTTPBuckets for request latency
	HTTPBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

// Ingestion metrics
var (
	// IngestRowsTotal counts rows inserted per dataset kind
	IngestRowsTotal CounterVec = noopCounterVec{}

	// IngestFailuresTotal counts failed uploads per dataset kind
	IngestFailuresTotal CounterVec = noopCounterVec{}

	// IngestDurationSeconds measures ingestion latency per dataset kind
	IngestDurationSeconds HistogramVec = noopHistogramVec{}
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts requests by route and status class
	HTTPRequestsTotal CounterVec = noopCounterVec{}

	// HTTPRequestDurationSeconds measures request latency by route
	HTTPRequestDurationSeconds HistogramVec = noopHistogramVec{}
)

// Chart cache metrics
var (
	// ChartCacheHitsTotal counts chart-data responses served from cache
	ChartCacheHitsTotal Counter = NoopStat{}

	// ChartCacheMissesTotal counts chart-data responses computed from the store
	ChartCacheMissesTotal Counter = NoopStat{}

	// ChartCacheEntries tracks the current number of cached responses
	ChartCacheEntries Gauge = NoopStat{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	IngestRowsTotal = NewCounterVec(
		"ingest_rows_total",
		"Rows inserted per dataset kind",
		[]string{"kind"},
	)
	IngestFailuresTotal = NewCounterVec(
		"ingest_failures_total",
		"Failed uploads per dataset kind",
		[]string{"kind"},
	)
	IngestDurationSeconds = NewHistogramVec(
		"ingest_duration_seconds",
		"Ingestion duration in seconds",
		[]string{"kind"},
		IngestBuckets,
	)

	HTTPRequestsTotal = NewCounterVec(
		"http_requests_total",
		"HTTP requests by route and status class",
		[]string{"route", "status"},
	)
	HTTPRequestDurationSeconds = NewHistogramVec(
		"http_request_duration_seconds",
		"HTTP request duration in seconds",
		[]string{"route"},
		HTTPBuckets,
	)

	ChartCacheHitsTotal = NewCounter(
		"chart_cache_hits_total",
		"Chart-data responses served from cache",
	)
	ChartCacheMissesTotal = NewCounter(
		"chart_cache_misses_total",
		"Chart-data responses computed from the store",
	)
	ChartCacheEntries = NewGauge(
		"chart_cache_entries",
		"Current number of cached chart responses",
	)
}
