package metrics

import "sync"

var (
	globalCollector *Collector
	once            sync.Once
)

// Global returns the global metrics collector.
func Global() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}

// Convenience functions for quick access

// IncCounter increments a global counter by 1.
func IncCounter(name string) {
	Global().Counter(name).Inc()
}

// AddCounter adds n to a global counter.
func AddCounter(name string, n int64) {
	Global().Counter(name).Add(n)
}

// SetGauge sets a global gauge value.
func SetGauge(name string, v float64) {
	Global().Gauge(name).Set(v)
}

// IncGauge increments a global gauge by 1.
func IncGauge(name string) {
	Global().Gauge(name).Inc()
}

// DecGauge decrements a global gauge by 1.
func DecGauge(name string) {
	Global().Gauge(name).Dec()
}

// ObserveHistogram observes a value in a global histogram.
func ObserveHistogram(name string, v float64) {
	Global().Histogram(name).Observe(v)
}

// StartTimer starts a global timer.
func StartTimer(name string) *TimerContext {
	return Global().Timer(name).Start()
}

// Metric names for stylescan
const (
	// Scan metrics
	MetricScansTotal   = "stylescan_scans_total"
	MetricScanDuration = "stylescan_scan_duration"
	MetricFilesScanned = "stylescan_files_scanned_total"
	MetricFilesSkipped = "stylescan_files_skipped_total"
	MetricFindings     = "stylescan_findings_total"

	// Cache metrics
	MetricCacheHits   = "stylescan_cache_hits_total"
	MetricCacheMisses = "stylescan_cache_misses_total"
	MetricCacheSize   = "stylescan_cache_size"

	// Server metrics
	MetricHTTPRequests = "stylescan_http_requests_total"
	MetricHTTPLatency  = "stylescan_http_request_duration"

	// System metrics
	MetricMemoryUsage = "stylescan_memory_bytes"
	MetricGoroutines  = "stylescan_goroutines"
	MetricErrors      = "stylescan_errors_total"
)
