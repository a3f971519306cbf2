package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/stylescan/stylescan/internal/metrics"
)

// InstrumentedEngine wraps Engine with metrics collection.
type InstrumentedEngine struct {
	engine    *Engine
	collector *metrics.Collector
}

// NewInstrumentedEngine creates an engine with metrics instrumentation.
func NewInstrumentedEngine(engine *Engine) *InstrumentedEngine {
	return &InstrumentedEngine{
		engine:    engine,
		collector: metrics.Global(),
	}
}

// NewInstrumentedEngineWithCollector creates an engine with a custom collector.
func NewInstrumentedEngineWithCollector(engine *Engine, collector *metrics.Collector) *InstrumentedEngine {
	return &InstrumentedEngine{
		engine:    engine,
		collector: collector,
	}
}

// Run executes the scan with metrics collection.
func (ie *InstrumentedEngine) Run(ctx context.Context, paths []string) (*Result, error) {
	ie.collector.Counter(metrics.MetricScansTotal).Inc()

	timer := ie.collector.Timer(metrics.MetricScanDuration).Start()
	defer timer.Stop()

	result, err := ie.engine.Run(ctx, paths)

	if err != nil {
		ie.collector.Counter(metrics.MetricErrors).Inc()
		return result, err
	}

	if result != nil {
		ie.collector.Counter(metrics.MetricFilesScanned).Add(int64(result.FilesScanned))
		ie.collector.Counter(metrics.MetricFilesSkipped).Add(int64(result.FilesSkipped))
		ie.collector.Counter(metrics.MetricFindings).Add(int64(result.TotalFindings))

		for _, f := range result.Files {
			if f.Cached {
				ie.collector.Counter(metrics.MetricCacheHits).Inc()
			} else {
				ie.collector.Counter(metrics.MetricCacheMisses).Inc()
			}
		}
	}

	ie.updateSystemMetrics()

	return result, nil
}

// updateSystemMetrics updates memory and goroutine gauges.
func (ie *InstrumentedEngine) updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ie.collector.Gauge(metrics.MetricMemoryUsage).Set(float64(m.Alloc))
	ie.collector.Gauge(metrics.MetricGoroutines).Set(float64(runtime.NumGoroutine()))
}

// Metrics returns the metrics as JSON.
func (ie *InstrumentedEngine) Metrics() ([]byte, error) {
	return ie.collector.Export()
}

// MetricsPrometheus returns the metrics in Prometheus format.
func (ie *InstrumentedEngine) MetricsPrometheus() string {
	return ie.collector.ExportPrometheus()
}

// Stats returns a summary of scan statistics.
func (ie *InstrumentedEngine) Stats() ScanStats {
	return ScanStats{
		TotalScans:    ie.collector.Counter(metrics.MetricScansTotal).Value(),
		TotalFiles:    ie.collector.Counter(metrics.MetricFilesScanned).Value(),
		TotalFindings: ie.collector.Counter(metrics.MetricFindings).Value(),
		TotalErrors:   ie.collector.Counter(metrics.MetricErrors).Value(),
		CacheHits:     ie.collector.Counter(metrics.MetricCacheHits).Value(),
		CacheMisses:   ie.collector.Counter(metrics.MetricCacheMisses).Value(),
		MemoryBytes:   uint64(ie.collector.Gauge(metrics.MetricMemoryUsage).Value()),
		Goroutines:    int(ie.collector.Gauge(metrics.MetricGoroutines).Value()),
		Uptime:        ie.collector.Uptime(),
	}
}

// ScanStats contains aggregate scan statistics.
type ScanStats struct {
	TotalScans    int64         `json:"total_scans"`
	TotalFiles    int64         `json:"total_files"`
	TotalFindings int64         `json:"total_findings"`
	TotalErrors   int64         `json:"total_errors"`
	CacheHits     int64         `json:"cache_hits"`
	CacheMisses   int64         `json:"cache_misses"`
	MemoryBytes   uint64        `json:"memory_bytes"`
	Goroutines    int           `json:"goroutines"`
	Uptime        time.Duration `json:"uptime"`
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
func (s ScanStats) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100
}
