// Package metrics provides performance metrics collection and export.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// defaultWindow is the number of samples a histogram keeps. Older
// samples are overwritten once the window is full, so percentiles
// reflect recent behavior rather than the whole process lifetime.
const defaultWindow = 1000

// Collector holds named counters, gauges, histograms and timers.
// Metrics are created on first use and live for the collector's
// lifetime.
type Collector struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	timers     map[string]*Timer
	startTime  time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		timers:     make(map[string]*Timer),
		startTime:  time.Now(),
	}
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds n to the counter.
func (c *Counter) Add(n int64) {
	c.value.Add(n)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Gauge is a value that can go up and down. The float64 is stored as
// its bit pattern so reads and writes stay lock-free.
type Gauge struct {
	bits atomic.Uint64
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

// Add adds v to the gauge.
func (g *Gauge) Add(v float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + v)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.Add(1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.Add(-1)
}

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Histogram keeps a sliding window of observed values.
type Histogram struct {
	mu     sync.Mutex
	window []float64
	next   int
	filled bool
}

// NewHistogram creates a histogram keeping at most size samples.
func NewHistogram(size int) *Histogram {
	if size <= 0 {
		size = defaultWindow
	}
	return &Histogram{window: make([]float64, size)}
}

// Observe records a value. Once the window is full, the oldest value
// is overwritten.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.window[h.next] = v
	h.next++
	if h.next == len(h.window) {
		h.next = 0
		h.filled = true
	}
	h.mu.Unlock()
}

// samples returns the recorded values, sorted ascending.
func (h *Histogram) samples() []float64 {
	h.mu.Lock()
	n := h.next
	if h.filled {
		n = len(h.window)
	}
	out := make([]float64, n)
	copy(out, h.window[:n])
	h.mu.Unlock()

	sort.Float64s(out)
	return out
}

// Percentile returns the p-th percentile (0-100) of the window, or 0
// when nothing has been observed.
func (h *Histogram) Percentile(p float64) float64 {
	sorted := h.samples()
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p / 100)
	return sorted[idx]
}

// Stats summarizes the current window.
func (h *Histogram) Stats() HistogramStats {
	sorted := h.samples()
	n := len(sorted)
	if n == 0 {
		return HistogramStats{}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return HistogramStats{
		Count: n,
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   sorted[n*50/100],
		P90:   sorted[n*90/100],
		P99:   sorted[n*99/100],
	}
}

// HistogramStats contains histogram summary statistics.
type HistogramStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// Timer records durations into a histogram, in seconds.
type Timer struct {
	histogram *Histogram
}

// Start begins one timed section.
func (t *Timer) Start() *TimerContext {
	return &TimerContext{timer: t, start: time.Now()}
}

// TimerContext is a single running measurement.
type TimerContext struct {
	timer *Timer
	start time.Time
}

// Stop records the elapsed time and returns it.
func (tc *TimerContext) Stop() time.Duration {
	d := time.Since(tc.start)
	tc.timer.histogram.Observe(d.Seconds())
	return d
}

// Counter returns the named counter, creating it on first use.
func (c *Collector) Counter(name string) *Counter {
	c.mu.Lock()
	defer c.mu.Unlock()

	counter, ok := c.counters[name]
	if !ok {
		counter = &Counter{}
		c.counters[name] = counter
	}
	return counter
}

// Gauge returns the named gauge, creating it on first use.
func (c *Collector) Gauge(name string) *Gauge {
	c.mu.Lock()
	defer c.mu.Unlock()

	gauge, ok := c.gauges[name]
	if !ok {
		gauge = &Gauge{}
		c.gauges[name] = gauge
	}
	return gauge
}

// Histogram returns the named histogram, creating it on first use.
func (c *Collector) Histogram(name string) *Histogram {
	c.mu.Lock()
	defer c.mu.Unlock()

	hist, ok := c.histograms[name]
	if !ok {
		hist = NewHistogram(defaultWindow)
		c.histograms[name] = hist
	}
	return hist
}

// Timer returns the named timer, creating it on first use.
func (c *Collector) Timer(name string) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer, ok := c.timers[name]
	if !ok {
		timer = &Timer{histogram: NewHistogram(defaultWindow)}
		c.timers[name] = timer
	}
	return timer
}

// Uptime returns the time since the collector was created.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Export renders all metrics as indented JSON.
func (c *Collector) Export() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := struct {
		Uptime     string                    `json:"uptime"`
		Counters   map[string]int64          `json:"counters"`
		Gauges     map[string]float64        `json:"gauges"`
		Histograms map[string]HistogramStats `json:"histograms"`
		Timers     map[string]HistogramStats `json:"timers"`
	}{
		Uptime:     time.Since(c.startTime).String(),
		Counters:   make(map[string]int64, len(c.counters)),
		Gauges:     make(map[string]float64, len(c.gauges)),
		Histograms: make(map[string]HistogramStats, len(c.histograms)),
		Timers:     make(map[string]HistogramStats, len(c.timers)),
	}

	for name, counter := range c.counters {
		out.Counters[name] = counter.Value()
	}
	for name, gauge := range c.gauges {
		out.Gauges[name] = gauge.Value()
	}
	for name, hist := range c.histograms {
		out.Histograms[name] = hist.Stats()
	}
	for name, timer := range c.timers {
		out.Timers[name] = timer.histogram.Stats()
	}

	return json.MarshalIndent(out, "", "  ")
}

// ExportPrometheus renders all metrics in the Prometheus text format.
// Output is sorted by metric name so scrapes diff cleanly.
func (c *Collector) ExportPrometheus() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder

	for _, name := range sortedKeys(c.counters) {
		fmt.Fprintf(&sb, "# TYPE %s counter\n", name)
		fmt.Fprintf(&sb, "%s %d\n", name, c.counters[name].Value())
	}

	for _, name := range sortedKeys(c.gauges) {
		fmt.Fprintf(&sb, "# TYPE %s gauge\n", name)
		fmt.Fprintf(&sb, "%s %f\n", name, c.gauges[name].Value())
	}

	for _, name := range sortedKeys(c.histograms) {
		writeSummary(&sb, name, c.histograms[name].Stats())
	}

	// Timers observe seconds, name them accordingly
	for _, name := range sortedKeys(c.timers) {
		writeSummary(&sb, name+"_seconds", c.timers[name].histogram.Stats())
	}

	return sb.String()
}

func writeSummary(sb *strings.Builder, name string, stats HistogramStats) {
	fmt.Fprintf(sb, "# TYPE %s summary\n", name)
	fmt.Fprintf(sb, "%s_count %d\n", name, stats.Count)
	fmt.Fprintf(sb, "%s{quantile=\"0.5\"} %f\n", name, stats.P50)
	fmt.Fprintf(sb, "%s{quantile=\"0.9\"} %f\n", name, stats.P90)
	fmt.Fprintf(sb, "%s{quantile=\"0.99\"} %f\n", name, stats.P99)
}

func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset discards every metric and restarts the uptime clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters = make(map[string]*Counter)
	c.gauges = make(map[string]*Gauge)
	c.histograms = make(map[string]*Histogram)
	c.timers = make(map[string]*Timer)
	c.startTime = time.Now()
}
