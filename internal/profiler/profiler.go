// Package profiler captures CPU and heap profiles for scan runs and
// optionally serves the net/http/pprof endpoints.
package profiler

import (
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: only wired up when --pprof-addr is given explicitly
	"os"
	"runtime"
	"runtime/pprof"
	"time"
)

// Config selects which profiles to capture. Zero fields are off.
type Config struct {
	// CPUProfile is the output file for the CPU profile
	CPUProfile string

	// MemProfile is the output file for the heap profile, written on Stop
	MemProfile string

	// HTTPAddr serves pprof over HTTP when set (e.g., ":6060")
	HTTPAddr string
}

// Profiler is an active profiling session. Create with New, finish
// with Stop.
type Profiler struct {
	cpuOut  *os.File
	memPath string
	srv     *http.Server
	started time.Time
}

// New starts profiling per cfg. CPU profiling begins immediately; the
// heap profile is captured when Stop is called.
func New(cfg Config) (*Profiler, error) {
	p := &Profiler{
		memPath: cfg.MemProfile,
		started: time.Now(),
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("starting CPU profile: %w", err)
		}
		p.cpuOut = f
	}

	if cfg.HTTPAddr != "" {
		// The pprof handlers registered themselves on DefaultServeMux
		// via the blank import above.
		p.srv = &http.Server{
			Addr:         cfg.HTTPAddr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			if err := p.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	return p, nil
}

// Stop ends the session: finishes the CPU profile, writes the heap
// profile, and shuts down the pprof server. All failures are collected
// so one bad output does not hide the others.
func (p *Profiler) Stop() error {
	var errs []error

	if p.cpuOut != nil {
		pprof.StopCPUProfile()
		if err := p.cpuOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing CPU profile: %w", err))
		}
	}

	if p.memPath != "" {
		errs = append(errs, p.writeHeapProfile())
	}

	if p.srv != nil {
		if err := p.srv.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing pprof server: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (p *Profiler) writeHeapProfile() error {
	// GC first so the profile reflects live objects
	runtime.GC()

	f, err := os.Create(p.memPath)
	if err != nil {
		return fmt.Errorf("creating memory profile: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	return nil
}

// Duration returns how long the session has been running.
func (p *Profiler) Duration() time.Duration {
	return time.Since(p.started)
}

// MemStats is a snapshot of the runtime's memory accounting.
type MemStats struct {
	Alloc      uint64 // bytes currently allocated
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // bytes obtained from the OS
	NumGC      uint32 // completed GC cycles
	HeapAlloc  uint64
	HeapSys    uint64
	HeapInuse  uint64
}

// Stats captures the current memory statistics.
func Stats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		HeapInuse:  m.HeapInuse,
	}
}

func (m MemStats) String() string {
	return fmt.Sprintf("Alloc: %s, HeapAlloc: %s, Sys: %s, NumGC: %d",
		formatBytes(m.Alloc), formatBytes(m.HeapAlloc), formatBytes(m.Sys), m.NumGC)
}

// formatBytes renders b with a binary unit suffix.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
