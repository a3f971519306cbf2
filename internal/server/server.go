// Package server exposes scanning over a small JSON HTTP API, so a CI
// runner or editor integration can submit content without shelling out to
// the CLI per file.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/stylescan/stylescan/internal/config"
	"github.com/stylescan/stylescan/internal/history"
	"github.com/stylescan/stylescan/internal/logger"
	"github.com/stylescan/stylescan/internal/metrics"
	"github.com/stylescan/stylescan/internal/scanner"
)

// shutdownTimeout is how long in-flight requests get to drain.
const shutdownTimeout = 5 * time.Second

// Server serves the scan API.
type Server struct {
	cfg     config.ServerConfig
	set     *scanner.RuleSet
	store   *history.Store // nil when history is disabled
	version string
	log     *logger.Logger

	collector *metrics.Collector
	started   time.Time
}

// New creates a server. store may be nil.
func New(cfg config.ServerConfig, set *scanner.RuleSet, store *history.Store, version string) *Server {
	return &Server{
		cfg:       cfg,
		set:       set,
		store:     store,
		version:   version,
		log:       logger.Default().WithPrefix("SERVER"),
		collector: metrics.Global(),
		started:   time.Now(),
	}
}

// Routes builds the request mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.instrument(s.handleHealth))
	mux.HandleFunc("POST /api/v1/scan", s.instrument(s.withAuth(s.handleScan)))
	mux.HandleFunc("GET /api/v1/rules", s.instrument(s.withAuth(s.handleRules)))
	mux.HandleFunc("GET /api/v1/runs", s.instrument(s.withAuth(s.handleRuns)))
	mux.HandleFunc("GET /metrics", s.instrument(s.handleMetrics))

	mux.HandleFunc("/", s.instrument(func(w http.ResponseWriter, r *http.Request) {
		s.err(w, http.StatusNotFound, "not found")
	}))

	return mux
}

// ListenAndServe runs the server until the context is cancelled or an
// interrupt arrives, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-stop:
		s.log.Info("Shutting down")
	case <-ctx.Done():
		s.log.Info("Shutting down: %v", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

type scanRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type scanResponse struct {
	Filename   string            `json:"filename"`
	Findings   []scanner.Finding `json:"findings"`
	Count      int               `json:"count"`
	BySeverity map[string]int    `json:"by_severity,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.err(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	doc := scanner.NewDocument(req.Filename, req.Content)
	findings, err := scanner.ScanSet(doc, s.set)
	if err != nil {
		// A scan error is never reported as zero findings
		s.err(w, http.StatusBadRequest, "scan failed: "+err.Error())
		return
	}

	resp := scanResponse{
		Filename: req.Filename,
		Findings: findings,
		Count:    len(findings),
	}
	if len(findings) > 0 {
		resp.BySeverity = make(map[string]int)
		for _, f := range findings {
			resp.BySeverity[string(f.Severity)]++
		}
	}

	s.collector.Counter(metrics.MetricFilesScanned).Inc()
	s.collector.Counter(metrics.MetricFindings).Add(int64(len(findings)))

	writeJSON(w, http.StatusOK, resp)
}

type ruleInfo struct {
	ID        string   `json:"id"`
	Severity  string   `json:"severity"`
	Category  string   `json:"category"`
	Languages []string `json:"languages,omitempty"`
	Message   string   `json:"message"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	items := make([]ruleInfo, 0, len(s.set.Rules))
	for _, rule := range s.set.Enabled() {
		items = append(items, ruleInfo{
			ID:        rule.ID,
			Severity:  string(rule.Severity),
			Category:  string(rule.Category),
			Languages: rule.Languages,
			Message:   rule.Message,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.err(w, http.StatusNotFound, "history disabled")
		return
	}

	limit := clamp(parseInt(r.URL.Query().Get("limit"), 20), 1, 200)
	runs, err := s.store.RecentRuns(r.Context(), limit)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": runs, "limit": limit})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(s.collector.ExportPrometheus()))
}

// instrument wraps a handler with request logging and metrics.
func (s *Server) instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next(sw, r)

		duration := time.Since(start)
		s.collector.Counter(metrics.MetricHTTPRequests).Inc()
		s.collector.Histogram(metrics.MetricHTTPLatency).Observe(duration.Seconds())
		s.log.Debug("%s %s -> %d (%v)", r.Method, r.URL.Path, sw.status, duration)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) err(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
