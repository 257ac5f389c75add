package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady runs every registered check with a shared timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.checks)+1)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	if s.store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tr := s.tracer.GetMetrics()
	sec := s.detector.GetMetrics()
	rl := s.limiter.GetMetrics()

	metrics := []struct {
		name, kind, help string
		value            float64
	}{
		{"http_requests_total", "counter", "Total HTTP requests", float64(tr.TotalRequests)},
		{"http_server_errors_total", "counter", "HTTP responses with a 5xx status", float64(tr.ServerErrors)},
		{"http_response_time_avg_microseconds", "gauge", "Average response time", float64(tr.AverageResponseTime)},
		{"transactions_created_total", "counter", "Transactions created through the API", float64(s.metrics.created.Load())},
		{"view_cache_hits_total", "counter", "Dashboard cache hits", float64(s.metrics.cacheHits.Load())},
		{"view_cache_misses_total", "counter", "Dashboard cache misses", float64(s.metrics.cacheMisses.Load())},
		{"view_cache_entries", "gauge", "Cached dashboards", float64(s.views.Size())},
		{"live_connections", "gauge", "Open live snapshot connections", float64(s.metrics.liveConns.Load())},
		{"rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", float64(rl.TotalHits)},
		{"rate_limit_clients", "gauge", "Clients tracked by the rate limiter", float64(rl.ClientCount)},
		{"suspicious_requests_total", "counter", "Requests flagged as probes", float64(sec.SuspiciousRequests)},
		{"blocked_requests_total", "counter", "Requests rejected by method", float64(sec.BlockedRequests)},
		{"uptime_seconds", "gauge", "Process uptime", time.Since(s.metrics.started).Seconds()},
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].name < metrics[j].name })

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %g\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
