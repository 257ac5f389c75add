package http

import (
	"bytes"
	"net/http"
	"strconv"

	"spendwise/internal/analytics"
	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/export"
	"spendwise/internal/log"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 24
)

// handleDashboard serves the month view, cached per owner and month
// until the owner writes again.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r, s.svc.Reports.CurrentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	key := viewKey(owner, month)
	if d, ok := s.views.Get(key); ok {
		s.metrics.cacheHits.Add(1)
		writeJSON(w, http.StatusOK, d)
		return
	}
	s.metrics.cacheMisses.Add(1)

	d, err := s.svc.Reports.Dashboard(r.Context(), owner, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.views.Set(key, d)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	thisYear, _, _ := core.ParseMonthKey(s.svc.Reports.CurrentMonth())
	year, err := intParam(r, "year", thisYear, 1970, 9999)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := intParam(r, "months", defaultTrendMonths, 1, maxTrendMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	buckets, err := s.svc.Reports.Trend(r.Context(), auth.OwnerFrom(r.Context()), year, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.svc.Reports.Insights(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Reports.Report(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.svc.Reports.Health(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleRangeReport(w http.ResponseWriter, r *http.Request) {
	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	report, err := s.svc.Reports.Range(r.Context(), auth.OwnerFrom(r.Context()), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExport downloads a month of transactions as CSV. The file is
// rendered before anything is written so failures still get a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r, s.svc.Reports.CurrentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Reports.Export(r.Context(), &buf, auth.OwnerFrom(r.Context()), month); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transactions exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonth, month,
		"bytes", buf.Len())

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", `attachment; filename="`+export.FileName(month)+`"`)
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
