package http

import (
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/schedule"
	"spendwise/internal/services"
)

// seriesRequest is a planned draft plus how often it repeats.
type seriesRequest struct {
	core.PlannedTransaction
	Recurrence schedule.Recurrence `json:"recurrence"`
	Count      int                 `json:"count"`
}

// seriesResponse lists the stored entries of a series. Error is set when
// only part of the series could be stored.
type seriesResponse struct {
	Items []core.PlannedTransaction `json:"items"`
	Error string                    `json:"error,omitempty"`
}

func (s *Server) handleListPlanned(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Planner.List(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleCreatePlanned stores a series. A partially stored series is
// answered with 207 and the entries that made it.
func (s *Server) handleCreatePlanned(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Title = sanitizeInput(req.Title)
	req.Category = sanitizeInput(req.Category)
	req.CardName = sanitizeInput(req.CardName)

	items, err := s.svc.Planner.CreateSeries(r.Context(), auth.OwnerFrom(r.Context()), services.SeriesRequest{
		Draft:      req.PlannedTransaction,
		Recurrence: req.Recurrence,
		Count:      req.Count,
	})
	switch {
	case err != nil && len(items) > 0:
		writeJSON(w, http.StatusMultiStatus, seriesResponse{Items: items, Error: err.Error()})
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, seriesResponse{Items: items})
	}
}

func (s *Server) handleCompletePlanned(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Planner.Complete(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.metrics.created.Add(1)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeletePlanned(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Planner.Delete(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
