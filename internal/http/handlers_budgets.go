package http

import (
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

type budgetRequest struct {
	Category string     `json:"category"`
	Limit    core.Money `json:"limit"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.Budgets.List(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

// handleSetBudget upserts the budget of a category.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Set(r.Context(), auth.OwnerFrom(r.Context()), sanitizeInput(req.Category), req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budgets.Delete(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r, s.svc.Reports.CurrentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.svc.Budgets.Status(r.Context(), auth.OwnerFrom(r.Context()), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
