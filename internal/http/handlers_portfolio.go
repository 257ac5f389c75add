package http

import (
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

// refreshFailure carries the rates still in use after a failed refresh.
type refreshFailure struct {
	ErrorBody
	MarketRates core.MarketRates `json:"marketRates"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.svc.Portfolio.List(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var a core.Asset
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.Name = sanitizeInput(a.Name)
	saved, err := s.svc.Portfolio.Create(r.Context(), auth.OwnerFrom(r.Context()), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var a core.Asset
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.Name = sanitizeInput(a.Name)
	saved, err := s.svc.Portfolio.Update(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id"), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Portfolio.Delete(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Portfolio.Portfolio(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSetMarketRates stores rates entered by hand.
func (s *Server) handleSetMarketRates(w http.ResponseWriter, r *http.Request) {
	var in core.MarketRates
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := s.svc.Portfolio.SetRates(r.Context(), auth.OwnerFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// handleRefreshMarket fetches new rates, recently cached ones unless
// force=true. When the sources fail the stale rates are returned with the
// error.
func (s *Server) handleRefreshMarket(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "force")
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	rates, err := s.svc.Portfolio.RefreshRates(r.Context(), owner, force)
	if err == nil {
		writeJSON(w, http.StatusOK, rates)
		return
	}
	status, code := errorKind(err)
	if status == http.StatusInternalServerError {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Market refresh failed",
		log.FieldOperation, log.OpRefresh,
		log.FieldError, err)
	writeJSON(w, status, refreshFailure{
		ErrorBody:   ErrorBody{Error: err.Error(), Code: code},
		MarketRates: rates,
	})
}
