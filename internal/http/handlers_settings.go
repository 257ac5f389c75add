package http

import (
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

type categoryRequest struct {
	Type core.TransactionType `json:"type"`
	Name string               `json:"name"`
}

type cardRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.Get(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in core.UserSettings
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.Settings.Update(r.Context(), auth.OwnerFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.Settings.AddCategory(r.Context(), auth.OwnerFrom(r.Context()), req.Type, sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	kind := core.TransactionType(pathVar(r, "type"))
	st, err := s.svc.Settings.RemoveCategory(r.Context(), auth.OwnerFrom(r.Context()), kind, pathVar(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.Settings.AddCard(r.Context(), auth.OwnerFrom(r.Context()), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleRemoveCard(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.RemoveCard(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
