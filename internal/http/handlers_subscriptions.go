package http

import (
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.Subscriptions.List(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleUpcomingSubscriptions(w http.ResponseWriter, r *http.Request) {
	upcoming, err := s.svc.Subscriptions.Upcoming(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upcoming)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub core.Subscription
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, r, err)
		return
	}
	sub.Name = sanitizeInput(sub.Name)
	sub.Color = sanitizeInput(sub.Color)

	saved, err := s.svc.Subscriptions.Create(r.Context(), auth.OwnerFrom(r.Context()), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Subscriptions.Toggle(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handlePaySubscription records this month's payment.
func (s *Server) handlePaySubscription(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Subscriptions.Pay(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.metrics.created.Add(1)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Subscriptions.Delete(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
