package http

import (
	"net/http"
	"sort"

	"spendwise/internal/analytics"
	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

// handleListTransactions lists the owner's transactions, newest first,
// optionally limited to one month.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if month != "" {
		txs = analytics.FilterByMonth(txs, month)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].DateKey() > txs[j].DateKey() })
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeError(w, r, err)
		return
	}
	tx.Title = sanitizeInput(tx.Title)
	tx.Category = sanitizeInput(tx.Category)
	tx.CardName = sanitizeInput(tx.CardName)
	// Payments are recorded through the subscription routes only.
	tx.SubscriptionID = ""

	saved, err := s.svc.Transactions.Create(r.Context(), auth.OwnerFrom(r.Context()), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.metrics.created.Add(1)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.NewFields().
			WithTransaction(saved.ID, string(saved.Type), saved.Amount.Cents, saved.Category).
			WithOperation(log.OpCreate).
			ToSlice()...)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+saved.ID).
		Body(saved).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), auth.OwnerFrom(r.Context()), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
