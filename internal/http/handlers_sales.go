package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAddSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sale, err := s.svc.AddSale(r.Context(), req.toSale())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	e, err := s.svc.AddExpense(r.Context(), req.toExpense())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleAddPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.svc.AddPurchase(r.Context(), req.toPurchase())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleAddLayaway(w http.ResponseWriter, r *http.Request) {
	var req layawayRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.svc.AddLayaway(r.Context(), req.toLayaway())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleGetLayaway(w http.ResponseWriter, r *http.Request) {
	l, err := s.svc.Layaway(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleUpdateLayaway(w http.ResponseWriter, r *http.Request) {
	var req layawayUpdateRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.svc.UpdateLayaway(r.Context(), chi.URLParam(r, "id"), req.DueDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleCancelLayaway(w http.ResponseWriter, r *http.Request) {
	l, err := s.svc.CancelLayaway(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleAddLayawayPayment(w http.ResponseWriter, r *http.Request) {
	var req layawayPaymentRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	l, err := s.svc.AddLayawayPayment(r.Context(), chi.URLParam(r, "id"), req.toPayment())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
