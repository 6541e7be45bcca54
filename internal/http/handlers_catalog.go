package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.svc.AddProduct(r.Context(), req.toProduct(""))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.svc.UpdateProduct(r.Context(), req.toProduct(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Products(chi.URLParam(r, "storeID")))
}

func (s *Server) handleAddCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.svc.AddCustomer(r.Context(), req.toCustomer(""))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.svc.UpdateCustomer(r.Context(), req.toCustomer(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ExpenseCategories())
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.svc.AddExpenseCategory(r.Context(), sanitizeInput(req.Name)); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.svc.ExpenseCategories())
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if err := s.svc.DeleteExpenseCategory(r.Context(), name); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.PaymentMethods())
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.svc.AddPaymentMethod(r.Context(), req.toPaymentMethod(""))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.svc.UpdatePaymentMethod(r.Context(), req.toPaymentMethod(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePaymentMethod(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
