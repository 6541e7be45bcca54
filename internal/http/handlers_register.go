package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

type closeRegisterResponse struct {
	Register core.CashRegister  `json:"register"`
	Report   core.ClosingReport `json:"report"`
	Display  closingDisplay     `json:"display"`
}

type closingDisplay struct {
	ExpectedAmount string `json:"expectedAmount"`
	ClosingAmount  string `json:"closingAmount"`
	Difference     string `json:"difference"`
}

func (s *Server) handleAddCashMovement(w http.ResponseWriter, r *http.Request) {
	var req cashMovementRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.svc.AddCashMovement(r.Context(), req.toMovement())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleOpenRegister(w http.ResponseWriter, r *http.Request) {
	var req openRegisterRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	reg, err := s.svc.OpenCashRegister(r.Context(), req.StoreID, req.EmployeeID, amount(req.OpeningAmount))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (s *Server) handleCloseRegister(w http.ResponseWriter, r *http.Request) {
	var req closeRegisterRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	adjustments := make([]core.Expense, 0, len(req.Adjustments))
	for _, a := range req.Adjustments {
		adjustments = append(adjustments, a.toExpense())
	}

	reg, report, err := s.svc.CloseCashRegister(r.Context(), chi.URLParam(r, "id"), amount(req.ClosingAmount), adjustments...)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, closeRegisterResponse{
		Register: reg,
		Report:   report,
		Display: closingDisplay{
			ExpectedAmount: core.FormatCOP(report.ExpectedAmount),
			ClosingAmount:  core.FormatCOP(report.ClosingAmount),
			Difference:     core.FormatCOP(report.Difference),
		},
	})
}

func (s *Server) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	reg, err := s.svc.Register(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// handleListRegisters lists a store's sessions; ?status=open narrows to
// open ones.
func (s *Server) handleListRegisters(w http.ResponseWriter, r *http.Request) {
	regs := s.svc.Registers(chi.URLParam(r, "storeID"))
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := regs[:0]
		for _, reg := range regs {
			if string(reg.Status) == status {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	writeJSON(w, http.StatusOK, regs)
}

// handleListMovements returns the store's ledger in insertion order,
// optionally filtered by ?type= and ?reference=.
func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	q := r.URL.Query()

	var movements []core.CashMovement
	if ref := q.Get("reference"); ref != "" {
		movements = s.svc.MovementsByReference(storeID, ref)
	} else {
		movements = s.svc.Movements(storeID)
	}
	if typ := q.Get("type"); typ != "" {
		filtered := movements[:0]
		for _, m := range movements {
			if string(m.Type) == typ {
				filtered = append(filtered, m)
			}
		}
		movements = filtered
	}
	writeJSON(w, http.StatusOK, movements)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
