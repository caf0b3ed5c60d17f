package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

type paymentRequest struct {
	Amount core.Money `json:"amount"`
	Date   core.Date  `json:"date"`
	// CreateTransaction defaults to true when omitted.
	CreateTransaction *bool `json:"createTransaction"`
}

type paymentResponse struct {
	services.PaymentResult
	Installment installmentView `json:"installment"`
	LinkError   string          `json:"linkError,omitempty"`
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Installments.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, installmentViews(list))
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	var in core.Installment
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	list, err := s.deps.Installments.Create(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, installmentViews(list))
}

func (s *Server) handleUpdateInstallment(w http.ResponseWriter, r *http.Request) {
	var in core.Installment
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	in.ID = chi.URLParam(r, "id")
	list, err := s.deps.Installments.Update(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, installmentViews(list))
}

func (s *Server) handleDeleteInstallment(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Installments.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, installmentViews(list))
}

// handleRecordPayment stores a payment. A failure to create or link the
// expense transaction does not fail the request; it is reported in linkError.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpPayment, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = core.DateOf(s.deps.Now())
	}
	createTx := req.CreateTransaction == nil || *req.CreateTransaction

	res, err := s.deps.Installments.RecordPayment(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"), req.Amount, req.Date, createTx)
	if err != nil {
		fail(w, r, applog.OpPayment, err)
		return
	}
	resp := paymentResponse{PaymentResult: res, Installment: newInstallmentView(res.Installment)}
	if res.LinkErr != nil {
		resp.LinkError = "payment saved, but its expense transaction could not be recorded"
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCommitment(w http.ResponseWriter, r *http.Request) {
	total, err := s.deps.Installments.MonthlyCommitment(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.Money{"monthlyCommitment": total})
}
