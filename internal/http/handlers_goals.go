package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

type transferRequest struct {
	Amount core.Money `json:"amount"`
}

type transferResponse struct {
	services.TransferResult
	Goal    goalView `json:"goal"`
	Warning string   `json:"warning,omitempty"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Goals.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, goalViews(list))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.SavingsGoal
	if err := decodeJSON(w, r, &g); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	list, err := s.deps.Goals.Create(r.Context(), userFrom(r.Context()), g)
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, goalViews(list))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.SavingsGoal
	if err := decodeJSON(w, r, &g); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	g.ID = chi.URLParam(r, "id")
	list, err := s.deps.Goals.Update(r.Context(), userFrom(r.Context()), g)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, goalViews(list))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Goals.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, goalViews(list))
}

// handleTransfer moves money into a goal. The amount may not exceed the
// all-time available balance. A transfer whose goal write failed is stored
// as provisional and answered with 202.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)

	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, applog.OpTransfer, err)
		return
	}
	if err := req.Amount.Validate(); err != nil {
		fail(w, r, applog.OpTransfer, err)
		return
	}

	balance, err := s.deps.Dashboard.AvailableBalance(ctx, user)
	if err != nil {
		fail(w, r, applog.OpTransfer, err)
		return
	}
	if req.Amount.Cents > balance.Cents {
		fail(w, r, applog.OpTransfer, fmt.Errorf("%w: available %s", core.ErrInsufficientBalance, balance))
		return
	}

	res, err := s.deps.Transfers.Transfer(ctx, user, chi.URLParam(r, "id"), req.Amount, s.deps.Now())
	switch {
	case errors.Is(err, services.ErrTransferIncomplete):
		writeJSON(w, http.StatusAccepted, transferResponse{TransferResult: res, Goal: newGoalView(res.Goal), Warning: err.Error()})
	case err != nil:
		fail(w, r, applog.OpTransfer, err)
	default:
		writeJSON(w, http.StatusCreated, transferResponse{TransferResult: res, Goal: newGoalView(res.Goal)})
	}
}
