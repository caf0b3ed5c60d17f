package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Categories.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(w, r, &c); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	list, err := s.deps.Categories.Create(r.Context(), userFrom(r.Context()), c)
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Categories.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonth(r.URL.Query(), "month", s.deps.Now())
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	list, err := s.deps.Budgets.ForMonth(r.Context(), userFrom(r.Context()), month)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleSaveBudget creates the budget for a category and month or replaces
// the amount of the existing one.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	if b.MonthYear == "" {
		b.MonthYear = core.MonthYearOf(s.deps.Now())
	}
	list, err := s.deps.Budgets.Save(r.Context(), userFrom(r.Context()), b)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Budgets.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonth(r.URL.Query(), "month", s.deps.Now())
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	status, err := s.deps.Budgets.Status(r.Context(), userFrom(r.Context()), month)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
