package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	"finanzas/internal/extract"
	applog "finanzas/internal/log"
)

const maxUploadBody = 10 << 20

var errExtractionDisabled = errors.New("receipt and voice extraction is not configured")

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	txs, err := s.deps.Dashboard.Transactions(r.Context(), userFrom(r.Context()), criteria)
	if err != nil {
		fail(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	list, err := s.deps.Transactions.Create(r.Context(), userFrom(r.Context()), tx)
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	tx.ID = chi.URLParam(r, "id")
	list, err := s.deps.Transactions.Update(r.Context(), userFrom(r.Context()), tx)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Transactions.Delete(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleExtract reads a receipt photo or voice note from the raw body and
// returns a draft for the user to confirm. Nothing is stored.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.deps.Extractor == nil {
		writeError(w, http.StatusServiceUnavailable, errExtractionDisabled.Error())
		return
	}
	kind, err := extract.ParseKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if err != nil {
		fail(w, r, applog.OpExtract, err)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	ctx := r.Context()
	draft, err := s.deps.Extractor.Extract(ctx, kind, payload, r.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, extract.ErrEmptyPayload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		applog.FromContext(ctx).WithComponent(applog.ComponentExtract).ErrorContext(ctx, "Extraction failed",
			"kind", kind, applog.FieldError, err)
		writeError(w, http.StatusBadGateway, "could not read the upload, enter the transaction manually")
		return
	}

	if cats, err := s.deps.Categories.List(ctx, userFrom(ctx)); err == nil {
		draft = draft.MatchCategory(cats)
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleCreateFromDraft stores a confirmed draft.
func (s *Server) handleCreateFromDraft(w http.ResponseWriter, r *http.Request) {
	var d extract.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	list, err := s.deps.Transactions.CreateFromDraft(r.Context(), userFrom(r.Context()), d)
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}
