package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/analytics"
	"finanzas/internal/core"
	"finanzas/internal/export"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

var errSheetsDisabled = errors.New("Google Sheets export is not configured")

// handleDashboard serves the headline view for a period. Filters narrow the
// period's transactions; the available balance and trends always use the
// full history.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := ParsePeriod(q)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	criteria, err := ParseCriteria(q)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}

	view, err := s.deps.Dashboard.Dashboard(r.Context(), userFrom(r.Context()), s.deps.Now(), services.DashboardQuery{
		Period:   period,
		Criteria: criteria,
		Mode:     ParseMode(q),
	})
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonthYear(chi.URLParam(r, "month"))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	report, err := s.deps.Dashboard.Report(r.Context(), userFrom(r.Context()), month)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// exportSet applies the list filters and, when a period is named, its range.
func (s *Server) exportSet(ctx context.Context, r *http.Request) ([]core.Transaction, error) {
	q := r.URL.Query()
	criteria, err := ParseCriteria(q)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Get("period")) != "" {
		sel, err := ParsePeriod(q)
		if err != nil {
			return nil, err
		}
		criteria = criteria.WithRange(analytics.ResolvePeriod(s.deps.Now(), sel))
	}
	txs, err := s.deps.Dashboard.Transactions(ctx, userFrom(ctx), criteria)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, export.ErrNothingToExport
	}
	return txs, nil
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := s.exportSet(r.Context(), r)
	if err != nil {
		fail(w, r, applog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txs); err != nil {
		fail(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(s.deps.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		writeError(w, http.StatusServiceUnavailable, errSheetsDisabled.Error())
		return
	}
	txs, err := s.exportSet(r.Context(), r)
	if err != nil {
		fail(w, r, applog.OpExport, err)
		return
	}
	sheet, err := s.deps.Sheets.Export(r.Context(), txs, s.deps.Now())
	if err != nil {
		fail(w, r, applog.OpExport, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sheet": sheet, "rows": len(txs)})
}
