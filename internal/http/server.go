package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finanzas/internal/core"
	"finanzas/internal/extract"
	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/services"
)

// UserHeader carries the opaque id of the user a request acts for.
const UserHeader = "X-User-ID"

// SheetExporter appends a transaction set to a spreadsheet and returns the
// sheet written to.
type SheetExporter interface {
	Export(ctx context.Context, txs []core.Transaction, now time.Time) (string, error)
}

// Deps are the collaborators behind the API. Extractor, Sheets and Seeder
// are optional; the endpoints that need them answer 503 when they are nil.
type Deps struct {
	Transactions *services.TransactionService
	Transfers    *services.TransferCoordinator
	Installments *services.InstallmentService
	Budgets      *services.BudgetService
	Categories   *services.CategoryService
	Goals        *services.GoalService
	Dashboard    *services.DashboardService
	Seeder       *services.Seeder
	Extractor    extract.Extractor
	Sheets       SheetExporter

	DefaultUserID  string
	RequestTimeout time.Duration
	// WritesPerMinute caps state-changing requests per user.
	WritesPerMinute int
	Logger          *applog.Logger
	Now             func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	limiter *ratelimit.Limiter
	access  *applog.StructuredLogger

	shutdownOnce sync.Once
}

type ctxKey int

const userKey ctxKey = iota

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 10 * time.Second
	}

	s := &Server{
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.WritesPerMinute}),
		access:  applog.NewStructuredLogger(deps.Logger),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(applog.Middleware(s.deps.Logger, requestID, s.userID))
	r.Use(s.observe)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withUser)
		r.Use(s.limiter.Middleware(s.userID, func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}))
		r.Use(middleware.Timeout(s.deps.RequestTimeout))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/reports/{month}", s.handleReport)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Post("/draft", s.handleCreateFromDraft)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Post("/extract", s.handleExtract)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
			r.Post("/{id}/transfer", s.handleTransfer)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Put("/", s.handleSaveBudget)
			r.Get("/status", s.handleBudgetStatus)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/installments", func(r chi.Router) {
			r.Get("/", s.handleListInstallments)
			r.Post("/", s.handleCreateInstallment)
			r.Get("/commitment", s.handleCommitment)
			r.Put("/{id}", s.handleUpdateInstallment)
			r.Delete("/{id}", s.handleDeleteInstallment)
			r.Post("/{id}/payments", s.handleRecordPayment)
		})

		r.Get("/export/csv", s.handleExportCSV)
		r.Post("/export/sheets", s.handleExportSheets)
	})

	return r
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// userID is the X-User-ID header or, without one, the configured default.
func (s *Server) userID(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get(UserHeader)); id != "" {
		return id
	}
	return s.deps.DefaultUserID
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

// withUser stores the caller in the context and seeds the default
// categories and goals on their first request.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.userID(r)
		if user == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader)
			return
		}
		if s.deps.Seeder != nil {
			if err := s.deps.Seeder.Ensure(r.Context(), user); err != nil {
				fail(w, r, "seed", err)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// observe records the request in the access log and the HTTP metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.access.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), r.RemoteAddr)
	})
}

func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return generateRequestID()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
