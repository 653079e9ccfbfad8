package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

// HistoryReader lists past snapshot saves. Only the SQLite backend keeps one.
type HistoryReader interface {
	History(ctx context.Context, key string, limit int) ([]storage.SaveRecord, error)
}

// Deps are the collaborators the API serves. Store and Ingestor are
// required; everything else is optional and reported as unavailable when nil.
type Deps struct {
	Store     *store.Store
	Ingestor  *services.Ingestor
	Inbox     *services.Inbox
	Persister *services.Persister
	Exporter  *services.LedgerExporter
	History   HistoryReader
	Pinger    backend.Pinger
	Logger    *log.Logger

	StateKey           string
	RateLimitPerMinute int

	// Now supplies the request time. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	store     *store.Store
	ingestor  *services.Ingestor
	inbox     *services.Inbox
	persister *services.Persister
	exporter  *services.LedgerExporter
	history   HistoryReader
	pinger    backend.Pinger
	stateKey  string
	now       func() time.Time
	newID     func() string

	rateLimiter   *rateLimiter
	metrics       *securityMetrics
	overviewCache *cache.LRU[core.MonthOverview]
	caches        *cache.Manager
	started       time.Time

	// writeMu serializes check-then-dispatch sequences of mutating handlers.
	writeMu      sync.Mutex
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if deps.StateKey == "" {
		deps.StateKey = services.DefaultPersisterConfig().Key
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           log.Middleware(deps.Logger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:         deps.Store,
		ingestor:      deps.Ingestor,
		inbox:         deps.Inbox,
		persister:     deps.Persister,
		exporter:      deps.Exporter,
		history:       deps.History,
		pinger:        deps.Pinger,
		stateKey:      deps.StateKey,
		now:           deps.Now,
		newID:         uuid.NewString,
		rateLimiter:   newRateLimiter(deps.RateLimitPerMinute),
		metrics:       &securityMetrics{},
		overviewCache: cache.NewLRU[core.MonthOverview](100, 5*time.Minute),
		caches:        cache.NewManager(),
		started:       deps.Now(),
	}

	s.caches.Register(s.overviewCache)
	s.caches.Start(context.Background(), 10*time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	routes := map[string]http.HandlerFunc{
		"GET /api/accounts":                   s.handleListAccounts,
		"POST /api/accounts":                  s.handleCreateAccount,
		"GET /api/accounts/{id}":              s.handleGetAccount,
		"PUT /api/accounts/{id}":              s.handleUpdateAccount,
		"DELETE /api/accounts/{id}":           s.handleDeleteAccount,
		"GET /api/accounts/{id}/transactions": s.handleAccountTransactions,

		"GET /api/card-groups":         s.handleListCardGroups,
		"POST /api/card-groups":        s.handleCreateCardGroup,
		"PUT /api/card-groups/{id}":    s.handleUpdateCardGroup,
		"DELETE /api/card-groups/{id}": s.handleDeleteCardGroup,

		"GET /api/transactions":         s.handleListTransactions,
		"POST /api/transactions":        s.handleCreateTransaction,
		"GET /api/transactions/{id}":    s.handleGetTransaction,
		"PUT /api/transactions/{id}":    s.handleUpdateTransaction,
		"DELETE /api/transactions/{id}": s.handleDeleteTransaction,

		"GET /api/pending":               s.handleListPending,
		"POST /api/pending/{id}/confirm": s.handleConfirmPending,
		"DELETE /api/pending/{id}":       s.handleDiscardPending,

		"GET /api/budgets":         s.handleListBudgets,
		"POST /api/budgets":        s.handleCreateBudget,
		"GET /api/budgets/{id}":    s.handleGetBudget,
		"PUT /api/budgets/{id}":    s.handleUpdateBudget,
		"DELETE /api/budgets/{id}": s.handleDeleteBudget,

		"GET /api/categories":         s.handleListCategories,
		"GET /api/categories/{id}":    s.handleResolveCategory,
		"POST /api/categories":        s.handleCreateCategory,
		"PUT /api/categories/{id}":    s.handleUpdateCategory,
		"DELETE /api/categories/{id}": s.handleDeleteCategory,

		"GET /api/cards":                    s.handleCards,
		"GET /api/balances":                 s.handleBalances,
		"GET /api/analytics/month":          s.handleMonthOverview,
		"GET /api/analytics/top-categories": s.handleTopCategories,
		"GET /api/analytics/spending":       s.handleSpending,

		"POST /api/sms":               s.handleIngestSMS,
		"POST /api/statements/parse":  s.handleParseStatement,
		"POST /api/statements/import": s.handleImportStatement,

		"GET /api/notifications":  s.handleNotifications,
		"GET /api/system/stats":   s.handleStats,
		"GET /api/system/history": s.handleHistory,
		"GET /api/system/export":  s.handleExport,
	}
	for pattern, h := range routes {
		mux.HandleFunc(pattern, s.withSecurityHeaders(h))
	}

	return s
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds request ids, rate limiting of writes, security
// headers and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		reqLogger := log.FromContext(r.Context()).With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		httpLog := log.NewStructuredLogger(reqLogger)
		httpLog.LogHTTPStart(ctx, r, clientIP)

		if reason := suspiciousReason(r, s.metrics); reason != "" {
			reqLogger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path, "reason", reason)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports 503 until the blob store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"store": "ok"}

	if s.pinger == nil {
		checks["blob_store"] = "not_checked"
	} else if err := s.pinger.Ping(ctx); err != nil {
		checks["blob_store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["blob_store"] = "ok"
	}

	if s.persister != nil {
		if s.persister.IsRunning() {
			checks["persister"] = "ok"
		} else {
			checks["persister"] = "stopped"
		}
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// overviewKey ties cached overviews to the store revision, so any dispatch
// makes older entries unreachable.
func overviewKey(rev uint64, year, month int) string {
	return strconv.FormatUint(rev, 10) + ":" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) logInfo(ctx context.Context, msg string, args ...any) {
	log.FromContext(ctx).InfoContext(ctx, msg, args...)
}

// structured returns the request-scoped structured logger.
func (s *Server) structured(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx))
}
