// Package http serves the JSON API of the ledger.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"spendwise/internal/analytics"
	"spendwise/internal/auth"
	"spendwise/internal/cache"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
)

type Config struct {
	Addr               string
	RateLimitPerMinute int
	AllowedOrigins     []string
	TrustedProxies     []string
	// ViewCacheTTL bounds how long a cached dashboard is served.
	ViewCacheTTL time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		RateLimitPerMinute: 60,
		ViewCacheTTL:       time.Minute,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        60 * time.Second,
	}
}

// Services are the use cases behind the routes.
type Services struct {
	Transactions  *services.TransactionService
	Planner       *services.PlannerService
	Budgets       *services.BudgetService
	Subscriptions *services.SubscriptionService
	Settings      *services.SettingsService
	Portfolio     *services.PortfolioService
	Reports       *services.ReportService
}

// NewServices builds every service over store.
func NewServices(store *services.Store, events services.EventPublisher, rates services.RateSource, opts ...services.Option) Services {
	txs := services.NewTransactionService(store, events, opts...)
	settings := services.NewSettingsService(store, opts...)
	return Services{
		Transactions:  txs,
		Planner:       services.NewPlannerService(store, txs, opts...),
		Budgets:       services.NewBudgetService(store, opts...),
		Subscriptions: services.NewSubscriptionService(store, txs, opts...),
		Settings:      settings,
		Portfolio:     services.NewPortfolioService(store, settings, rates, opts...),
		Reports:       services.NewReportService(store, opts...),
	}
}

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

type Deps struct {
	Services Services
	// Store backs live snapshots. Its backend must support watching.
	Store    *services.Store
	Verifier auth.Verifier
	Logger   *log.Logger
	Checks   map[string]ReadyCheck
}

type appMetrics struct {
	started     time.Time
	created     atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	liveConns   atomic.Int64
}

type Server struct {
	http.Server

	svc     Services
	store   *services.Store
	checks  map[string]ReadyCheck
	logger  *log.Logger
	origins []string

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	views  *cache.LRUCache[analytics.Dashboard]
	caches *cache.Manager

	metrics      appMetrics
	shutdownOnce sync.Once
}

func NewServer(cfg Config, deps Deps) *Server {
	def := DefaultConfig()
	if cfg.ViewCacheTTL <= 0 {
		cfg.ViewCacheTTL = def.ViewCacheTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadTimeout:       orDefault(cfg.ReadTimeout, def.ReadTimeout),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      orDefault(cfg.WriteTimeout, def.WriteTimeout),
			IdleTimeout:       orDefault(cfg.IdleTimeout, def.IdleTimeout),
		},
		svc:      deps.Services,
		store:    deps.Store,
		checks:   deps.Checks,
		logger:   logger,
		origins:  cfg.AllowedOrigins,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: security.NewDetector(logger.WithComponent(log.ComponentSecurity).Logger),
		views:    cache.NewLRUCache[analytics.Dashboard](500, cfg.ViewCacheTTL),
		caches:   cache.NewManager(logger.WithComponent(log.ComponentCache).Logger),
	}
	s.metrics.started = time.Now()
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger.Logger, s.detector.ClientIP)
	s.caches.Register(s.views)
	s.caches.StartCleanup(5 * time.Minute)

	verifier := deps.Verifier
	if verifier == nil {
		verifier = auth.Deny{}
	}

	headers := security.DefaultHeadersConfig()
	headers.AllowedOrigins = cfg.AllowedOrigins

	router := s.routes(verifier)
	s.Handler = chain(router,
		s.tracer.Middleware,
		s.detector.Middleware,
		security.NewHeadersMiddleware(headers).Middleware,
		log.Middleware(logger, trace.RequestID),
		s.limiter.Middleware(s.detector.ClientIP, ratelimit.Mutating, s.handleRateLimited),
	)
	return s
}

// chain wraps h so the first middleware runs first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (s *Server) routes(verifier auth.Verifier) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: "route not found", Code: "not_found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "method not allowed", Code: "method_not_allowed"})
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(
		auth.Middleware(verifier, s.logger.WithComponent(log.ComponentAuth).Logger),
		log.OwnerMiddleware(auth.OwnerFrom),
		s.invalidateOnWrite,
	)

	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/planned", s.handleListPlanned).Methods(http.MethodGet)
	api.HandleFunc("/planned", s.handleCreatePlanned).Methods(http.MethodPost)
	api.HandleFunc("/planned/{id}/complete", s.handleCompletePlanned).Methods(http.MethodPost)
	api.HandleFunc("/planned/{id}", s.handleDeletePlanned).Methods(http.MethodDelete)

	api.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	api.HandleFunc("/budgets", s.handleSetBudget).Methods(http.MethodPut)
	api.HandleFunc("/budgets/status", s.handleBudgetStatus).Methods(http.MethodGet)
	api.HandleFunc("/budgets/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)

	api.HandleFunc("/subscriptions", s.handleListSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/subscriptions", s.handleCreateSubscription).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions/upcoming", s.handleUpcomingSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/subscriptions/{id}/toggle", s.handleToggleSubscription).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions/{id}/pay", s.handlePaySubscription).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions/{id}", s.handleDeleteSubscription).Methods(http.MethodDelete)

	api.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets", s.handleCreateAsset).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}", s.handleUpdateAsset).Methods(http.MethodPut)
	api.HandleFunc("/assets/{id}", s.handleDeleteAsset).Methods(http.MethodDelete)
	api.HandleFunc("/portfolio", s.handlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/market/refresh", s.handleRefreshMarket).Methods(http.MethodPost)
	api.HandleFunc("/market/rates", s.handleSetMarketRates).Methods(http.MethodPut)

	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings/categories", s.handleAddCategory).Methods(http.MethodPost)
	api.HandleFunc("/settings/categories/{type}/{name}", s.handleRemoveCategory).Methods(http.MethodDelete)
	api.HandleFunc("/settings/cards", s.handleAddCard).Methods(http.MethodPost)
	api.HandleFunc("/settings/cards/{name}", s.handleRemoveCard).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/trend", s.handleTrend).Methods(http.MethodGet)
	api.HandleFunc("/insights", s.handleInsights).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/health-score", s.handleHealthScore).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.handleRangeReport).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)

	api.HandleFunc("/live/{collection}", s.handleLive).Methods(http.MethodGet)
	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r), log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, ErrorBody{Error: "rate limit exceeded, try again later", Code: "rate_limited"})
}

// invalidateOnWrite drops the cached views of the owner after every
// request that can change its data.
func (s *Server) invalidateOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if ratelimit.Mutating(r) {
			if owner := auth.OwnerFrom(r.Context()); owner != "" {
				s.views.DeletePrefix(viewKeyPrefix(owner))
			}
		}
	})
}

func viewKeyPrefix(owner string) string { return owner + ":" }

func viewKey(owner, month string) string { return viewKeyPrefix(owner) + month }

// Shutdown stops the background loops, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
