package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"backoffice/internal/adapters/http/middleware"
	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/adapters/metrics"
	auditStore "backoffice/internal/adapters/storage/audit"
	operatorStore "backoffice/internal/adapters/storage/operator"
	sessionStore "backoffice/internal/adapters/storage/session"
	"backoffice/internal/application/workspace"
	"backoffice/internal/domain/session"
)

// Stores holds all storage dependencies.
type Stores struct {
	OperatorStore operatorStore.Store
	SessionStore  sessionStore.Store
	AuditStore    auditStore.Store
}

// Config carries the web layer settings.
type Config struct {
	CSRFKey []byte
	// Secure marks cookies Secure and enforces the CSRF origin check over TLS.
	Secure         bool
	TrustedOrigins []string
	SessionTTL     time.Duration
	// RateLimit is sustained requests per second per client IP.
	RateLimit   float64
	RateBurst   int
	SlowRequest time.Duration
}

// Server serves the console.
type Server struct {
	stores     Stores
	client     *marketplace.Client
	workspaces *workspace.Registry
	cfg        Config
	logger     *zap.Logger
	limiter    *middleware.RateLimiter
	pages      *pageSet
	now        func() time.Time
}

// NewServer wires HTTP handlers for the console.
// PRE: stores are non-nil; cfg.CSRFKey is 32 bytes
func NewServer(stores Stores, client *marketplace.Client, workspaces *workspace.Registry, cfg Config, logger *zap.Logger) (*Server, error) {
	if len(cfg.CSRFKey) != 32 {
		return nil, errors.New("csrf key must be 32 bytes")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		stores:     stores,
		client:     client,
		workspaces: workspaces,
		cfg:        cfg,
		logger:     logger,
		limiter:    middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger),
		pages:      pages,
		now:        time.Now,
	}, nil
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Apply middleware: Timing -> Metrics -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(s.cfg.CSRFKey, s.cfg.Secure, s.cfg.TrustedOrigins),
		middleware.Auth(s.stores.SessionStore, s.logger),
		middleware.RateLimit(s.limiter),
		metrics.InstrumentHandler,
		middleware.Timing(s.logger, s.cfg.SlowRequest),
	)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	auth := middleware.RequireAuth
	admin := middleware.RequireRole(session.RoleAdmin)
	h := func(f http.HandlerFunc) http.Handler { return f }

	mux.Handle("GET /healthz", h(s.handleHealthz))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("GET /login", h(s.handleLoginPage))
	mux.Handle("POST /login", h(s.handleLogin))
	mux.Handle("POST /logout", auth(h(s.handleLogout)))

	mux.Handle("GET /{$}", auth(h(s.handleDashboard)))
	mux.Handle("GET /admin/audit", admin(h(s.handleAdminAuditTrail)))
	mux.Handle("GET /api/search/{entity}", auth(h(s.handleSearch)))

	mux.Handle("GET /{entity}", auth(h(s.handleList)))
	mux.Handle("POST /{entity}/sort", auth(h(s.handleSort)))
	mux.Handle("POST /{entity}/select", auth(h(s.handleSelect)))
	mux.Handle("POST /{entity}/select-all", auth(h(s.handleSelectAll)))
	mux.Handle("GET /{entity}/{id}", auth(h(s.handleDetail)))
	mux.Handle("POST /{entity}/{id}", auth(h(s.handleDetailPost)))
	mux.Handle("POST /coupon/{id}/thumbnail", auth(h(s.handleCouponThumbnail)))
}

// SweepVisitors forgets idle rate limiter clients.
func (s *Server) SweepVisitors() int {
	return s.limiter.Sweep()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CSRFKey decodes the configured CSRF secret (64 hex characters).
// In production the key MUST be set. In development, a random key is generated per startup.
func CSRFKey(keyHex string, production bool, logger *zap.Logger) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("csrf key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("csrf key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	if logger != nil {
		logger.Warn("using random CSRF key; forms will not survive a restart")
	}
	return key, nil
}
