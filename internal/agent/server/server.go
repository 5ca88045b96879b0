// Package server is the agent's loopback HTTP API used by the browser
// integration and by local tooling.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dharmateja03/GoodTurkey/internal/agent/client"
	"github.com/dharmateja03/GoodTurkey/internal/agent/enforcer"
	"github.com/dharmateja03/GoodTurkey/internal/agent/store"
	"github.com/dharmateja03/GoodTurkey/internal/agent/syncer"
	"github.com/dharmateja03/GoodTurkey/internal/middleware"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// Enforcer decides navigations.
type Enforcer interface {
	Check(rawURL string) (enforcer.Result, error)
	RuleCount() int
	Stats() (store.Stats, error)
}

// Syncer runs an on-demand sync.
type Syncer interface {
	SyncNow(ctx context.Context) (*syncer.Result, error)
}

// SyncState reports when the rules were last refreshed.
type SyncState interface {
	LastSync() (time.Time, bool, error)
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	LastSync *time.Time  `json:"last_sync"`
	Stale    bool        `json:"stale"`
	Rules    int         `json:"rules"`
	Stats    store.Stats `json:"stats"`
}

type Server struct {
	enforcer   Enforcer
	syncer     Syncer
	state      SyncState
	clock      clock.Clock
	staleAfter time.Duration
	logger     *slog.Logger
}

func New(enf Enforcer, syn Syncer, state SyncState, clk clock.Clock, staleAfter time.Duration, logger *slog.Logger) *Server {
	return &Server{enforcer: enf, syncer: syn, state: state, clock: clk, staleAfter: staleAfter, logger: logger}
}

// Routes returns the local API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecureLogger(s.logger))
	r.Use(middleware.CORS(extensionCORS()))

	r.Get("/check", s.Check)
	r.Get("/status", s.Status)
	r.Post("/sync", s.Sync)
	return r
}

// extensionCORS admits only browser extension origins. Web pages cannot
// probe the agent.
func extensionCORS() *middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"chrome-extension://*", "moz-extension://*"}
	cfg.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowedHeaders = []string{"Content-Type"}
	return cfg
}

// Check handles GET /check?url=
func (s *Server) Check(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		pkghttp.WriteBadRequest(w, "url query parameter is required")
		return
	}

	res, err := s.enforcer.Check(raw)
	if err != nil {
		var verr *policy.ValidationError
		if errors.As(err, &verr) {
			pkghttp.WriteValidationError(w, verr.Error(), verr.Field)
			return
		}
		s.logger.Error("check failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "check failed")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, res)
}

// Status handles GET /status
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Stale: true, Rules: s.enforcer.RuleCount()}

	last, ok, err := s.state.LastSync()
	if err != nil {
		s.logger.Error("failed to read last sync", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "status unavailable")
		return
	}
	if ok {
		resp.LastSync = &last
		resp.Stale = s.clock.Now().Sub(last) > s.staleAfter
	}

	stats, err := s.enforcer.Stats()
	if err != nil {
		s.logger.Error("failed to read stats", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "status unavailable")
		return
	}
	resp.Stats = stats

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Sync handles POST /sync
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := s.syncer.SyncNow(r.Context())
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			pkghttp.WriteError(w, http.StatusBadGateway, "upstream_unauthorized", "server rejected the agent token, cached rules kept")
			return
		}
		s.logger.Warn("on-demand sync failed", slog.Any("error", err))
		pkghttp.WriteError(w, http.StatusBadGateway, "upstream_unavailable", "sync failed, cached rules kept")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, res)
}
