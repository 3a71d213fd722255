// File: internal/infra/web/server.go
package web

import (
	"encoding/json"
	"net/http"

	"afk-code-redeemer/internal/infra/metrics"
	"afk-code-redeemer/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server exposes the operator/admin API: login, per-account ledger inspection
// and the maintenance resets. Everything except login and health sits behind
// the JWT session.
type Server struct {
	ledger usecase.LedgerUseCase
	auth   *AuthManager
	apiKey string
	log    *zerolog.Logger
}

func NewServer(ledger usecase.LedgerUseCase, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{
		ledger: ledger,
		auth:   auth,
		apiKey: apiKey,
		log:    logger,
	}
}

// Router builds the chi router with all admin routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Post("/api/v1/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/v1/stats", s.handleStats)
		r.Route("/api/v1/accounts/{accountID}/ledger", func(r chi.Router) {
			r.Get("/", s.handleGetLedger)
			r.Delete("/", s.handleClearAccount)
			r.Delete("/failed", s.handleClearFailed)
		})
	})

	return r
}

// handleLogin exchanges the configured API key for a short-lived JWT session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if body.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("minting session token failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	sets, err := s.ledger.Sets(r.Context(), accountID)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("reading ledger failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"used":       emptyIfNil(sets.Used),
		"failed":     emptyIfNil(sets.Failed),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("reading ledger stats failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"accounts": stats.Accounts,
		"used":     stats.Used,
		"failed":   stats.Failed,
	})
}

func (s *Server) handleClearFailed(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := s.ledger.ClearFailed(r.Context(), accountID); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("clearing failed set failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := s.ledger.ClearAccount(r.Context(), accountID); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("clearing account failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
