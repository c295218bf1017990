// Package server exposes the linter over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/contractlint"
	"github.com/leapstack-labs/contractlint/internal/cache"
	"github.com/leapstack-labs/contractlint/pkg/check"
	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// MaxCodeSize is the largest contract source the service accepts.
const MaxCodeSize = 1 << 20

// DefaultPort is the port Serve listens on when none is configured.
const DefaultPort = 8787

// Config holds the server dependencies.
type Config struct {
	Port   int
	Linter *contractlint.Linter
	// Store and ConfigHash enable the persistent report cache.
	Store      *cache.Store
	ConfigHash string
	Logger     *slog.Logger
}

// Server is the HTTP lint service.
type Server struct {
	port       int
	linter     *contractlint.Linter
	store      *cache.Store
	configHash string
	logger     *slog.Logger
	router     chi.Router
}

// LintRequest is the body of POST /v1/lint.
type LintRequest struct {
	Code string `json:"code"`
}

// RulesResponse is the body of GET /v1/rules.
type RulesResponse struct {
	Rules []lint.RuleInfo `json:"rules"`
	Count int             `json:"count"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type requestIDKey struct{}

// New creates a server. A nil linter selects the default configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Linter == nil {
		l, err := contractlint.New(contractlint.WithLogger(cfg.Logger))
		if err != nil {
			return nil, err
		}
		cfg.Linter = l
	}

	s := &Server{
		port:       cfg.Port,
		linter:     cfg.Linter,
		store:      cfg.Store,
		configHash: cfg.ConfigHash,
		logger:     cfg.Logger,
	}

	r := chi.NewMux()
	r.Use(
		s.requestID,
		middleware.Recoverer,
	)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/lint", s.handleLint)
		r.Get("/rules", s.handleRules)
		r.Get("/rules/{code}", s.handleRule)
	})
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured port and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting lint server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down lint server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := requestIDFrom(ctx)

	// room for the JSON envelope and escaping around the code itself
	r.Body = http.MaxBytesReader(w, r.Body, 2*MaxCodeSize)
	var req LintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Code) > MaxCodeSize {
		s.writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("code exceeds %d bytes", MaxCodeSize))
		return
	}

	start := time.Now()
	report, cached := s.lint(ctx, req.Code)
	s.logger.Info("lint request",
		"request_id", reqID,
		"bytes", len(req.Code),
		"diagnostics", len(report.Diagnostics),
		"pass", report.Pass,
		"cached", cached,
		"duration", time.Since(start))

	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	body, err := report.JSON()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to encode report")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// lint serves from the report cache when one is configured. Cache failures
// are logged and never fail the request.
func (s *Server) lint(ctx context.Context, code string) (lint.Report, bool) {
	if s.store == nil {
		return s.linter.Lint(code), false
	}
	hash := check.Hash(code)
	report, ok, err := s.store.Get(ctx, hash, s.configHash)
	if err != nil {
		s.logger.Warn("report cache lookup failed", "error", err)
	}
	if ok {
		return report, true
	}
	report = s.linter.Lint(code)
	if err := s.store.Put(ctx, hash, s.configHash, report); err != nil {
		s.logger.Warn("report cache store failed", "error", err)
	}
	return report, false
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	resp := RulesResponse{Rules: make([]lint.RuleInfo, 0)}
	for _, info := range lint.AllRules() {
		if group != "" && info.Group != group {
			continue
		}
		resp.Rules = append(resp.Rules, info)
	}
	resp.Count = len(resp.Rules)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rule, ok := lint.GetByID(code)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("rule %q not found", code))
		return
	}
	writeJSON(w, http.StatusOK, lint.GetRuleInfo(rule))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	reqID := requestIDFrom(r.Context())
	s.logger.Debug("request failed", "request_id", reqID, "status", status, "error", msg)
	writeJSON(w, status, errorResponse{Error: msg, RequestID: reqID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
