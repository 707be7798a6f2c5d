// Package server exposes campaigns over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/monitoring"
)

// Runner executes one campaign.
type Runner interface {
	Run(ctx context.Context, q model.Query) (*model.CampaignResult, error)
}

// Server handles the campaign API. Every request gets its own Runner, so
// campaigns may run side by side.
type Server struct {
	newRunner    func() Runner
	store        *Store
	defaultLimit int

	collector     *monitoring.Collector
	lookbackHours int
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves GET /metrics from collector over the given window.
func WithMetrics(collector *monitoring.Collector, lookbackHours int) Option {
	return func(s *Server) {
		s.collector = collector
		s.lookbackHours = lookbackHours
	}
}

// New creates a Server. defaultLimit applies when a request omits limit.
func New(newRunner func() Runner, store *Store, defaultLimit int, opts ...Option) *Server {
	if store == nil {
		store = NewStore()
	}
	s := &Server{newRunner: newRunner, store: store, defaultLimit: defaultLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.collector != nil {
		r.Get("/metrics", s.handleMetrics)
	}
	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type createRequest struct {
	Industry string `json:"industry"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

type errorResponse struct {
	Error  string                `json:"error"`
	Result *model.CampaignResult `json:"result,omitempty"`
}

type campaignSummary struct {
	RunID      string               `json:"run_id"`
	Query      model.Query          `json:"query"`
	Status     model.CampaignStatus `json:"status"`
	Entities   int                  `json:"entities"`
	ExportPath string               `json:"export_path,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Collect(s.lookbackHours))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	q := model.Query{
		Industry: strings.TrimSpace(req.Industry),
		Location: strings.TrimSpace(req.Location),
		Limit:    req.Limit,
	}
	if q.Limit == 0 {
		q.Limit = s.defaultLimit
	}

	result, err := s.newRunner().Run(r.Context(), q)
	if result != nil {
		s.store.Put(result)
	}
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Result: result})
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := s.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "campaign not found"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	results := s.store.List()
	out := make([]campaignSummary, 0, len(results))
	for _, r := range results {
		out = append(out, campaignSummary{
			RunID:      r.RunID,
			Query:      r.Query,
			Status:     r.Status,
			Entities:   len(r.Entities),
			ExportPath: r.ExportPath,
			StartedAt:  r.StartedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case model.IsConfigurationError(err):
		return http.StatusBadRequest
	case model.IsStageEmpty(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
