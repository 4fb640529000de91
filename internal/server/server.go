// Package server exposes a chat session over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"faqbot/internal/adapter/embedding"
	"faqbot/internal/adapter/history"
	"faqbot/internal/adapter/suggest"
	"faqbot/internal/domain"
	"faqbot/internal/usecase"
)

//go:embed static
var staticFS embed.FS

const (
	defaultSuggestions = 5
	maxBodyBytes       = 1 << 16
)

// Config holds server configuration.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// EmbedderInfo reports the active embedding provider.
type EmbedderInfo interface {
	Info() embedding.Info
}

type Server struct {
	cfg      Config
	session  *usecase.ChatSession
	embedder EmbedderInfo
	static   *suggest.StaticSuggester
	tfidf    *suggest.TFIDFSuggester
	router   *mux.Router
	server   *http.Server
	now      func() time.Time
}

// New creates a server for session. The TF-IDF suggester is loaded with the
// static question bank.
func New(cfg Config, session *usecase.ChatSession, embedder EmbedderInfo) *Server {
	s := &Server{
		cfg:      cfg,
		session:  session,
		embedder: embedder,
		static:   suggest.NewStaticSuggester(),
		tfidf:    suggest.NewTFIDFSuggester(),
		router:   mux.NewRouter(),
		now:      time.Now,
	}
	s.tfidf.Load(suggest.Bank())
	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/history/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/suggestions", s.handleSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/examples", s.handleExamples).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleUpdateConfig).Methods(http.MethodPatch)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/embedder", s.handleEmbedder).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	staticFiles, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFiles))).Methods(http.MethodGet)

	s.router.Use(loggingMiddleware)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the server is stopped.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.cfg.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type askRequest struct {
	Question string `json:"question"`
}

// AskResponse is the JSON body returned for an answered question.
type AskResponse struct {
	Answer      string       `json:"answer"`
	Source      *string      `json:"source"`
	Route       domain.Route `json:"route"`
	Suggestions []string     `json:"suggestions"`
}

func NewAskResponse(r usecase.Reply) AskResponse {
	suggestions := r.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return AskResponse{
		Answer:      r.Answer.Text,
		Source:      r.Answer.Source,
		Route:       r.Route,
		Suggestions: suggestions,
	}
}

// handleAsk handles POST /api/ask
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidQuestion) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err)
		return
	}

	respondJSON(w, http.StatusOK, NewAskResponse(reply))
}

// handleHistory handles GET /api/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns := s.session.History()
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	respondJSON(w, http.StatusOK, turns)
}

// handleClearHistory handles DELETE /api/history
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.session.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// handleExport handles GET /api/history/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chat_history_%s.md"`, now.Format("20060102_150405")))
	fmt.Fprint(w, history.Export(s.session.History(), now))
}

// handleSuggestions handles GET /api/suggestions?q=&k=&category=
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")

	if category := q.Get("category"); category != "" {
		switch category {
		case suggest.CategoryPatent, suggest.CategoryBIS, suggest.CategoryAll:
			respondJSON(w, http.StatusOK, nonNil(s.static.Category(query, category)))
		default:
			respondError(w, http.StatusBadRequest, fmt.Errorf("unknown category %q", category))
		}
		return
	}

	k := defaultSuggestions
	if raw := q.Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, fmt.Errorf("k must be a positive integer"))
			return
		}
		k = n
	}

	respondJSON(w, http.StatusOK, nonNil(s.tfidf.Suggest(query, k)))
}

// handleExamples handles GET /api/examples
func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, suggest.ExampleQuestions())
}

// handleConfig handles GET /api/config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.Generator().Config())
}

// handleUpdateConfig handles PATCH /api/config
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update usecase.ConfigUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := s.session.Generator().UpdateConfig(update)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	slog.Info("generation config updated", "model", cfg.Model, "temperature", cfg.Temperature, "max_tokens", cfg.MaxTokens)
	respondJSON(w, http.StatusOK, cfg)
}

type statsResponse struct {
	domain.SessionStats
	SuccessRate float64 `json:"success_rate"`
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.session.Stats()
	respondJSON(w, http.StatusOK, statsResponse{SessionStats: stats, SuccessRate: stats.SuccessRate()})
}

// handleEmbedder handles GET /api/embedder
func (s *Server) handleEmbedder(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.embedder.Info())
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().Format(time.RFC3339),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
