// Package chi exposes the HTTP API: chat, serverless-envelope compatibility,
// health, stats, and Prometheus metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusrag/campusrag/internal/domain"
	chatuc "github.com/campusrag/campusrag/internal/usecase/chat"
	directoryuc "github.com/campusrag/campusrag/internal/usecase/directory"
	healthuc "github.com/campusrag/campusrag/internal/usecase/health"
	"github.com/campusrag/campusrag/internal/version"
)

// Server holds the HTTP handlers.
type Server struct {
	chat      *chatuc.Service
	directory *directoryuc.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	directory *directoryuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{chat: chat, directory: directory, health: health, logger: logger}
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/chat", s.handleChat)
	r.Post("/runsync", s.handleRunSync)
}

type chatRequest struct {
	Question     string `json:"question"`
	NResults     int    `json:"n_results"`
	UniversityID string `json:"university_id"`
}

// runsyncEnvelope is the serverless request shape: the payload nests under
// "input".
type runsyncEnvelope struct {
	Input chatRequest `json:"input"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "campusrag",
		"version": version.Version,
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"directory": s.directory.Stats(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	s.serveChat(w, r, req)
}

// handleRunSync accepts the serverless envelope shape and returns the same
// answer payload, easing migration from the hosted-worker deployments.
func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	var env runsyncEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	s.serveChat(w, r, env.Input)
}

func (s *Server) serveChat(w http.ResponseWriter, r *http.Request, req chatRequest) {
	answer, err := s.chat.Ask(r.Context(), req.Question, req.NResults, req.UniversityID)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// writeChatError maps pipeline errors to HTTP statuses. A "no results"
// condition never reaches here; it is a valid 200 answer.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "bad_request", "no question provided")
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		s.logger.Error("Embedding provider failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "embedding_unavailable", "embedding provider unavailable")
	default:
		s.logger.Error("Chat request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
