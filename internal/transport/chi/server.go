package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/converse/internal/domain"
	domdialog "github.com/kailas-cloud/converse/internal/domain/dialog"
	dispatchuc "github.com/kailas-cloud/converse/internal/usecase/dispatch"
	healthuc "github.com/kailas-cloud/converse/internal/usecase/health"
)

const maxMessageLength = 4096

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the conversation API over HTTP.
type Server struct {
	dispatch      *dispatchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	dispatch *dispatchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		dispatch: dispatch,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrAnsweringService, http.StatusBadGateway, codeAnsweringServiceError),
		sentinelHandler(domain.ErrRecognizerService, http.StatusBadGateway, codeRecognizerError),
		sentinelHandler(domain.ErrSendFailed, http.StatusBadGateway, codeSendFailed),
	}
	return s
}

// Mount registers the API routes on the router.
func (s *Server) Mount(r chirouter.Router) {
	r.Post("/api/v1/conversations/{conversationID}/messages", s.PostMessage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// PostMessage handles POST /api/v1/conversations/{conversationID}/messages.
// It runs one turn of the conversation and returns every message the turn
// produced, in send order.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chirouter.URLParam(r, "conversationID")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "conversation id is required")
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrEmptyMessage.Error())
		return
	}
	if len(req.Text) > maxMessageLength {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message text too long")
		return
	}

	collector := &messageCollector{}
	result, err := s.dispatch.Handle(r.Context(), conversationID, req.UserID, req.Text, collector)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnResultToWire(result, collector.messages))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// messageCollector buffers outbound messages so the whole turn can be returned
// in one HTTP response.
type messageCollector struct {
	messages []domdialog.Message
}

func (c *messageCollector) Send(_ context.Context, msg domdialog.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyMessage,
		domain.ErrAnsweringService,
		domain.ErrRecognizerService,
		domain.ErrSendFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
