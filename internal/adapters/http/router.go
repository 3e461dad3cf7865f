package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/beready-legal-assistant/internal/config"
	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/metrics"
)

const (
	serviceName      = "api"
	backpressureWait = 250 * time.Millisecond
)

type Dependencies struct {
	Answerer ports.QuestionAnswerer
	Feedback ports.FeedbackService
	// Health reports whether the persistence layer is reachable.
	Health  func(context.Context) error
	Metrics *metrics.HTTPServerMetrics
	Logger  *slog.Logger
}

type Router struct {
	cfg       config.Config
	answerer  ports.QuestionAnswerer
	feedback  ports.FeedbackService
	health    func(context.Context) error
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
	validator *requestValidator
}

func NewRouter(cfg config.Config, deps Dependencies) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:       cfg,
		answerer:  deps.Answerer,
		feedback:  deps.Feedback,
		health:    deps.Health,
		metrics:   deps.Metrics,
		logger:    logger,
		validator: validator,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/ask", rt.ask)
	api.HandleFunc("POST /v1/feedback", rt.submitFeedback)

	var apiHandler http.Handler = api
	apiHandler = rt.validator.middleware(apiHandler, rt.recordRejected)
	apiHandler = backpressureMiddleware(apiHandler, rt.cfg.APIMaxInFlight, backpressureWait, rt.recordRejected)
	apiHandler = rateLimitMiddleware(apiHandler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.recordRejected)
	apiHandler = authMiddleware(apiHandler, rt.cfg.APIKey, rt.recordRejected)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
	}
	root.Handle("/v1/", apiHandler)

	var handler http.Handler = root
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.health(ctx); err != nil {
			rt.logger.Warn("healthz_failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := userIDFromRequest(r)

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(domain.CodeInvalidRequest),
			Message: "Invalid JSON in request body.",
		})
		return
	}

	result, err := rt.answerer.AnswerQuestion(r.Context(), req.Question, userID)
	obs := metrics.AnswerObservation{
		Surface:    "http",
		Identified: userID != "",
		Duration:   time.Since(start),
	}
	if err != nil {
		status, body := mapAnswerError(err)
		obs.Outcome = body.Error
		rt.recordAnswer(obs)

		logAttrs := []any{
			"request_id", requestIDFromContext(r.Context()),
			"code", body.Error,
			"reason", body.Reason,
			"error", err,
		}
		if status >= http.StatusInternalServerError {
			rt.logger.Error("answer_failed", logAttrs...)
		} else {
			rt.logger.Warn("answer_failed", logAttrs...)
		}
		writeJSON(w, status, body)
		return
	}

	obs.Outcome = "ok"
	obs.Intent = result.Metadata.Intent.String()
	obs.Retrieval = string(result.Metadata.Retrieval)
	obs.ChunksRetrieved = result.Metadata.ChunksRetrieved
	obs.ModelCalls = result.Metadata.ModelCalls
	obs.Persisted = result.Metadata.QAEventID != nil
	rt.recordAnswer(obs)

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var input domain.FeedbackInput
	if err := decodeJSON(r, &input); err != nil {
		rt.recordFeedback("", "invalid")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(domain.CodeInvalidRequest),
			Message: "Invalid JSON in request body.",
		})
		return
	}

	saved, err := rt.feedback.SubmitFeedback(r.Context(), userIDFromRequest(r), input)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		body := feedbackErrorResponse(status, err)
		rt.recordFeedback(string(input.Rating), body.Error)
		if status >= http.StatusInternalServerError {
			rt.logger.Error("feedback_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		} else {
			rt.logger.Warn("feedback_rejected", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
		}
		writeJSON(w, status, body)
		return
	}

	rt.recordFeedback(string(saved.Rating), "ok")
	writeJSON(w, http.StatusOK, saved)
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) recordAnswer(obs metrics.AnswerObservation) {
	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, obs)
	}
}

func (rt *Router) recordFeedback(rating, status string) {
	if rt.metrics != nil {
		rt.metrics.RecordFeedback(serviceName, rating, status)
	}
}

func userIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if decoder.More() {
		return errors.New("decode request body: unexpected trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
