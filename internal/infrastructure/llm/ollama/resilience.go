package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

type backendKinds struct {
	unavailable  error
	modelMissing error
	timeout      error
	failed       error
}

var (
	chatKinds = backendKinds{
		unavailable:  domain.ErrChatUnavailable,
		modelMissing: domain.ErrChatModelMissing,
		timeout:      domain.ErrChatTimeout,
		failed:       domain.ErrChatFailed,
	}
	embeddingKinds = backendKinds{
		unavailable:  domain.ErrEmbeddingUnavailable,
		modelMissing: domain.ErrEmbeddingModelMissing,
		timeout:      domain.ErrEmbeddingTimeout,
		failed:       domain.ErrEmbeddingUnavailable,
	}
)

// backendError converts a transport error into one of the typed backend kinds.
// parent is the caller's context, so a caller cancellation is not reported as a timeout.
func (c *Client) backendError(parent context.Context, kinds backendKinds, operation, model string, timeout time.Duration, err error) error {
	op := "ollama " + operation
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, parent.Err())
	}

	var statusErr *HTTPStatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return domain.WrapError(kinds.timeout, op, fmt.Errorf("timed out after %s: %w", timeout, err))
	case resilience.IsCircuitOpen(err):
		return domain.WrapError(kinds.unavailable, op, fmt.Errorf("circuit open for Ollama at %s: %w", c.baseURL, err))
	case errors.As(err, &statusErr):
		switch {
		case statusErr.StatusCode == http.StatusNotFound:
			return domain.WrapError(kinds.modelMissing, op, fmt.Errorf("model %q not found, pull it with: ollama pull %s: %w", model, model, err))
		case isRetryableHTTPStatus(statusErr.StatusCode):
			return domain.WrapError(kinds.unavailable, op, err)
		default:
			return domain.WrapError(kinds.failed, op, err)
		}
	case errors.As(err, &netErr):
		return domain.WrapError(kinds.unavailable, op, fmt.Errorf("cannot connect to Ollama at %s, make sure it is running: %w", c.baseURL, err))
	default:
		return domain.WrapError(kinds.failed, op, err)
	}
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
