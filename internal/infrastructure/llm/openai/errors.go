package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/resilience"
)

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

// statusCode extracts the HTTP status from go-openai's error types, or 0.
func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func (c *Client) backendError(parent context.Context, kinds backendKinds, operation, model string, timeout time.Duration, err error) error {
	op := "openai " + operation
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, parent.Err())
	}

	status := statusCode(err)
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return domain.WrapError(kinds.timeout, op, fmt.Errorf("timed out after %s: %w", timeout, err))
	case resilience.IsCircuitOpen(err):
		return domain.WrapError(kinds.unavailable, op, fmt.Errorf("circuit open for %s: %w", c.baseURL, err))
	case status == http.StatusNotFound:
		return domain.WrapError(kinds.modelMissing, op, fmt.Errorf("model %q is not available at %s: %w", model, c.baseURL, err))
	case status != 0 && isRetryableHTTPStatus(status):
		return domain.WrapError(kinds.unavailable, op, err)
	case status != 0:
		return domain.WrapError(kinds.failed, op, err)
	case errors.As(err, &netErr):
		return domain.WrapError(kinds.unavailable, op, fmt.Errorf("cannot connect to %s: %w", c.baseURL, err))
	default:
		return domain.WrapError(kinds.failed, op, err)
	}
}

func classifyOpenAIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if status := statusCode(err); status != 0 {
		retryable := isRetryableHTTPStatus(status)
		return resilience.ErrorClassification{
			Retryable:     retryable,
			RecordFailure: retryable,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
