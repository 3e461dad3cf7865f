package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Reason  string   `json:"reason,omitempty"`
	Details []string `json:"details,omitempty"`
}

func mapAnswerError(err error) (int, errorResponse) {
	answerErr, ok := domain.AsAnswerError(err)
	if !ok {
		return http.StatusInternalServerError, errorResponse{
			Error:   string(domain.CodeInternalError),
			Message: "An unexpected error occurred. Please try again.",
		}
	}

	body := errorResponse{
		Error:   string(answerErr.Code),
		Message: answerErr.Message,
		Reason:  string(answerErr.Reason),
		Details: answerErr.Details,
	}
	switch answerErr.Code {
	case domain.CodeInvalidRequest:
		return http.StatusBadRequest, body
	case domain.CodeRAGError, domain.CodeJSONParseError:
		return http.StatusBadGateway, body
	case domain.CodeLLMError:
		if answerErr.Reason == domain.ReasonTimeout {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusServiceUnavailable, body
	case domain.CodeValidationFailed:
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, body
	}
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type detailedError interface {
	Details() []string
}

func feedbackErrorResponse(status int, err error) errorResponse {
	switch status {
	case http.StatusBadRequest:
		if errors.Is(err, domain.ErrInvalidEditedAnswer) {
			body := errorResponse{
				Error:   string(domain.CodeInvalidRequest),
				Message: "editedAnswerJson does not match the answer format.",
			}
			var detailed detailedError
			if errors.As(err, &detailed) {
				body.Details = detailed.Details()
			}
			return body
		}
		return errorResponse{Error: string(domain.CodeInvalidRequest), Message: "eventId and a rating of \"up\" or \"down\" are required."}
	case http.StatusUnauthorized:
		return errorResponse{Error: "unauthorized", Message: "Authentication required."}
	case http.StatusForbidden:
		return errorResponse{Error: "forbidden", Message: "You cannot leave feedback on this answer."}
	case http.StatusNotFound:
		return errorResponse{Error: "not_found", Message: "The answer you are rating was not found."}
	case http.StatusServiceUnavailable:
		return errorResponse{Error: "unavailable", Message: "Feedback is temporarily unavailable. Please try again."}
	default:
		return errorResponse{Error: string(domain.CodeInternalError), Message: "An unexpected error occurred. Please try again."}
	}
}
