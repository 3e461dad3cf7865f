package domain

import (
	"errors"
	"strings"
)

// ErrorCode is the stable machine-readable code returned to callers of AnswerQuestion.
type ErrorCode string

const (
	CodeInvalidRequest   ErrorCode = "invalid_request"
	CodeRAGError         ErrorCode = "rag_error"
	CodeLLMError         ErrorCode = "llm_error"
	CodeJSONParseError   ErrorCode = "json_parse_error"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeInternalError    ErrorCode = "internal_error"
)

// LLMFailureReason narrows CodeLLMError down to what went wrong with the chat backend.
type LLMFailureReason string

const (
	ReasonServiceUnavailable LLMFailureReason = "service_unavailable"
	ReasonModelUnavailable   LLMFailureReason = "model_unavailable"
	ReasonTimeout            LLMFailureReason = "timeout"
	ReasonUpstreamError      LLMFailureReason = "upstream_error"
)

// AnswerError is the only error type AnswerQuestion returns.
// Message is safe to show to end users; Err keeps the cause for logs.
type AnswerError struct {
	Code    ErrorCode
	Reason  LLMFailureReason
	Message string
	Details []string
	Err     error
}

func (e *AnswerError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Reason != "" {
		b.WriteString("(" + string(e.Reason) + ")")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}

// AsAnswerError extracts an AnswerError from an error chain.
func AsAnswerError(err error) (*AnswerError, bool) {
	var answerErr *AnswerError
	if errors.As(err, &answerErr) {
		return answerErr, true
	}
	return nil, false
}
