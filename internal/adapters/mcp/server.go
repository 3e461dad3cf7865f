// Package mcpadapter exposes the answer pipeline as a Model Context Protocol tool.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
	"github.com/kirillkom/beready-legal-assistant/internal/observability/metrics"
)

const (
	serverName   = "beready-legal-assistant"
	askToolName  = "ask_uk_legal_question"
	metricsLabel = "mcp"
)

// AnswerRecorder is satisfied by *metrics.HTTPServerMetrics.
type AnswerRecorder interface {
	RecordAnswer(service string, obs metrics.AnswerObservation)
}

type Server struct {
	answerer ports.QuestionAnswerer
	userID   string
	recorder AnswerRecorder
	logger   *slog.Logger
	mcp      *server.MCPServer
}

func NewServer(answerer ports.QuestionAnswerer, userID, version string, recorder AnswerRecorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		answerer: answerer,
		userID:   strings.TrimSpace(userID),
		recorder: recorder,
		logger:   logger,
	}
	s.mcp = server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.mcp.AddTool(askTool(), s.handleAsk)
	return s
}

func askTool() mcp.Tool {
	return mcp.NewTool(askToolName,
		mcp.WithDescription("Answer a UK consumer, tenancy or contract law question with a structured, cited plan based on official guidance. Not legal advice."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question in plain English, e.g. \"Can my landlord keep my deposit for cleaning?\""),
		),
	)
}

// ServeStdio blocks until ctx is cancelled or the input stream closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("invalid arguments type"), nil
	}
	question, ok := args["question"].(string)
	if !ok {
		return mcp.NewToolResultError("question parameter must be a string"), nil
	}

	start := time.Now()
	result, err := s.answerer.AnswerQuestion(ctx, question, s.userID)
	obs := metrics.AnswerObservation{
		Surface:    metricsLabel,
		Identified: s.userID != "",
		Duration:   time.Since(start),
	}
	if err != nil {
		code, message := describeError(err)
		obs.Outcome = code
		s.record(obs)
		s.logger.Warn("answer_failed", "surface", metricsLabel, "code", code, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, message)), nil
	}

	obs.Outcome = "ok"
	obs.Intent = result.Metadata.Intent.String()
	obs.Retrieval = string(result.Metadata.Retrieval)
	obs.ChunksRetrieved = result.Metadata.ChunksRetrieved
	obs.ModelCalls = result.Metadata.ModelCalls
	obs.Persisted = result.Metadata.QAEventID != nil
	s.record(obs)

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: could not encode the answer", domain.CodeInternalError)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) record(obs metrics.AnswerObservation) {
	if s.recorder != nil {
		s.recorder.RecordAnswer(metricsLabel, obs)
	}
}

func describeError(err error) (string, string) {
	answerErr, ok := domain.AsAnswerError(err)
	if !ok {
		return string(domain.CodeInternalError), "An unexpected error occurred. Please try again."
	}
	code := string(answerErr.Code)
	if answerErr.Reason != "" {
		code += "(" + string(answerErr.Reason) + ")"
	}
	return code, answerErr.Message
}
