package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"call-duration-analyzer/internal/report"
	"call-duration-analyzer/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type Analyzer interface {
	Analyze(ctx context.Context, in usecase.AnalyzeInput) (usecase.AnalyzeOutput, error)
}

type Handler struct {
	analyzer    Analyzer
	defaultDays int
}

type analyzeResponse struct {
	RunID       string         `json:"runId"`
	Since       string         `json:"since"`
	Fetched     int            `json:"fetched"`
	UniqueCalls int            `json:"uniqueCalls"`
	Skipped     int            `json:"skipped"`
	Duplicates  int            `json:"duplicates"`
	Summary     report.Summary `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(a Analyzer, defaultDays int) (*Handler, error) {
	if a == nil {
		return nil, errors.New("handler: analyzer must not be nil")
	}
	if defaultDays <= 0 {
		defaultDays = 30
	}
	return &Handler{analyzer: a, defaultDays: defaultDays}, nil
}

// Handle runs one analysis. ?days=N overrides the window; ?format=csv or an
// Accept: text/csv header returns the report itself instead of the summary.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := header(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	log := slog.With("correlation_id", corrID)

	days := h.defaultDays
	if raw := strings.TrimSpace(req.QueryStringParameters["days"]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Warn("invalid days parameter", "days", raw)
			return errorJSON(corrID, http.StatusBadRequest, usecase.ErrorInvalidInput), nil
		}
		days = n
	}

	out, err := h.analyzer.Analyze(ctx, usecase.AnalyzeInput{Days: days})
	if err != nil {
		status, code := statusFor(err)
		log.Error("analysis failed", "err", err, "status", status)
		return errorJSON(corrID, status, code), nil
	}

	if wantsCSV(req) {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, out.Records); err != nil {
			log.Error("render csv", "err", err)
			return errorJSON(corrID, http.StatusInternalServerError, usecase.ErrorInternal), nil
		}
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers: map[string]string{
				"Content-Type":        "text/csv; charset=utf-8",
				"Content-Disposition": `attachment; filename="` + report.FileName(time.Now()) + `"`,
				correlationHeader:     corrID,
			},
			Body: buf.String(),
		}, nil
	}

	return respondJSON(corrID, http.StatusOK, analyzeResponse{
		RunID:       out.RunID,
		Since:       out.Since.Format(time.RFC3339),
		Fetched:     out.Fetched,
		UniqueCalls: len(out.Records),
		Skipped:     out.Skipped,
		Duplicates:  out.Duplicates,
		Summary:     out.Summary,
	}), nil
}

func statusFor(err error) (int, usecase.ErrorCode) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, usecase.ErrorInternal
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, ucErr.Code
	case usecase.ErrorSource:
		return http.StatusBadGateway, ucErr.Code
	default:
		return http.StatusInternalServerError, usecase.ErrorInternal
	}
}

func wantsCSV(req events.APIGatewayProxyRequest) bool {
	if strings.EqualFold(req.QueryStringParameters["format"], "csv") {
		return true
	}
	return strings.Contains(strings.ToLower(header(req.Headers, "Accept")), "text/csv")
}

// header looks name up case-insensitively.
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func errorJSON(corrID string, status int, code usecase.ErrorCode) events.APIGatewayProxyResponse {
	return respondJSON(corrID, status, errorResponse{Error: string(code)})
}

func respondJSON(corrID string, status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}
}
