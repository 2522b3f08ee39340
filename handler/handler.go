// Package handler adapts the compare usecase to API Gateway proxy events for
// the Lambda deployment. Error mapping matches the HTTP server exactly so
// both surfaces behave the same.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"plancompare-agent/internal/usecase"
)

// CompareUseCase is the pipeline seam the handler depends on.
type CompareUseCase interface {
	Compare(ctx context.Context, in usecase.CompareInput) (usecase.CompareOutput, error)
}

type Handler struct {
	uc CompareUseCase
}

type compareRequest struct {
	Question  string   `json:"question"`
	PlanNames []string `json:"planNames"`
}

type compareResponse struct {
	ComparisonID string   `json:"comparisonId"`
	Answer       string   `json:"answer"`
	PlanNames    []string `json:"planNames"`
	ParseError   bool     `json:"parseError"`
	Raw          string   `json:"raw,omitempty"`
	Response     any      `json:"response,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func NewHandler(uc CompareUseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: compare usecase must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle processes one comparison request. It never returns a non-nil error:
// all failures become status-coded JSON responses.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)

	var req compareRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, corrID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_body",
		}), nil
	}

	out, err := h.uc.Compare(ctx, usecase.CompareInput{
		Question:  req.Question,
		PlanNames: req.PlanNames,
	})
	if err != nil {
		status, body := statusForError(err)
		slog.Error("comparison failed", "correlationId", corrID, "code", body.Error, "reason", body.Reason)
		return respond(status, corrID, body), nil
	}

	return respond(http.StatusOK, corrID, compareResponse{
		ComparisonID: out.ComparisonID,
		Answer:       out.Answer,
		PlanNames:    out.PlanNames,
		ParseError:   out.ParseError,
		Raw:          out.Raw,
		Response:     out.Response,
	}), nil
}

// correlationID returns the caller-provided correlation ID, matched
// case-insensitively the way API Gateway delivers headers, or a fresh UUID.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == "X-Correlation-Id" && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func statusForError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, body
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, body
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func respond(status int, corrID string, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		// Response body marshalling only fails on programmer error; degrade
		// to a bare internal error rather than dropping the response.
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": corrID,
		},
		Body: string(payload),
	}
}
