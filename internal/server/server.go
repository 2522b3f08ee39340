// Package server exposes the comparison pipeline over HTTP: a single-page
// form at / and a small JSON API under /api/.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"plancompare-agent/internal/domain"
	"plancompare-agent/internal/usecase"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// CompareUseCase is the comparison pipeline consumed by the handlers.
type CompareUseCase interface {
	Compare(ctx context.Context, in usecase.CompareInput) (usecase.CompareOutput, error)
}

// HistoryReader lists recent comparisons. Optional: nil disables history.
type HistoryReader interface {
	RecentComparisons(ctx context.Context, limit int) ([]domain.Comparison, error)
}

// Catalog is the static form content: selectable plans and canned questions.
type Catalog struct {
	PlanNames []string
	Questions []string
}

// Server wires the handlers onto a mux.
type Server struct {
	uc      CompareUseCase
	catalog Catalog
	history HistoryReader
	log     *slog.Logger
	mux     *http.ServeMux
}

// New creates a Server. history may be nil; log falls back to slog.Default().
func New(uc CompareUseCase, catalog Catalog, history HistoryReader, log *slog.Logger) (*Server, error) {
	if uc == nil {
		return nil, errors.New("server: compare usecase must not be nil")
	}
	if len(catalog.PlanNames) == 0 {
		return nil, errors.New("server: catalog must list at least one plan")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{uc: uc, catalog: catalog, history: history, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux = mux
	return s, nil
}

// Handler returns the root handler for the service.
func (s *Server) Handler() http.Handler {
	return s.mux
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

type catalogResponse struct {
	PlanNames []string `json:"planNames"`
	Questions []string `json:"questions"`
	MaxPlans  int      `json:"maxPlans"`
}

type historyEntry struct {
	ComparisonID string   `json:"comparisonId"`
	Question     string   `json:"question"`
	PlanNames    []string `json:"planNames"`
	Answer       string   `json:"answer"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"createdAt"`
}

type historyResponse struct {
	Comparisons []historyEntry `json:"comparisons"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPageTmpl.Execute(w, indexPageData{
		PlanNames: s.catalog.PlanNames,
		Questions: s.catalog.Questions,
	}); err != nil {
		s.log.Error("render index page", "err", err)
	}
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{
		PlanNames: s.catalog.PlanNames,
		Questions: s.catalog.Questions,
		MaxPlans:  2,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	corrID := r.Header.Get("X-Correlation-Id")
	if corrID == "" {
		corrID = uuid.NewString()
	}
	w.Header().Set("X-Correlation-Id", corrID)

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_body",
		})
		return
	}

	start := time.Now()
	out, err := s.uc.Compare(r.Context(), usecase.CompareInput{
		Question:  req.Question,
		PlanNames: req.PlanNames,
	})
	if err != nil {
		status, body := statusForError(err)
		s.log.Error("comparison failed",
			"correlationId", corrID,
			"code", body.Error,
			"reason", body.Reason,
			"durationMs", time.Since(start).Milliseconds(),
		)
		writeJSON(w, status, body)
		return
	}

	s.log.Info("comparison complete",
		"correlationId", corrID,
		"comparisonId", out.ComparisonID,
		"plans", out.PlanNames,
		"parseError", out.ParseError,
		"durationMs", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, compareResponse{
		ComparisonID: out.ComparisonID,
		Answer:       out.Answer,
		PlanNames:    out.PlanNames,
		ParseError:   out.ParseError,
		Raw:          out.Raw,
		Response:     out.Response,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, historyResponse{Comparisons: []historyEntry{}})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:  string(usecase.ErrorInvalidInput),
				Reason: "invalid_limit",
			})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := s.history.RecentComparisons(r.Context(), limit)
	if err != nil {
		s.log.Error("history read failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:  string(usecase.ErrorInternal),
			Reason: "history_read_error",
		})
		return
	}

	entries := make([]historyEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, historyEntry{
			ComparisonID: rec.ComparisonID,
			Question:     rec.Question,
			PlanNames:    rec.PlanNames,
			Answer:       rec.Answer,
			Status:       rec.Status,
			CreatedAt:    rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, historyResponse{Comparisons: entries})
}

// statusForError maps usecase error codes to HTTP statuses. Anything
// unrecognized is an internal error.
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
