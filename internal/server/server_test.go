package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"plancompare-agent/internal/domain"
	"plancompare-agent/internal/usecase"
)

type stubUseCase struct {
	out usecase.CompareOutput
	err error
	in  usecase.CompareInput
}

func (s *stubUseCase) Compare(_ context.Context, in usecase.CompareInput) (usecase.CompareOutput, error) {
	s.in = in
	return s.out, s.err
}

type stubHistory struct {
	recs []domain.Comparison
	err  error
}

func (s *stubHistory) RecentComparisons(_ context.Context, limit int) ([]domain.Comparison, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.recs) {
		return s.recs[:limit], nil
	}
	return s.recs, nil
}

func testCatalog() Catalog {
	return Catalog{
		PlanNames: []string{"HMO Blue Saver", "Preferred PPO"},
		Questions: []string{"Which plan has the lowest deductible?"},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, uc CompareUseCase, history HistoryReader) *Server {
	t.Helper()
	s, err := New(uc, testCatalog(), history, quietLogger())
	require.NoError(t, err)
	return s
}

func parseBody[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body.Bytes(), &v))
	return v
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, testCatalog(), nil, quietLogger())
	require.Error(t, err)

	_, err = New(&stubUseCase{}, Catalog{}, nil, quietLogger())
	require.Error(t, err)

	_, err = New(&stubUseCase{}, testCatalog(), nil, nil)
	require.NoError(t, err)
}

func TestIndex_RendersForm(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	page := rec.Body.String()
	require.Contains(t, page, "HMO Blue Saver")
	require.Contains(t, page, "Preferred PPO")
	require.Contains(t, page, "Which plan has the lowest deductible?")
	require.Contains(t, page, "Custom question")
}

func TestIndex_UnknownPathIs404(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[catalogResponse](t, rec.Body)
	require.Equal(t, []string{"HMO Blue Saver", "Preferred PPO"}, out.PlanNames)
	require.Equal(t, 2, out.MaxPlans)
	require.Len(t, out.Questions, 1)
}

func compareReq(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCompare_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.CompareOutput{
		ComparisonID: "cmp-1",
		Answer:       `Plan A has a \$500 deductible\.`,
		PlanNames:    []string{"HMO Blue Saver"},
		Raw:          `{"choices":[{"messages":"Plan A has a $500 deductible."}]}`,
		Response:     map[string]any{"choices": []any{}},
	}}
	s := newTestServer(t, uc, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, compareReq(t, `{"question":"Q?","planNames":["HMO Blue Saver"]}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, usecase.CompareInput{Question: "Q?", PlanNames: []string{"HMO Blue Saver"}}, uc.in)
	require.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))

	out := parseBody[compareResponse](t, rec.Body)
	require.Equal(t, "cmp-1", out.ComparisonID)
	require.Equal(t, `Plan A has a \$500 deductible\.`, out.Answer)
	require.False(t, out.ParseError)
	require.NotNil(t, out.Response)
}

func TestCompare_ParseErrorPassthrough(t *testing.T) {
	uc := &stubUseCase{out: usecase.CompareOutput{
		ComparisonID: "cmp-2",
		ParseError:   true,
		Raw:          "not json",
	}}
	s := newTestServer(t, uc, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, compareReq(t, `{"question":"Q?","planNames":["HMO Blue Saver"]}`))

	// a malformed upstream payload is still a successful submission
	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[compareResponse](t, rec.Body)
	require.True(t, out.ParseError)
	require.Equal(t, "not json", out.Raw)
	require.Empty(t, out.Answer)
}

func TestCompare_MalformedBody(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, compareReq(t, `not-json`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := parseBody[errorResponse](t, rec.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
}

func TestCompare_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_question"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "rate limited", err: &usecase.Error{Code: usecase.ErrorRateLimited, Reason: "completion_rate_limited"}, status: http.StatusTooManyRequests, code: string(usecase.ErrorRateLimited)},
		{name: "upstream", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "completion_error"}, status: http.StatusBadGateway, code: string(usecase.ErrorUpstream)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "history_write_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, &stubUseCase{err: tc.err}, nil)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, compareReq(t, `{"question":"Q?","planNames":["HMO Blue Saver"]}`))

			require.Equal(t, tc.status, rec.Code)
			out := parseBody[errorResponse](t, rec.Body)
			require.Equal(t, tc.code, out.Error)
		})
	}
}

func TestCompare_UsesProvidedCorrelationID(t *testing.T) {
	s := newTestServer(t, &stubUseCase{out: usecase.CompareOutput{ComparisonID: "cmp-1"}}, nil)

	req := compareReq(t, `{"question":"Q?","planNames":["HMO Blue Saver"]}`)
	req.Header.Set("X-Correlation-Id", "corr-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, "corr-123", rec.Header().Get("X-Correlation-Id"))
}

func TestHistory_Disabled(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[historyResponse](t, rec.Body)
	require.Empty(t, out.Comparisons)
}

func TestHistory_ReturnsRecords(t *testing.T) {
	history := &stubHistory{recs: []domain.Comparison{
		{ComparisonID: "cmp-2", Question: "Q2?", Status: "complete", PlanNames: []string{"Preferred PPO"}},
		{ComparisonID: "cmp-1", Question: "Q1?", Status: "complete"},
	}}
	s := newTestServer(t, &stubUseCase{}, history)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[historyResponse](t, rec.Body)
	require.Len(t, out.Comparisons, 2)
	require.Equal(t, "cmp-2", out.Comparisons[0].ComparisonID)
}

func TestHistory_LimitApplied(t *testing.T) {
	history := &stubHistory{recs: []domain.Comparison{
		{ComparisonID: "a"}, {ComparisonID: "b"}, {ComparisonID: "c"},
	}}
	s := newTestServer(t, &stubUseCase{}, history)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := parseBody[historyResponse](t, rec.Body)
	require.Len(t, out.Comparisons, 2)
}

func TestHistory_InvalidLimit(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, &stubHistory{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=zero", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_ReadError(t *testing.T) {
	s := newTestServer(t, &stubUseCase{}, &stubHistory{err: errors.New("table gone")})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := parseBody[errorResponse](t, rec.Body)
	require.Equal(t, string(usecase.ErrorInternal), out.Error)
}
