package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"plancompare-agent/internal/domain"
)

const (
	defaultMaxQuestion    = 500
	maxPlansPerComparison = 2

	statusComplete   = "complete"
	statusParseError = "parse_error"
)

// PlanSource is the read-only plan catalog consumed by the service.
type PlanSource interface {
	Text(name string) (string, bool)
}

// LLMClient performs one chat-completions call and returns the raw payload.
type LLMClient interface {
	Chat(ctx context.Context, params domain.ModelParams, messages []domain.ChatMessage) (string, error)
}

// HistoryWriter records completed comparisons. Optional: a nil writer
// disables history without changing the comparison flow.
type HistoryWriter interface {
	SaveComparison(ctx context.Context, rec domain.Comparison) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// CompareService runs the full comparison pipeline: selection validation,
// prompt assembly, the completion call, and response rendering.
type CompareService struct {
	plans          PlanSource
	llm            LLMClient
	history        HistoryWriter
	systemPrompt   string
	params         domain.ModelParams
	maxQuestionLen int
}

type CompareInput struct {
	Question  string
	PlanNames []string
}

type CompareOutput struct {
	ComparisonID string
	// Answer is the Markdown-escaped display text; empty when ParseError is set.
	Answer string
	// PlanNames are the names that actually made it into the prompt, in
	// selection order. Unknown names are dropped, never rejected.
	PlanNames []string
	// ParseError marks a completion payload that was not valid JSON; Raw then
	// carries the payload verbatim for debugging.
	ParseError bool
	Raw        string
	// Response is the full parsed payload for on-demand inspection; nil when
	// ParseError is set.
	Response any
}

// NewCompareService validates and wires the pipeline. history may be nil.
func NewCompareService(plans PlanSource, llm LLMClient, history HistoryWriter, systemPrompt string, params domain.ModelParams, maxQuestionLen int) (*CompareService, error) {
	if plans == nil {
		return nil, errors.New("usecase: plan source must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("usecase: system prompt must not be empty")
	}
	if strings.TrimSpace(params.Model) == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	if maxQuestionLen <= 0 {
		maxQuestionLen = defaultMaxQuestion
	}
	return &CompareService{
		plans:          plans,
		llm:            llm,
		history:        history,
		systemPrompt:   strings.TrimSpace(systemPrompt),
		params:         params,
		maxQuestionLen: maxQuestionLen,
	}, nil
}

func (s *CompareService) Compare(ctx context.Context, in CompareInput) (CompareOutput, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return CompareOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if len(question) > s.maxQuestionLen {
		return CompareOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}
	if len(in.PlanNames) == 0 {
		return CompareOutput{}, newError(ErrorInvalidInput, "no_plans_selected", nil)
	}
	if len(in.PlanNames) > maxPlansPerComparison {
		return CompareOutput{}, newError(ErrorInvalidInput, "too_many_plans", nil)
	}

	// Names not present in the catalog are dropped silently; the prompt is
	// built from whatever remains, even if that is nothing.
	plans := make([]domain.PlanDocument, 0, len(in.PlanNames))
	included := make([]string, 0, len(in.PlanNames))
	for _, name := range in.PlanNames {
		text, ok := s.plans.Text(name)
		if !ok {
			continue
		}
		plans = append(plans, domain.PlanDocument{Name: name, Text: text})
		included = append(included, name)
	}

	raw, err := s.llm.Chat(ctx, s.params, buildMessages(s.systemPrompt, buildPrompt(question, plans)))
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return CompareOutput{}, newError(ErrorRateLimited, "completion_rate_limited", err)
		}
		return CompareOutput{}, newError(ErrorUpstream, "completion_error", err)
	}

	r := renderAnswer(raw)
	id := newUUID()

	if s.history != nil {
		if err := s.history.SaveComparison(ctx, newComparisonRecord(id, question, included, r)); err != nil {
			return CompareOutput{}, newError(ErrorInternal, "history_write_error", err)
		}
	}

	return CompareOutput{
		ComparisonID: id,
		Answer:       r.answer,
		PlanNames:    included,
		ParseError:   r.parseErr,
		Raw:          r.raw,
		Response:     r.parsed,
	}, nil
}

func newComparisonRecord(id, question string, planNames []string, r rendered) domain.Comparison {
	status := statusComplete
	answer := r.answer
	if r.parseErr {
		status = statusParseError
		answer = ""
	}
	return domain.Comparison{
		ComparisonID: id,
		Question:     question,
		PlanNames:    planNames,
		Answer:       answer,
		Status:       status,
	}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
