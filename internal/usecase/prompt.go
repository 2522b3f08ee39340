package usecase

import (
	"fmt"
	"strings"

	"plancompare-agent/internal/domain"
)

// buildPrompt assembles the user prompt: the question, a space, then one
// <plan name="...">...</plan> segment per selected plan joined by single
// spaces. Plan names and texts are embedded verbatim — a document containing
// the tag delimiters is not sanitized. That matches how the upstream model is
// prompted and is an accepted limitation of the tag format.
func buildPrompt(question string, plans []domain.PlanDocument) string {
	segments := make([]string, 0, len(plans))
	for _, p := range plans {
		segments = append(segments, fmt.Sprintf(`<plan name="%s">%s</plan>`, p.Name, p.Text))
	}
	return question + " " + strings.Join(segments, " ")
}

// buildMessages produces the fixed two-message conversation: the system
// persona followed by the built user prompt.
func buildMessages(systemPrompt, userPrompt string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}
