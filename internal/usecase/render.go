package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
)

// answerAliases is the ordered list of field names consulted on choices[0]
// when extracting the assistant's reply. "mesages" is a tolerated upstream
// misspelling that has been observed in live responses; modeling it as an
// alias keeps the tolerance explicit instead of scattered through the code.
var answerAliases = []string{"messages", "message", "mesages"}

// markdownEscaper prefixes every character with Markdown meaning with a
// backslash so answers display literally. Single pass over the input, so
// inserted backslashes are never re-escaped (the backslash itself is not in
// the set).
var markdownEscaper = strings.NewReplacer(
	"$", `\$`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	".", `\.`,
	"!", `\!`,
)

// rendered is the display-ready form of a completion payload. It is a value
// with states, never an error: payloads the service cannot make sense of
// still render, just through a fallback.
type rendered struct {
	// answer is the escaped display text; empty when parseErr is set.
	answer string
	// parsed is the full decoded payload for on-demand inspection; nil when
	// parseErr is set.
	parsed any
	// parseErr marks a payload that was not valid JSON at all; raw then
	// carries the unparsed text verbatim.
	parseErr bool
	raw      string
}

// renderAnswer turns a raw completion payload into display text.
func renderAnswer(raw string) rendered {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return rendered{parseErr: true, raw: raw}
	}
	return rendered{
		answer: markdownEscaper.Replace(extractAnswer(payload)),
		parsed: payload,
		raw:    raw,
	}
}

// extractAnswer walks the payload for the assistant's reply text. Every miss
// degrades to a string form of the nearest enclosing value; nothing here ever
// fails.
func extractAnswer(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return stringForm(payload)
	}
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return stringForm(payload)
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return stringForm(choices[0])
	}
	for _, key := range answerAliases {
		v, present := choice[key]
		if !present {
			continue
		}
		if s, isString := v.(string); isString {
			return s
		}
		return stringForm(v)
	}
	return stringForm(choice)
}

func stringForm(v any) string {
	return fmt.Sprintf("%v", v)
}
