package domain

// ChatMessage is the provider-agnostic chat message shape shared by the
// compare pipeline and the LLM integration.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelParams are the completion parameters sent with every chat request.
// They come from configuration, never from request input.
type ModelParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}
