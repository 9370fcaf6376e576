package types

// ChatRequest is the inbound chat-completion request body. Only the
// messages array is read; any other top-level keys are ignored.
type ChatRequest struct {
	// Messages is the conversation history in client order.
	Messages []Message `json:"messages"`
}

// Message is a single conversation turn. Role is opaque and never
// validated for value.
type Message struct {
	// Role is the author of the message, e.g. "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the text of the message.
	Content string `json:"content"`
}
