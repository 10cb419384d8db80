package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single prior turn in the analysis conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the analysis chat endpoint.
// Context carries the 3D scan summary the physician is looking at.
type ChatRequest struct {
	Message string        `json:"message"`
	Context string        `json:"context"`
	History []ChatMessage `json:"history"`
}

// ChatResponse always comes back with 200, either real content or an apology.
type ChatResponse struct {
	Response string `json:"response"`
}
