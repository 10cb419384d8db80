package models

// API Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WebSocket frame types for streamed chat
const (
	StreamChunk = "chunk"
	StreamDone  = "done"
	StreamError = "error"
)

type StreamFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}
