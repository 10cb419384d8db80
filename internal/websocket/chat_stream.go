package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"dermaview-backend/internal/middleware"
	"dermaview-backend/internal/models"
	"dermaview-backend/internal/services"
)

type chatStreamer interface {
	StreamReply(ctx context.Context, req models.ChatRequest, onFragment func(fragment string) error) (string, error)
}

// ChatStream serves the analysis chat over a WebSocket, forwarding each
// fragment as it arrives. Requests on one connection run one at a time.
type ChatStream struct {
	chat     chatStreamer
	upgrader websocket.Upgrader
}

func NewChatStream(chat chatStreamer, frontendURL string) *ChatStream {
	return &ChatStream{
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == frontendURL
			},
		},
	}
}

const maxMessageBytes = 1 << 20

func (s *ChatStream) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	requestID := middleware.GetRequestID(r.Context())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "request_id", requestID, "error", err)
			}
			return
		}

		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if conn.WriteJSON(errorFrame("Invalid request body")) != nil {
				return
			}
			continue
		}

		if strings.TrimSpace(req.Message) == "" {
			if conn.WriteJSON(errorFrame("Message is required")) != nil {
				return
			}
			continue
		}

		var writeErr error
		reply, err := s.chat.StreamReply(r.Context(), req, func(fragment string) error {
			writeErr = conn.WriteJSON(models.StreamFrame{Type: models.StreamChunk, Content: fragment})
			return writeErr
		})
		if writeErr != nil {
			slog.Warn("websocket write error", "request_id", requestID, "error", writeErr)
			return
		}
		if err != nil {
			slog.Error("streamed analysis chat failed", "request_id", requestID, "error", err)
			if conn.WriteJSON(errorFrame(services.ErrorReply(err))) != nil {
				return
			}
			continue
		}

		if strings.TrimSpace(reply) == "" {
			reply = services.FallbackReply
		}
		if err := conn.WriteJSON(models.StreamFrame{Type: models.StreamDone, Content: reply}); err != nil {
			return
		}
	}
}

func errorFrame(message string) models.StreamFrame {
	return models.StreamFrame{Type: models.StreamError, Error: message}
}
