package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"dermaview-backend/internal/middleware"
	"dermaview-backend/internal/models"
	"dermaview-backend/internal/services"
)

type chatReplier interface {
	Reply(ctx context.Context, req models.ChatRequest) (string, error)
}

type ChatHandler struct {
	chat chatReplier
}

func NewChatHandler(chat chatReplier) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// AnalysisChat answers with 200 for every backend outcome so the dashboard can
// render failures inline. Only a missing message is a 400, and an oversized
// body a 413.
func (h *ChatHandler) AnalysisChat(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if bodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("Request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("Message is required"))
		return
	}

	reply, err := h.chat.Reply(r.Context(), req)
	if err != nil {
		slog.Error("analysis chat failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"history_turns", len(req.History),
			"error", err,
		)
		writeJSON(w, http.StatusOK, models.ChatResponse{Response: services.ErrorReply(err)})
		return
	}

	if strings.TrimSpace(reply) == "" {
		slog.Warn("analysis chat returned empty text", "request_id", middleware.GetRequestID(r.Context()))
		reply = services.FallbackReply
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}
