package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"dermaview-backend/internal/middleware"
	"dermaview-backend/internal/models"
	"dermaview-backend/internal/services"
)

type speechSynthesizer interface {
	Configured() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type TTSHandler struct {
	speech speechSynthesizer
}

func NewTTSHandler(speech speechSynthesizer) *TTSHandler {
	return &TTSHandler{speech: speech}
}

// Synthesize proxies text to the speech backend. Unlike chat, backend failures
// keep their real status code.
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req models.TTSRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if bodyTooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("Request body too large"))
		return
	}
	if err != nil || strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("Text is required"))
		return
	}

	if !h.speech.Configured() {
		slog.Error("tts credential missing", "request_id", middleware.GetRequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResp("TTS API key is not configured"))
		return
	}

	audio, err := h.speech.Synthesize(r.Context(), req.Text)
	if err != nil {
		requestID := middleware.GetRequestID(r.Context())

		var backendErr *services.BackendError
		if errors.As(err, &backendErr) {
			slog.Warn("tts backend rejected request", "request_id", requestID, "status", backendErr.StatusCode, "body", backendErr.Body)
			writeJSON(w, backendErr.StatusCode, models.ErrorResponse{Error: "TTS API error", Details: backendErr.Body})
			return
		}

		slog.Error("tts request failed", "request_id", requestID, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate speech", Details: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}
