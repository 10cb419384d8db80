package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dermaview-backend/internal/models"
	"dermaview-backend/internal/services"
)

type stubSpeech struct {
	configured bool
	audio      []byte
	err        error
	calls      int
}

func (s *stubSpeech) Configured() bool { return s.configured }

func (s *stubSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.calls++
	return s.audio, s.err
}

func postTTS(t *testing.T, h *TTSHandler, text string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(models.TTSRequest{Text: text})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/tts", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Synthesize(rr, req)
	return rr
}

func TestTTSHandler_EmptyText(t *testing.T) {
	speech := &stubSpeech{configured: true}
	rr := postTTS(t, NewTTSHandler(speech), "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Text is required"}`, rr.Body.String())
	assert.Zero(t, speech.calls)
}

func TestTTSHandler_OversizedBodyRejected(t *testing.T) {
	speech := &stubSpeech{configured: true, audio: []byte("mp3")}
	rr := postTTS(t, NewTTSHandler(speech), strings.Repeat("가", 1<<20))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.JSONEq(t, `{"error":"Request body too large"}`, rr.Body.String())
	assert.Zero(t, speech.calls)
}

func TestTTSHandler_MissingCredential(t *testing.T) {
	speech := &stubSpeech{configured: false}
	rr := postTTS(t, NewTTSHandler(speech), "안녕하세요")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Error)
	assert.Zero(t, speech.calls)
}

func TestTTSHandler_BackendStatusPropagated(t *testing.T) {
	speech := &stubSpeech{configured: true, err: &services.BackendError{Service: "tts", StatusCode: http.StatusBadGateway, Body: "boom"}}
	rr := postTTS(t, NewTTSHandler(speech), "text")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "boom", resp.Details)
	assert.Equal(t, "TTS API error", resp.Error)
}

func TestTTSHandler_TransportFailureIs500(t *testing.T) {
	speech := &stubSpeech{configured: true, err: errors.New("connection refused")}
	rr := postTTS(t, NewTTSHandler(speech), "text")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp.Details, "connection refused")
}

func TestTTSHandler_ReturnsAudioVerbatim(t *testing.T) {
	audio := []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0xFF}
	rr := postTTS(t, NewTTSHandler(&stubSpeech{configured: true, audio: audio}), "text")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(len(audio)), rr.Header().Get("Content-Length"))
	assert.Equal(t, audio, rr.Body.Bytes())
}

func TestTTSHandler_Idempotent(t *testing.T) {
	h := NewTTSHandler(&stubSpeech{configured: true, audio: []byte("mpeg-bytes")})

	first := postTTS(t, h, "same")
	second := postTTS(t, h, "same")

	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, first.Header(), second.Header())
}
