package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"dermaview-backend/internal/telemetry"
)

const (
	speechLanguageKorean   = "ko"
	speechStability        = 0.5
	speechSimilarityBoost  = 0.75
	defaultSpeechTimeout   = 30 * time.Second
	defaultSpeechBaseURL   = "https://api.elevenlabs.io"
	defaultSpeechOutFormat = "mp3_44100_128"
)

type SpeechConfig struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	ModelID      string
	OutputFormat string
	Speed        float64
	Timeout      time.Duration
}

type SpeechService struct {
	cfg        SpeechConfig
	httpClient *http.Client
	tracer     trace.Tracer
	audioBytes metric.Int64Counter
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

// NewSpeechService uses a pooled client when httpClient is nil.
func NewSpeechService(cfg SpeechConfig, httpClient *http.Client) *SpeechService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSpeechBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultSpeechOutFormat
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSpeechTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				TLSHandshakeTimeout:   5 * time.Second,
				MaxIdleConns:          50,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       30 * time.Second,
				ResponseHeaderTimeout: 20 * time.Second,
			},
		}
	}

	return &SpeechService{
		cfg:        cfg,
		httpClient: httpClient,
		tracer:     telemetry.Tracer(),
		audioBytes: telemetry.Int64Counter("tts.audio_bytes", "Audio bytes returned by the speech backend"),
	}
}

// Configured reports whether a backend credential is set.
func (s *SpeechService) Configured() bool {
	return strings.TrimSpace(s.cfg.APIKey) != ""
}

// Synthesize returns MPEG audio for text. A non-2xx backend answer comes back
// as *BackendError carrying the status and body verbatim.
func (s *SpeechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "tts.synthesize")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(synthesisRequest{
		Text:         text,
		ModelID:      s.cfg.ModelID,
		LanguageCode: speechLanguageKorean,
		VoiceSettings: voiceSettings{
			Stability:       speechStability,
			SimilarityBoost: speechSimilarityBoost,
			Speed:           s.cfg.Speed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tts request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		s.cfg.BaseURL, url.PathEscape(s.cfg.VoiceID), url.QueryEscape(s.cfg.OutputFormat))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to contact tts API: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		backendErr := &BackendError{Service: "tts", StatusCode: resp.StatusCode, Body: string(body)}
		span.SetStatus(codes.Error, backendErr.Error())
		return nil, backendErr
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tts audio: %w", err)
	}

	s.audioBytes.Add(ctx, int64(len(audio)))
	return audio, nil
}
