package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrGeminiKeyMissing is returned by every call when no API key was configured.
var ErrGeminiKeyMissing = errors.New("Gemini API key is not configured")

type contentIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

type GeminiService struct {
	client    *genai.Client
	modelName string
	newStream func(ctx context.Context, prompt string) contentIterator
}

// NewGeminiService builds the client once at startup. With an empty apiKey no
// client is built; calls fail with ErrGeminiKeyMissing and the chat handler
// reports that inline.
func NewGeminiService(apiKey, modelName string, temperature float32) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return &GeminiService{modelName: modelName}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(0.95)

	return &GeminiService{
		client:    client,
		modelName: modelName,
		newStream: func(ctx context.Context, prompt string) contentIterator {
			return model.GenerateContentStream(ctx, genai.Text(prompt))
		},
	}, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// StreamText sends prompt as a single user turn and hands each text fragment to
// yield in arrival order. A non-nil error from yield stops the stream.
func (s *GeminiService) StreamText(ctx context.Context, prompt string, yield func(fragment string) error) error {
	if s.newStream == nil {
		return ErrGeminiKeyMissing
	}

	iter := s.newStream(ctx, prompt)
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Gemini API error: %w", err)
		}

		for i, cand := range resp.Candidates {
			if cand.FinishReason != genai.FinishReasonUnspecified && cand.FinishReason != genai.FinishReasonStop {
				slog.Warn("gemini stream stopped early", "model", s.modelName, "candidate", i, "finish_reason", cand.FinishReason.String())
			}
		}

		if text := extractText(resp); text != "" {
			if err := yield(text); err != nil {
				return err
			}
		}
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
