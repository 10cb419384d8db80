package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"dermaview-backend/internal/models"
	"dermaview-backend/internal/telemetry"
)

const (
	FallbackReply  = "죄송합니다. 응답을 생성하지 못했습니다. 잠시 후 다시 질문해 주세요."
	errorReplyTmpl = "죄송합니다. 답변 생성 중 오류가 발생했습니다: %s"
)

// TextGenerator streams a completion for a single flattened prompt.
type TextGenerator interface {
	StreamText(ctx context.Context, prompt string, yield func(fragment string) error) error
}

type ChatService struct {
	generator TextGenerator
	timeout   time.Duration
	tracer    trace.Tracer
	requests  metric.Int64Counter
	failures  metric.Int64Counter
}

func NewChatService(generator TextGenerator, timeout time.Duration) *ChatService {
	return &ChatService{
		generator: generator,
		timeout:   timeout,
		tracer:    telemetry.Tracer(),
		requests:  telemetry.Int64Counter("chat.requests", "Analysis chat completions requested"),
		failures:  telemetry.Int64Counter("chat.failures", "Analysis chat completions that failed"),
	}
}

// Reply runs the whole stream and returns the concatenated text.
func (s *ChatService) Reply(ctx context.Context, req models.ChatRequest) (string, error) {
	return s.StreamReply(ctx, req, nil)
}

// StreamReply is Reply with a per-fragment callback. onFragment may be nil.
func (s *ChatService) StreamReply(ctx context.Context, req models.ChatRequest, onFragment func(fragment string) error) (string, error) {
	ctx, span := s.tracer.Start(ctx, "chat.reply")
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	prompt := BuildChatPrompt(req)
	span.SetAttributes(
		attribute.Int("chat.history_turns", len(req.History)),
		attribute.Int("chat.prompt_bytes", len(prompt)),
	)
	s.requests.Add(ctx, 1)

	var reply strings.Builder
	err := s.generator.StreamText(ctx, prompt, func(fragment string) error {
		reply.WriteString(fragment)
		if onFragment != nil {
			return onFragment(fragment)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.failures.Add(context.WithoutCancel(ctx), 1)
		return "", err
	}

	span.SetAttributes(attribute.Int("chat.reply_bytes", reply.Len()))
	return reply.String(), nil
}

// ErrorReply renders a backend failure as text the dashboard can show inline.
func ErrorReply(err error) string {
	return fmt.Sprintf(errorReplyTmpl, err.Error())
}
