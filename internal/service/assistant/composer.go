package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/model/chat"
	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
)

const (
	// FailureReply is shown when retrieval or generation could not produce an answer.
	FailureReply = "Sorry, I couldn't reach the medical knowledge service right now. Please try again in a moment."
	// EmptyMessageReply answers a blank message without calling any backend.
	EmptyMessageReply = "Please type your question so I can help."
)

// EmotionDetector labels text and never fails.
type EmotionDetector interface {
	Detect(ctx context.Context, text string) emotion.Label
}

// Retriever returns the passages most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]knowledge.Passage, error)
}

// Generator answers a query from context passages.
type Generator interface {
	Generate(ctx context.Context, query string, passages []knowledge.Passage) (chat.Answer, error)
}

// Config 控制回复编排的行为。
type Config struct {
	Timeout time.Duration
}

// Composer turns a user message into the final empathetic, grounded reply.
type Composer struct {
	detector  EmotionDetector
	retriever Retriever
	generator Generator
	timeout   time.Duration
	log       zerolog.Logger
}

// NewComposer wires the three collaborators. They are shared across requests and must be safe for concurrent use.
func NewComposer(detector EmotionDetector, retriever Retriever, generator Generator, cfg Config) *Composer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Composer{
		detector:  detector,
		retriever: retriever,
		generator: generator,
		timeout:   timeout,
		log:       logger.Component("assistant"),
	}
}

// answerResult carries either a generated answer or the reason there is none.
type answerResult struct {
	answer chat.Answer
	err    error
}

// Compose detects the emotion of msg and answers it from the knowledge base concurrently,
// then prefixes the answer with the empathy sentence for that emotion. It always returns a
// displayable reply; failures of retrieval or generation become FailureReply.
func (c *Composer) Compose(ctx context.Context, msg chat.Message, userID string) chat.Response {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return chat.Response{Text: EmptyMessageReply, Emotion: emotion.Neutral}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	emotionCh := make(chan emotion.Label, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().Interface("panic", r).Msg("emotion detector panicked")
				emotionCh <- emotion.Neutral
			}
		}()
		emotionCh <- c.detector.Detect(ctx, text)
	}()

	answerCh := make(chan answerResult, 1)
	go func() {
		answerCh <- c.answer(ctx, text)
	}()

	var result answerResult
	select {
	case result = <-answerCh:
	case <-ctx.Done():
		select {
		case result = <-answerCh:
		default:
			result = answerResult{err: fmt.Errorf("compose timed out: %w", ctx.Err())}
		}
	}

	label := emotion.Neutral
	select {
	case label = <-emotionCh:
	case <-ctx.Done():
		select {
		case label = <-emotionCh:
		default:
		}
	}
	label = emotion.Normalize(string(label))

	if result.err != nil {
		c.log.Warn().Err(result.err).Str("user", userID).Str("emotion", string(label)).Msg("answer unavailable")
		return chat.Response{Text: FailureReply, Emotion: label, Failed: true}
	}

	c.log.Info().Str("user", userID).Str("emotion", string(label)).Int("length", len(result.answer.Text)).Msg("composed reply")
	return chat.Response{
		Text:    emotion.EmpathyPrefix(label) + result.answer.Text,
		Emotion: label,
	}
}

func (c *Composer) answer(ctx context.Context, text string) (result answerResult) {
	defer func() {
		if r := recover(); r != nil {
			result = answerResult{err: fmt.Errorf("answer pipeline panic: %v", r)}
		}
	}()

	passages, err := c.retriever.Retrieve(ctx, text)
	if err != nil {
		return answerResult{err: fmt.Errorf("retrieval failed: %w", err)}
	}

	answer, err := c.generator.Generate(ctx, text, passages)
	if err != nil {
		return answerResult{err: fmt.Errorf("generation failed: %w", err)}
	}
	if strings.TrimSpace(answer.Text) == "" {
		return answerResult{err: errors.New("generation failed: empty answer")}
	}
	return answerResult{answer: answer}
}
