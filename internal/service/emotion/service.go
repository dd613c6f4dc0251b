package emotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	analysis "github.com/zhouzirui/medibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/medibot/backend/internal/logger"
)

// ErrEmptyText is returned by classifiers asked to label blank input.
var ErrEmptyText = errors.New("empty text")

// Classifier produces a raw emotion label for text. Implementations may fail.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Config 控制情绪分析服务的行为。
type Config struct {
	Timeout time.Duration
}

// Service wraps a Classifier so that callers always receive a label from the taxonomy.
type Service struct {
	classifier Classifier
	timeout    time.Duration
	log        zerolog.Logger
}

// NewService creates the emotion service. A nil classifier falls back to the keyword heuristic.
func NewService(classifier Classifier, cfg Config) *Service {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		classifier: classifier,
		timeout:    timeout,
		log:        logger.Component("emotion"),
	}
}

// Detect labels text. It never fails: blank input, classifier errors, timeouts, panics and
// labels outside the taxonomy all yield Neutral.
func (s *Service) Detect(ctx context.Context, text string) (label analysis.Label) {
	if strings.TrimSpace(text) == "" {
		return analysis.Neutral
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("classifier panicked, use neutral")
			label = analysis.Neutral
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.log.Warn().Err(err).Msg("classifier failed, use neutral")
		return analysis.Neutral
	}
	if !analysis.Known(raw) {
		s.log.Debug().Str("label", raw).Msg("label outside taxonomy, use neutral")
	}
	return analysis.Normalize(raw)
}

// KeywordClassifier is the model-free heuristic backend.
type KeywordClassifier struct{}

// Classify implements Classifier.
func (KeywordClassifier) Classify(_ context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return string(analysis.Analyze(text)), nil
}

// runWithContext runs a blocking, context-unaware call and gives up when ctx ends.
func runWithContext(ctx context.Context, fn func() (string, error)) (string, error) {
	type result struct {
		label string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		label, err := fn()
		done <- result{label: label, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.label, res.err
	}
}
