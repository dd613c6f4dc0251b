package emotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysis "github.com/zhouzirui/medibot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/medibot/backend/internal/testutil"
)

type stubClassifier struct {
	label string
	err   error
	delay time.Duration
	panic bool
}

func (s stubClassifier) Classify(ctx context.Context, _ string) (string, error) {
	if s.panic {
		panic("model exploded")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.label, s.err
}

func TestDetectReturnsClassifierLabel(t *testing.T) {
	svc := NewService(stubClassifier{label: "Sadness"}, Config{})
	assert.Equal(t, analysis.Sadness, svc.Detect(context.Background(), "I feel so hopeless about my diagnosis"))
}

func TestDetectFailuresYieldNeutral(t *testing.T) {
	cases := map[string]Classifier{
		"error":   stubClassifier{err: errors.New("model unavailable")},
		"unknown": stubClassifier{label: "optimism"},
		"empty":   stubClassifier{label: ""},
		"panic":   stubClassifier{panic: true},
		"timeout": stubClassifier{label: "joy", delay: time.Second},
	}

	for name, classifier := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(classifier, Config{Timeout: 20 * time.Millisecond})
			assert.Equal(t, analysis.Neutral, svc.Detect(context.Background(), "some text"))
		})
	}
}

func TestDetectBlankTextSkipsClassifier(t *testing.T) {
	svc := NewService(stubClassifier{panic: true}, Config{})
	assert.Equal(t, analysis.Neutral, svc.Detect(context.Background(), "  \n"))
}

func TestDetectDefaultsToKeywordHeuristic(t *testing.T) {
	svc := NewService(nil, Config{})
	assert.Equal(t, analysis.Sadness, svc.Detect(context.Background(), "I feel so hopeless about my diagnosis"))
}

func TestLLMClassifierParsesJSON(t *testing.T) {
	chatModel := &testutil.ChatModel{Reply: "Sure: {\"emotion\": \"fear\"}"}
	classifier, err := NewLLMClassifier(context.Background(), chatModel)
	require.NoError(t, err)

	label, err := classifier.Classify(context.Background(), "I'm scared of the surgery")
	require.NoError(t, err)
	assert.Equal(t, "fear", label)
	assert.Contains(t, chatModel.LastUserPrompt(), "I'm scared of the surgery")
}

func TestLLMClassifierGarbageFallsBackToNeutral(t *testing.T) {
	chatModel := &testutil.ChatModel{Reply: "I think the patient is sad"}
	classifier, err := NewLLMClassifier(context.Background(), chatModel)
	require.NoError(t, err)

	_, err = classifier.Classify(context.Background(), "hello")
	require.Error(t, err)

	svc := NewService(classifier, Config{})
	assert.Equal(t, analysis.Neutral, svc.Detect(context.Background(), "hello"))
}

func TestNewLLMClassifierRequiresModel(t *testing.T) {
	_, err := NewLLMClassifier(context.Background(), nil)
	require.Error(t, err)
}
