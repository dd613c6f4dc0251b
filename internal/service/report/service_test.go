package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/medibot/backend/internal/testutil"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract([]byte) (string, error) { return s.text, s.err }

type recordingSummarizer struct {
	reply    string
	err      error
	delay    time.Duration
	input    string
	minWords int
	maxWords int
}

func (r *recordingSummarizer) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	r.input, r.minWords, r.maxWords = text, minWords, maxWords
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.reply, r.err
}

func TestSummarizeTruncatesInput(t *testing.T) {
	summarizer := &recordingSummarizer{reply: "Blood counts are normal."}
	svc := NewService(stubExtractor{text: strings.Repeat("é", 5000)}, summarizer, Config{})

	summary := svc.Summarize(context.Background(), []byte("%PDF"))
	assert.Equal(t, OutcomeSummarized, summary.Outcome)
	assert.Equal(t, "Blood counts are normal.", summary.Text)
	assert.Equal(t, MaxInputRunes, utf8.RuneCountInString(summarizer.input))
	assert.Equal(t, MinSummaryWords, summarizer.minWords)
	assert.Equal(t, MaxSummaryWords, summarizer.maxWords)
}

func TestSummarizeEmptyText(t *testing.T) {
	summarizer := &recordingSummarizer{reply: "unused"}
	svc := NewService(stubExtractor{text: ""}, summarizer, Config{})

	summary := svc.Summarize(context.Background(), []byte("%PDF"))
	assert.Equal(t, Summary{Text: NoTextNotice, Outcome: OutcomeEmpty}, summary)
	assert.Empty(t, summarizer.input)
}

func TestSummarizeExtractionFailure(t *testing.T) {
	svc := NewService(stubExtractor{err: errors.New("not a pdf")}, &recordingSummarizer{}, Config{})

	summary := svc.Summarize(context.Background(), []byte("hello"))
	assert.Equal(t, OutcomeFailed, summary.Outcome)
	assert.Equal(t, "Error processing file: not a pdf", summary.Text)
}

func TestSummarizeBackendFailure(t *testing.T) {
	svc := NewService(stubExtractor{text: "Hemoglobin 13.5 g/dL"}, &recordingSummarizer{err: errors.New("model offline")}, Config{})

	summary := svc.Summarize(context.Background(), []byte("%PDF"))
	assert.Equal(t, OutcomeFailed, summary.Outcome)
	assert.Equal(t, "Error during summarization: model offline", summary.Text)
}

func TestSummarizeTimeout(t *testing.T) {
	svc := NewService(stubExtractor{text: "report"}, &recordingSummarizer{reply: "late", delay: time.Second}, Config{Timeout: 20 * time.Millisecond})

	summary := svc.Summarize(context.Background(), []byte("%PDF"))
	assert.Equal(t, OutcomeFailed, summary.Outcome)
	assert.True(t, strings.HasPrefix(summary.Text, "Error during summarization: "))
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	_, err := PDFExtractor{}.Extract([]byte("definitely not a pdf"))
	require.Error(t, err)

	_, err = PDFExtractor{}.Extract(nil)
	require.ErrorIs(t, err, ErrEmptyDocument)

	svc := NewService(nil, &recordingSummarizer{}, Config{})
	summary := svc.Summarize(context.Background(), []byte("definitely not a pdf"))
	assert.Equal(t, OutcomeFailed, summary.Outcome)
	assert.True(t, strings.HasPrefix(summary.Text, "Error processing file: "))
}

func TestLLMSummarizerPromptAndClamp(t *testing.T) {
	chatModel := &testutil.ChatModel{Reply: strings.TrimSpace(strings.Repeat("word ", 250))}
	summarizer, err := NewLLMSummarizer(context.Background(), chatModel)
	require.NoError(t, err)

	summary, err := summarizer.Summarize(context.Background(), "Cholesterol 240 mg/dL", MinSummaryWords, MaxSummaryWords)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(summary), MaxSummaryWords)
	assert.Contains(t, chatModel.LastSystemPrompt(), "between 50 and 200 words")
	assert.Equal(t, "Cholesterol 240 mg/dL", chatModel.LastUserPrompt())
}
