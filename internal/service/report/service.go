package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
)

// MaxInputRunes is how much extracted text is handed to the summarizer.
const MaxInputRunes = 2000

// NoTextNotice is returned when the document has no extractable text.
const NoTextNotice = "No readable text found in the PDF."

// Outcome tells callers how a summarization ended.
type Outcome string

const (
	OutcomeSummarized Outcome = "summarized"
	OutcomeEmpty      Outcome = "empty"
	OutcomeFailed     Outcome = "failed"
)

// Summary is the displayable result of summarizing a report.
type Summary struct {
	Text    string  `json:"summary"`
	Outcome Outcome `json:"outcome"`
}

// Config 控制报告摘要服务的行为。
type Config struct {
	Timeout time.Duration
}

// Service turns uploaded report documents into short summaries.
type Service struct {
	extractor  TextExtractor
	summarizer Summarizer
	timeout    time.Duration
	log        zerolog.Logger
}

// NewService creates the report service. A nil extractor reads PDFs.
func NewService(extractor TextExtractor, summarizer Summarizer, cfg Config) *Service {
	if extractor == nil {
		extractor = PDFExtractor{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		extractor:  extractor,
		summarizer: summarizer,
		timeout:    timeout,
		log:        logger.Component("report"),
	}
}

// Summarize extracts the text of document and summarizes its first MaxInputRunes characters.
// It never returns an error; failures are reported in the Summary text and outcome.
func (s *Service) Summarize(ctx context.Context, document []byte) Summary {
	text, err := s.extractor.Extract(document)
	if err != nil {
		s.log.Warn().Err(err).Int("bytes", len(document)).Msg("text extraction failed")
		return Summary{Text: fmt.Sprintf("Error processing file: %v", err), Outcome: OutcomeFailed}
	}
	if text == "" {
		return Summary{Text: NoTextNotice, Outcome: OutcomeEmpty}
	}

	input := truncateRunes(text, MaxInputRunes)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.summarize(ctx, input)
	if err != nil {
		s.log.Warn().Err(err).Msg("summarization failed")
		return Summary{Text: fmt.Sprintf("Error during summarization: %v", err), Outcome: OutcomeFailed}
	}

	s.log.Info().Int("input", len([]rune(input))).Int("summary", len(summary)).Msg("report summarized")
	return Summary{Text: summary, Outcome: OutcomeSummarized}
}

func (s *Service) summarize(ctx context.Context, input string) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summarizer panic: %v", r)
		}
	}()
	if s.summarizer == nil {
		return "", fmt.Errorf("no summarizer configured")
	}

	summary, err = s.summarizer.Summarize(ctx, input, MinSummaryWords, MaxSummaryWords)
	if err != nil {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return summary, nil
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
