package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const (
	// MinSummaryWords and MaxSummaryWords bound the length of a summary.
	MinSummaryWords = 50
	MaxSummaryWords = 200
)

// Summarizer condenses text into a summary of roughly minWords to maxWords words.
type Summarizer interface {
	Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error)
}

// LLMSummarizer summarizes with a chat model through an eino chain.
type LLMSummarizer struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMSummarizer compiles the summarization chain on top of chatModel.
func NewLLMSummarizer(ctx context.Context, chatModel model.ChatModel) (*LLMSummarizer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for the summarizer")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage("{report}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}
	return &LLMSummarizer{chain: runnable}, nil
}

// Summarize implements Summarizer.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	msg, err := s.chain.Invoke(ctx, map[string]any{
		"report":    text,
		"min_words": minWords,
		"max_words": maxWords,
	})
	if err != nil {
		return "", err
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("model returned an empty summary")
	}
	return clampWords(strings.TrimSpace(msg.Content), maxWords), nil
}

// clampWords cuts text after maxWords words.
func clampWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}

const summarySystemPrompt = "You summarize medical reports for patients. " +
	"Write a plain-language summary of the report provided by the user, between {min_words} and {max_words} words. " +
	"Keep diagnoses, key measurements and recommended follow-ups. Do not add facts that are not in the report. " +
	"Reply with the summary only."
