package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// LLMClassifier asks a chat model for the emotion label through an eino chain.
type LLMClassifier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMClassifier compiles the classification chain on top of chatModel.
func NewLLMClassifier(ctx context.Context, chatModel model.ChatModel) (*LLMClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for the llm emotion classifier")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}
	return &LLMClassifier{chain: runnable}, nil
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	msg, err := c.chain.Invoke(ctx, map[string]any{"message": strings.TrimSpace(text)})
	if err != nil {
		return "", fmt.Errorf("emotion classifier invoke failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("emotion classifier returned empty output")
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		return "", fmt.Errorf("emotion classifier output parse failed: %w", err)
	}
	return payload.Emotion, nil
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

type classifierPayload struct {
	Emotion string `json:"emotion"`
}

const emotionSystemPrompt = "You classify the emotion expressed in a patient's message. " +
	"Answer with a single JSON object and nothing else: {{\"emotion\": \"<label>\"}}, " +
	"where <label> is exactly one of sadness, joy, fear, anger, neutral, surprise, disgust, love."

const emotionUserPrompt = "Patient message:\n{message}"
