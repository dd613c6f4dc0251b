package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/model/chat"
	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
	"github.com/zhouzirui/medibot/backend/internal/service/retrieval"
)

// Service generates answers grounded in retrieved passages.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	log       zerolog.Logger
}

// NewService compiles the generation chain on top of chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(medicalSystemPrompt),
		schema.UserMessage("{input}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile answer chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		log:       logger.Component("ai"),
	}, nil
}

// Generate answers query using only the supplied passages as context.
func (s *Service) Generate(ctx context.Context, query string, passages []knowledge.Passage) (chat.Answer, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"context": retrieval.FormatContext(passages),
		"input":   query,
	})
	if err != nil {
		return chat.Answer{}, fmt.Errorf("failed to run answer chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return chat.Answer{}, fmt.Errorf("model returned an empty answer")
	}

	s.log.Debug().Int("passages", len(passages)).Int("length", len(response.Content)).Msg("generated answer")
	return chat.Answer{Text: strings.TrimSpace(response.Content)}, nil
}

// ChatModel 返回底层的聊天模型
func (s *Service) ChatModel() model.ChatModel {
	return s.chatModel
}

// ErrUnavailable is returned by Unavailable.
var ErrUnavailable = errors.New("no chat model configured")

// Unavailable stands in for Service when no chat model is configured, so every answer fails.
type Unavailable struct{}

// Generate implements the generator contract and always fails.
func (Unavailable) Generate(context.Context, string, []knowledge.Passage) (chat.Answer, error) {
	return chat.Answer{}, ErrUnavailable
}
