// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is a scripted eino chat model that records every prompt it receives.
type ChatModel struct {
	mu    sync.Mutex
	calls [][]*schema.Message

	// Respond computes the reply. When nil, Reply and Err are returned.
	Respond func(input []*schema.Message) (string, error)
	Reply   string
	Err     error
}

var _ model.ChatModel = (*ChatModel)(nil)

// Generate implements model.ChatModel.
func (m *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	if m.Respond != nil {
		content, err := m.Respond(input)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Reply, nil), nil
}

// Stream implements model.ChatModel by emitting the whole reply as one chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools implements model.ChatModel.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

// Calls returns the prompts received so far.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// LastSystemPrompt returns the system message of the most recent call.
func (m *ChatModel) LastSystemPrompt() string {
	calls := m.Calls()
	if len(calls) == 0 {
		return ""
	}
	for _, msg := range calls[len(calls)-1] {
		if msg.Role == schema.System {
			return msg.Content
		}
	}
	return ""
}

// LastUserPrompt returns the last user message of the most recent call.
func (m *ChatModel) LastUserPrompt() string {
	calls := m.Calls()
	if len(calls) == 0 {
		return ""
	}
	last := calls[len(calls)-1]
	for i := len(last) - 1; i >= 0; i-- {
		if last[i].Role == schema.User {
			return last[i].Content
		}
	}
	return ""
}
