// Package ai adapts the external chat model: it owns model construction,
// tool binding and the instruction text, and exposes a single streaming
// entry point per model turn.
package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/todo-tavern/backend/internal/config"
)

// Service wraps the configured chat model with the todo tool schemas bound.
type Service struct {
	chatModel model.ChatModel
}

// NewService creates the model adapter and binds the tool schemas once.
func NewService(ctx context.Context, cfg config.AIConfig, toolInfos []*schema.ToolInfo) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	if len(toolInfos) > 0 {
		if err := chatModel.BindTools(toolInfos); err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	return &Service{chatModel: chatModel}, nil
}

// Stream opens one model turn over the instruction text plus the supplied
// model-form transcript.
func (s *Service) Stream(ctx context.Context, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	withSystem := make([]*schema.Message, 0, len(messages)+1)
	withSystem = append(withSystem, schema.SystemMessage(systemPrompt))
	withSystem = append(withSystem, messages...)

	stream, err := s.chatModel.Stream(ctx, withSystem)
	if err != nil {
		return nil, fmt.Errorf("failed to stream model output: %w", err)
	}
	return stream, nil
}
