package conversations

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/model"
)

const defaultMaxTurns = 10

// MessagesManager persists the user and assistant side of each conversation and
// builds the bounded context fed to the response model.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         maxTurns,
	}
}

// SaveQuery stores the user's question.
func (cm *MessagesManager) SaveQuery(ctx context.Context, conversationID string, query string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is empty")
	}
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(query))
}

// BuildResponseContext returns the system prompt followed by the last maxTurns
// question/answer pairs, ending with the current question.
func (cm *MessagesManager) BuildResponseContext(ctx context.Context, conversationID string, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	recent := trimTail(history.Messages, cm.maxTurns*2)
	messages := make([]*schema.Message, 0, len(recent)+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for _, m := range recent {
		if m == nil || m.Content == "" {
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID string, content string) error {
	assistantMsg := schema.AssistantMessage(content, nil)
	return cm.conversationRepo.AddMessage(ctx, conversationID, assistantMsg)
}

// Reset forgets the whole conversation.
func (cm *MessagesManager) Reset(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.ClearHistory(ctx, conversationID)
}

func trimTail(messages []*schema.Message, max int) []*schema.Message {
	source := messages
	if len(messages) > max {
		source = messages[len(messages)-max:]
	}
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
