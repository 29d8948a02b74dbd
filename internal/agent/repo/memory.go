package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/nba-agent/server/internal/agent/model"
)

type memoryConversation struct {
	messages  []*schema.Message
	expiresAt time.Time
}

// MemoryConversationRepository is the in-process store used when Redis is not configured.
// Idle conversations expire after ttl; zero keeps them forever.
type MemoryConversationRepository struct {
	mu            sync.Mutex
	ttl           time.Duration
	now           func() time.Time
	conversations map[string]*memoryConversation
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		ttl:           ttl,
		now:           time.Now,
		conversations: make(map[string]*memoryConversation),
	}
}

// get returns the live conversation or nil, dropping it when expired. Caller holds mu.
func (r *MemoryConversationRepository) get(conversationID string) *memoryConversation {
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil
	}
	if r.ttl > 0 && !r.now().Before(c.expiresAt) {
		delete(r.conversations, conversationID)
		return nil
	}
	return c
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.get(conversationID)
	if c == nil {
		c = &memoryConversation{}
		r.conversations[conversationID] = c
	}
	c.messages = append(c.messages, message)
	c.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := []*schema.Message{}
	if c := r.get(conversationID); c != nil {
		msgs = make([]*schema.Message, len(c.messages))
		copy(msgs, c.messages)
	}
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.get(conversationID); c != nil {
		return len(c.messages), nil
	}
	return 0, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
