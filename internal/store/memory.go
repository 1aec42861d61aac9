package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"loan-advisor/internal/models"
)

// MemoryConversations keeps conversations in process memory.
type MemoryConversations struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	active        map[string]string // userID -> conversationID
	now           func() time.Time
}

func NewMemoryConversations() *MemoryConversations {
	return &MemoryConversations{
		conversations: make(map[string]*models.Conversation),
		active:        make(map[string]string),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryConversations) FindActive(_ context.Context, userID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(s.conversations[id]), nil
}

func (s *MemoryConversations) Create(_ context.Context, conv *models.Conversation) error {
	if conv.ID == "" || conv.UserID == "" {
		return fmt.Errorf("conversation id and user id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.ID]; exists {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	if prev, ok := s.active[conv.UserID]; ok {
		s.conversations[prev].IsActive = false
		s.conversations[prev].UpdatedAt = s.now()
	}

	stored := copyConversation(conv)
	stored.IsActive = true
	s.conversations[conv.ID] = stored
	s.active[conv.UserID] = conv.ID
	return nil
}

func (s *MemoryConversations) AppendMessage(_ context.Context, conversationID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = s.now()
	return nil
}

func (s *MemoryConversations) SaveContext(_ context.Context, conversationID string, c models.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.Context = c.Clone()
	conv.UpdatedAt = s.now()
	return nil
}

func (s *MemoryConversations) Deactivate(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[userID]
	if !ok {
		return nil
	}
	s.conversations[id].IsActive = false
	s.conversations[id].UpdatedAt = s.now()
	delete(s.active, userID)
	return nil
}

// Get returns any conversation by id, active or not.
func (s *MemoryConversations) Get(_ context.Context, conversationID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(conv), nil
}

func copyConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Messages = append([]models.Message{}, c.Messages...)
	out.Context = c.Context.Clone()
	return &out
}

// MemoryCatalog serves a fixed set of products.
type MemoryCatalog struct {
	loans []models.LoanProduct
}

func NewMemoryCatalog(loans []models.LoanProduct) *MemoryCatalog {
	return &MemoryCatalog{loans: append([]models.LoanProduct(nil), loans...)}
}

func (c *MemoryCatalog) ActiveLoans(_ context.Context) ([]models.LoanProduct, error) {
	out := make([]models.LoanProduct, 0, len(c.loans))
	for _, loan := range c.loans {
		if loan.IsActive {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) GetLoan(_ context.Context, id string) (*models.LoanProduct, error) {
	for i := range c.loans {
		if c.loans[i].ID == id {
			loan := c.loans[i]
			return &loan, nil
		}
	}
	return nil, ErrNotFound
}
