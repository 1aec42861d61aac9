// Package store defines the persistence contracts used by the advisor and
// their adapters: in-memory, PostgreSQL, Redis and Elasticsearch.
package store

import (
	"context"
	"errors"

	"loan-advisor/internal/models"
)

// ErrNotFound is returned when a conversation or loan does not exist.
var ErrNotFound = errors.New("NOT_FOUND")

// ConversationStore persists conversations. Implementations keep at most one
// active conversation per user: Create deactivates any previous one.
type ConversationStore interface {
	// FindActive returns the user's active conversation or ErrNotFound.
	FindActive(ctx context.Context, userID string) (*models.Conversation, error)
	Create(ctx context.Context, conv *models.Conversation) error
	AppendMessage(ctx context.Context, conversationID string, msg models.Message) error
	SaveContext(ctx context.Context, conversationID string, c models.Context) error
	// Deactivate soft-closes the user's active conversation. It is a no-op
	// when there is none.
	Deactivate(ctx context.Context, userID string) error
}

// Catalog is a read-only view of loan products.
type Catalog interface {
	ActiveLoans(ctx context.Context) ([]models.LoanProduct, error)
	// GetLoan returns a product by id, active or not, or ErrNotFound.
	GetLoan(ctx context.Context, id string) (*models.LoanProduct, error)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}
