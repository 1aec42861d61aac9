package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-advisor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newConversation(id, userID string) *models.Conversation {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Conversation{
		ID:        id,
		UserID:    userID,
		Language:  models.LanguageEnglish,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testLoans() []models.LoanProduct {
	maxAge := 65
	return []models.LoanProduct{
		{
			ID:       "home-1",
			LoanType: models.LoanTypeHome,
			Name:     models.LocalizedText{EN: "Home Loan", HI: "होम लोन"},
			EligibilityCriteria: models.LoanCriteria{
				MinAge: 21, MaxAge: &maxAge, MinIncome: 30000, MinCreditScore: 700,
			},
			IsActive: true,
		},
		{
			ID:       "gold-1",
			LoanType: models.LoanTypeGold,
			Name:     models.LocalizedText{EN: "Gold Loan"},
			IsActive: false,
		},
	}
}

// ==========================
// Conversation Tests
// ==========================

func TestMemoryConversations_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryConversations()

	_, err := s.FindActive(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, newConversation("c1", "u1")))
	require.NoError(t, s.AppendMessage(ctx, "c1", models.Message{Role: models.RoleUser, Content: "hello"}))
	require.NoError(t, s.AppendMessage(ctx, "c1", models.Message{Role: models.RoleAssistant, Content: "hi"}))
	require.NoError(t, s.SaveContext(ctx, "c1", models.Context{CurrentIntent: "greeting", UserQueries: []string{"hello"}}))

	conv, err := s.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, conv.IsActive)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "hello", conv.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "greeting", conv.Context.CurrentIntent)
	assert.Equal(t, []string{"hello"}, conv.Context.UserQueries)
}

func TestMemoryConversations_CreateDeactivatesPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryConversations()

	require.NoError(t, s.Create(ctx, newConversation("c1", "u1")))
	require.NoError(t, s.Create(ctx, newConversation("c2", "u1")))

	active, err := s.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c2", active.ID)

	old, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	assert.Error(t, s.Create(ctx, newConversation("c2", "u2")), "duplicate id must be rejected")
}

func TestMemoryConversations_Deactivate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryConversations()

	assert.NoError(t, s.Deactivate(ctx, "nobody"))

	require.NoError(t, s.Create(ctx, newConversation("c1", "u1")))
	require.NoError(t, s.Deactivate(ctx, "u1"))

	_, err := s.FindActive(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	conv, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, conv.IsActive)
}

func TestMemoryConversations_UnknownConversation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryConversations()

	assert.ErrorIs(t, s.AppendMessage(ctx, "missing", models.Message{}), ErrNotFound)
	assert.ErrorIs(t, s.SaveContext(ctx, "missing", models.Context{}), ErrNotFound)
}

func TestMemoryConversations_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryConversations()
	require.NoError(t, s.Create(ctx, newConversation("c1", "u1")))
	require.NoError(t, s.AppendMessage(ctx, "c1", models.Message{Content: "one"}))

	conv, err := s.FindActive(ctx, "u1")
	require.NoError(t, err)
	conv.Messages[0].Content = "mutated"
	conv.Context.UserQueries = append(conv.Context.UserQueries, "leak")

	again, err := s.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "one", again.Messages[0].Content)
	assert.Empty(t, again.Context.UserQueries)
}

// ==========================
// Catalog Tests
// ==========================

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(testLoans())

	active, err := c.ActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "home-1", active[0].ID)

	inactive, err := c.GetLoan(ctx, "gold-1")
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)

	_, err = c.GetLoan(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
