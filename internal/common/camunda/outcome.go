package camunda

import (
	"context"
	"time"

	"loan-advisor/internal/models"
)

// DefaultOutcomeMessage is the BPMN message name correlated by outcome events.
const DefaultOutcomeMessage = "eligibility-outcome"

type messagePublisher interface {
	PublishMessage(ctx context.Context, messageName, correlationKey string, variables map[string]interface{}) error
}

// OutcomeMessenger forwards eligibility outcomes to waiting process
// instances. The correlation key is the user id.
type OutcomeMessenger struct {
	publisher   messagePublisher
	messageName string
}

func NewOutcomeMessenger(client *Client, messageName string) *OutcomeMessenger {
	if messageName == "" {
		messageName = DefaultOutcomeMessage
	}
	return &OutcomeMessenger{publisher: client, messageName: messageName}
}

func (m *OutcomeMessenger) PublishOutcome(ctx context.Context, event models.OutcomeEvent) error {
	return m.publisher.PublishMessage(ctx, m.messageName, event.UserID, map[string]interface{}{
		"conversationId":    event.ConversationID,
		"language":          string(event.Language),
		"eligibilityStatus": event.Status,
		"eligibleLoanId":    event.LoanID,
		"ineligibleReason":  event.Reason,
		"outcomeOccurredAt": event.OccurredAt.Format(time.RFC3339),
	})
}
