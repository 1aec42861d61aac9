// internal/workers/advisory/advisory-turn/models.go
package advisoryturn

import (
	"loan-advisor/internal/common/validation"
	"loan-advisor/internal/models"
)

// Output flattens a TurnResult into process variables.
type Output struct {
	ConversationID    string         `json:"conversationId"`
	AdvisorMessage    string         `json:"advisorMessage"`
	CurrentIntent     string         `json:"currentIntent,omitempty"`
	Context           models.Context `json:"conversationContext"`
	EligibilityStatus string         `json:"eligibilityStatus,omitempty"`
	EligibleLoanID    string         `json:"eligibleLoanId,omitempty"`
	IneligibleReason  string         `json:"ineligibleReason,omitempty"`
}

func newOutput(result *models.TurnResult) *Output {
	out := &Output{
		ConversationID: result.ConversationID,
		AdvisorMessage: result.Content,
		CurrentIntent:  result.Context.CurrentIntent,
		Context:        result.Context,
	}
	if result.Outcome != nil {
		out.EligibilityStatus = result.Outcome.Status
		out.EligibleLoanID = result.Outcome.LoanID
		out.IneligibleReason = result.Outcome.Reason
	}
	return out
}

// GetInputSchema requires userId here; job variables have no header fallback.
func GetInputSchema() validation.JSONSchema {
	schema := validation.TurnRequestSchema()
	schema.Required = []string{"userId", "text"}
	return schema
}
