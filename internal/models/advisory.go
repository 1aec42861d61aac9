package models

import "time"

// TurnRequest is one user utterance submitted to the advisor.
type TurnRequest struct {
	UserID              string   `json:"userId"`
	Text                string   `json:"text"`
	Language            string   `json:"language,omitempty"`
	IsVoice             bool     `json:"isVoice,omitempty"`
	ConversationContext *Context `json:"conversationContext,omitempty"`
}

// Outcome is a decoded eligibility marker that passed catalog validation.
type Outcome struct {
	Status string `json:"status"`
	LoanID string `json:"loanId,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// TurnResult is returned for every successfully persisted turn.
type TurnResult struct {
	Content        string   `json:"message"`
	ConversationID string   `json:"conversationId"`
	Context        Context  `json:"context"`
	Outcome        *Outcome `json:"outcome,omitempty"`
}

// OutcomeEvent is published when a turn produces a validated outcome.
type OutcomeEvent struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	Language       Language  `json:"language"`
	Status         string    `json:"status"`
	LoanID         string    `json:"loanId,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}
