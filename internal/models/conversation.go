package models

import (
	"strings"
	"time"
)

// Language is one of the closed set of supported conversation languages.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageTamil   Language = "ta"
)

// SupportedLanguages lists every language the advisor can answer in.
var SupportedLanguages = []Language{LanguageEnglish, LanguageHindi, LanguageTamil}

// IsSupported reports whether l is in the closed language set.
func (l Language) IsSupported() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLanguage normalizes a client supplied code. Unknown or empty codes
// resolve to fallback.
func ParseLanguage(code string, fallback Language) Language {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if l.IsSupported() {
		return l
	}
	return fallback
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsVoice   bool      `json:"isVoice"`
}

// Intent markers stored in Context.CurrentIntent.
const (
	IntentGreetingStage = "greeting_stage"
	IntentAIHandled     = "ai_handled"
)

// Context is the per-conversation state carried between turns.
type Context struct {
	CurrentIntent  string   `json:"currentIntent,omitempty"`
	DiscussedLoans []string `json:"discussedLoans"`
	UserQueries    []string `json:"userQueries"`
}

// Clone returns a deep copy so callers can mutate slices freely.
func (c Context) Clone() Context {
	out := Context{CurrentIntent: c.CurrentIntent}
	out.DiscussedLoans = append([]string{}, c.DiscussedLoans...)
	out.UserQueries = append([]string{}, c.UserQueries...)
	return out
}

// IsZero reports whether nothing has been recorded yet.
func (c Context) IsZero() bool {
	return c.CurrentIntent == "" && len(c.DiscussedLoans) == 0 && len(c.UserQueries) == 0
}

// AddDiscussedLoan appends loanID unless already present.
func (c *Context) AddDiscussedLoan(loanID string) {
	for _, id := range c.DiscussedLoans {
		if id == loanID {
			return
		}
	}
	c.DiscussedLoans = append(c.DiscussedLoans, loanID)
}

// Conversation is a user's dialogue with the advisor. At most one
// conversation per user is active at a time.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Language  Language  `json:"language"`
	Messages  []Message `json:"messages"`
	Context   Context   `json:"context"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
