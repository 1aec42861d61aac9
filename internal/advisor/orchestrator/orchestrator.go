// Package orchestrator drives one advisory turn: it loads or opens the
// user's conversation, grounds the generative backend in the loan catalog,
// falls back to the keyword matcher when the backend cannot answer, and
// persists both sides of the exchange.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"loan-advisor/internal/advisor/fallback"
	"loan-advisor/internal/advisor/llm"
	"loan-advisor/internal/advisor/tags"
	commonerrors "loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/metrics"
	"loan-advisor/internal/models"
	"loan-advisor/internal/store"
)

const (
	DefaultBackendTimeout = 20 * time.Second
	DefaultMaxTokens      = 1024
	DefaultTemperature    = 0.5
)

type Config struct {
	BackendTimeout  time.Duration
	MaxTokens       int
	Temperature     float64
	DefaultLanguage models.Language
}

// OutcomePublisher receives validated eligibility outcomes.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event models.OutcomeEvent) error
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Orchestrator struct {
	config        Config
	backend       llm.Backend
	conversations store.ConversationStore
	catalog       store.Catalog
	matcher       *fallback.Matcher
	publishers    []OutcomePublisher
	logger        Logger
	now           func() time.Time
	newID         func() string
}

func New(
	cfg Config,
	backend llm.Backend,
	conversations store.ConversationStore,
	catalog store.Catalog,
	matcher *fallback.Matcher,
	log Logger,
) *Orchestrator {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = DefaultBackendTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if !cfg.DefaultLanguage.IsSupported() {
		cfg.DefaultLanguage = models.LanguageEnglish
	}

	return &Orchestrator{
		config:        cfg,
		backend:       backend,
		conversations: conversations,
		catalog:       catalog,
		matcher:       matcher,
		logger:        log,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// WithPublisher adds outcome publishers. Each is called in order; a failure
// in one does not stop the others.
func (o *Orchestrator) WithPublisher(p ...OutcomePublisher) *Orchestrator {
	o.publishers = append(o.publishers, p...)
	return o
}

// reply is what one turn produced before persistence.
type reply struct {
	content string
	path    string
	context models.Context
	loans   []models.LoanProduct
}

// HandleTurn processes one user utterance. Backend failures are absorbed by
// the fallback path; only validation and persistence errors are returned.
func (o *Orchestrator) HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error) {
	start := time.Now()
	defer func() {
		metrics.AdvisorTurnDuration.Observe(time.Since(start).Seconds())
	}()

	text := strings.TrimSpace(req.Text)
	if req.UserID == "" {
		return nil, commonerrors.NewValidationError("userId is required")
	}
	if text == "" {
		return nil, commonerrors.NewValidationError("text is required")
	}

	conv, err := o.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}
	lang := models.ParseLanguage(req.Language, conv.Language)

	userMsg := models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: o.now(),
		IsVoice:   req.IsVoice,
	}
	if err := o.conversations.AppendMessage(ctx, conv.ID, userMsg); err != nil {
		return nil, commonerrors.NewPersistenceError("append user message", err)
	}
	conv.Messages = append(conv.Messages, userMsg)

	r := o.respond(ctx, conv, lang, text)
	metrics.AdvisorTurns.WithLabelValues(r.path).Inc()

	parsed := tags.Parse(r.content)
	outcome := o.validateOutcome(ctx, conv.ID, parsed.Tag, r.loans)
	if outcome != nil && outcome.LoanID != "" {
		r.context.AddDiscussedLoan(outcome.LoanID)
	}

	assistantMsg := models.Message{
		Role:      models.RoleAssistant,
		Content:   r.content,
		Timestamp: o.now(),
	}
	if err := o.conversations.AppendMessage(ctx, conv.ID, assistantMsg); err != nil {
		return nil, commonerrors.NewPersistenceError("append assistant message", err)
	}
	if err := o.conversations.SaveContext(ctx, conv.ID, r.context); err != nil {
		return nil, commonerrors.NewPersistenceError("save context", err)
	}

	if outcome != nil {
		o.publish(ctx, conv, lang, outcome)
	}

	o.logger.Info("advisory turn completed", map[string]interface{}{
		"conversation_id": conv.ID,
		"user_id":         conv.UserID,
		"language":        string(lang),
		"path":            r.path,
		"intent":          r.context.CurrentIntent,
		"has_outcome":     outcome != nil,
	})

	return &models.TurnResult{
		Content:        r.content,
		ConversationID: conv.ID,
		Context:        r.context,
		Outcome:        outcome,
	}, nil
}

// History returns the transcript of the user's active conversation, or an
// empty slice when there is none.
func (o *Orchestrator) History(ctx context.Context, userID string) ([]models.Message, error) {
	if userID == "" {
		return nil, commonerrors.NewValidationError("userId is required")
	}
	conv, err := o.conversations.FindActive(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, commonerrors.NewPersistenceError("find active conversation", err)
	}
	if conv.Messages == nil {
		return []models.Message{}, nil
	}
	return conv.Messages, nil
}

// Clear soft-closes the user's active conversation. The next turn opens a
// new one.
func (o *Orchestrator) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return commonerrors.NewValidationError("userId is required")
	}
	if err := o.conversations.Deactivate(ctx, userID); err != nil {
		return commonerrors.NewPersistenceError("deactivate conversation", err)
	}
	o.logger.Info("conversation cleared", map[string]interface{}{"user_id": userID})
	return nil
}

func (o *Orchestrator) resolveConversation(ctx context.Context, req models.TurnRequest) (*models.Conversation, error) {
	conv, err := o.conversations.FindActive(ctx, req.UserID)
	switch {
	case err == nil:
		if conv.Context.IsZero() && req.ConversationContext != nil {
			conv.Context = req.ConversationContext.Clone()
		}
		return conv, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, commonerrors.NewPersistenceError("find active conversation", err)
	}

	now := o.now()
	conv = &models.Conversation{
		ID:        o.newID(),
		UserID:    req.UserID,
		Language:  models.ParseLanguage(req.Language, o.config.DefaultLanguage),
		Messages:  []models.Message{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ConversationContext != nil {
		conv.Context = req.ConversationContext.Clone()
	} else {
		conv.Context = models.Context{}.Clone()
	}

	if err := o.conversations.Create(ctx, conv); err != nil {
		return nil, commonerrors.NewPersistenceError("create conversation", err)
	}
	o.logger.Info("conversation started", map[string]interface{}{
		"conversation_id": conv.ID,
		"user_id":         conv.UserID,
		"language":        string(conv.Language),
	})
	return conv, nil
}

// respond asks the backend once and falls back to the matcher on any
// failure, including an unreadable catalog.
func (o *Orchestrator) respond(ctx context.Context, conv *models.Conversation, lang models.Language, text string) reply {
	loans, err := o.catalog.ActiveLoans(ctx)
	if err != nil {
		o.recordBackendFailure(conv.ID, "catalog", err)
		return o.fallback(conv, lang, text, nil)
	}

	req := &llm.Request{
		System:      BuildDirective(lang, loans, conv.Context),
		Messages:    historyFor(conv.Messages),
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.BackendTimeout)
	defer cancel()

	content, err := o.backend.Complete(callCtx, req)
	if err == nil && strings.TrimSpace(content) == "" {
		err = llm.ErrBackendUnavailable
	}
	if err != nil {
		reason := "unavailable"
		if errors.Is(err, llm.ErrBackendTimeout) {
			reason = "timeout"
		}
		o.recordBackendFailure(conv.ID, reason, err)
		return o.fallback(conv, lang, text, loans)
	}

	next := conv.Context.Clone()
	next.CurrentIntent = models.IntentAIHandled
	next.UserQueries = append(next.UserQueries, text)
	return reply{content: content, path: metrics.PathBackend, context: next, loans: loans}
}

func (o *Orchestrator) fallback(conv *models.Conversation, lang models.Language, text string, loans []models.LoanProduct) reply {
	res := o.matcher.Match(text, lang)
	if !res.Matched {
		return reply{content: res.Response, path: metrics.PathTerminal, context: conv.Context.Clone(), loans: loans}
	}

	next := conv.Context.Clone()
	next.CurrentIntent = res.Intent
	next.UserQueries = append(next.UserQueries, text)
	return reply{content: res.Response, path: metrics.PathFallback, context: next, loans: loans}
}

func (o *Orchestrator) recordBackendFailure(conversationID, reason string, err error) {
	metrics.AdvisorBackendFailures.WithLabelValues(reason).Inc()
	o.logger.Warn("generative backend unavailable, using fallback matcher", map[string]interface{}{
		"conversation_id": conversationID,
		"backend":         o.backend.Name(),
		"reason":          reason,
		"error":           err.Error(),
	})
}

// validateOutcome turns a parsed marker into an Outcome. Eligible markers
// must name a product in the catalog; anything else is dropped.
func (o *Orchestrator) validateOutcome(ctx context.Context, conversationID string, tag *tags.Tag, loans []models.LoanProduct) *models.Outcome {
	if tag == nil {
		return nil
	}

	switch tag.Status {
	case tags.StatusIneligible:
		return &models.Outcome{Status: string(tag.Status), Reason: tag.Value}
	case tags.StatusEligible:
		if o.knownLoan(ctx, tag.Value, loans) {
			return &models.Outcome{Status: string(tag.Status), LoanID: tag.Value}
		}
		o.logger.Warn("dropping eligibility marker for unknown loan", map[string]interface{}{
			"conversation_id": conversationID,
			"loan_id":         tag.Value,
		})
	}
	return nil
}

func (o *Orchestrator) knownLoan(ctx context.Context, id string, loans []models.LoanProduct) bool {
	for _, loan := range loans {
		if loan.ID == id {
			return true
		}
	}
	_, err := o.catalog.GetLoan(ctx, id)
	return err == nil
}

func (o *Orchestrator) publish(ctx context.Context, conv *models.Conversation, lang models.Language, outcome *models.Outcome) {
	if len(o.publishers) == 0 {
		return
	}
	event := models.OutcomeEvent{
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Language:       lang,
		Status:         outcome.Status,
		LoanID:         outcome.LoanID,
		Reason:         outcome.Reason,
		OccurredAt:     o.now(),
	}
	for _, p := range o.publishers {
		if err := p.PublishOutcome(ctx, event); err != nil {
			o.logger.Error("failed to publish eligibility outcome", map[string]interface{}{
				"conversation_id": conv.ID,
				"error_code":      string(commonerrors.ErrCodeNotificationSendFailed),
				"error":           err.Error(),
			})
		}
	}
}

// historyFor maps the stored transcript onto backend messages. Each message
// is sent exactly once, the latest user message included.
func historyFor(messages []models.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := llm.RoleUser
		if m.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
