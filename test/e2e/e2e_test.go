// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-advisor/internal/advisor/fallback"
	"loan-advisor/internal/advisor/llm"
	"loan-advisor/internal/advisor/orchestrator"
	"loan-advisor/internal/advisor/tags"
	"loan-advisor/internal/api"
	"loan-advisor/internal/common/database"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/models"
	"loan-advisor/internal/store"
	"loan-advisor/pkg/seed"
)

// ==========================
// Harness
// ==========================

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OutcomeEvent
}

func (p *recordingPublisher) PublishOutcome(_ context.Context, event models.OutcomeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []models.OutcomeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.OutcomeEvent(nil), p.events...)
}

type harness struct {
	server    *httptest.Server
	published *recordingPublisher
	redis     *miniredis.Miniredis
}

// newHarness runs the full HTTP stack over redis-backed conversations and a
// redis-cached catalog seeded from the shipped catalog file. The backend is
// configured before the server starts serving.
func newHarness(t *testing.T, backend *llm.Static) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	loans, err := seed.LoadCatalog("../../configs/catalog.yaml")
	require.NoError(t, err, "❌ catalog seed failed to load")
	catalog := store.NewCachedCatalog(store.NewMemoryCatalog(loans), rdb, time.Minute, log)

	matcher, err := fallback.NewDefaultMatcher()
	require.NoError(t, err)

	published := &recordingPublisher{}
	advisor := orchestrator.New(
		orchestrator.Config{BackendTimeout: 100 * time.Millisecond, DefaultLanguage: models.LanguageEnglish},
		backend,
		store.NewRedisConversations(rdb, time.Hour),
		catalog,
		matcher,
		log,
	).WithPublisher(published)

	srv := api.NewServer(api.Options{
		Advisor:         advisor,
		Catalog:         catalog,
		DefaultLanguage: models.LanguageEnglish,
		Dependencies:    []database.Pinger{&database.RedisClient{Client: rdb}},
		Logger:          log,
	})
	server := httptest.NewServer(srv.Routes())
	t.Cleanup(server.Close)

	return &harness{server: server, published: published, redis: mr}
}

func (h *harness) call(t *testing.T, method, path, userID string, body interface{}, out interface{}) int {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, h.server.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// ==========================
// Advisory Flow
// ==========================

func TestAdvisoryFlow_EligibleOutcome(t *testing.T) {
	reply, err := tags.Append("Good news, you qualify for our Home Loan.", tags.StatusEligible, "home-loan")
	require.NoError(t, err)
	h := newHarness(t, &llm.Static{Reply: reply})

	var result models.TurnResult
	status := h.call(t, http.MethodPost, "/api/chat", "user-1", map[string]string{
		"text":     "I earn 50000 a month, can I get a home loan?",
		"language": "en",
	}, &result)

	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, result.Outcome, "✅ eligible marker should validate against the catalog")
	assert.Equal(t, "eligible", result.Outcome.Status)
	assert.Equal(t, "home-loan", result.Outcome.LoanID)
	assert.Equal(t, models.IntentAIHandled, result.Context.CurrentIntent)
	assert.Contains(t, result.Context.DiscussedLoans, "home-loan")

	events := h.published.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "user-1", events[0].UserID)
	assert.Equal(t, result.ConversationID, events[0].ConversationID)

	assert.True(t, h.redis.Exists(store.CatalogCacheKey), "catalog read should populate the cache")
}

func TestAdvisoryFlow_UnknownLoanIsNotAnOutcome(t *testing.T) {
	h := newHarness(t, &llm.Static{Reply: "You qualify! [[ELIGIBILITY_RESULT:eligible:yacht-loan]]"})

	var result models.TurnResult
	status := h.call(t, http.MethodPost, "/api/chat", "user-2", map[string]string{"text": "yacht loan?"}, &result)

	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, result.Outcome)
	assert.Empty(t, h.published.Events())
}

// Backend timeout: the greeting fallback answers and the assistant message
// is still stored.
func TestAdvisoryFlow_BackendTimeoutUsesFallback(t *testing.T) {
	h := newHarness(t, &llm.Static{Reply: "unused", Delay: 2 * time.Second})

	var result models.TurnResult
	status := h.call(t, http.MethodPost, "/api/chat", "user-3", map[string]string{"text": "hello"}, &result)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fallback.IntentGreeting, result.Context.CurrentIntent)
	assert.NotEmpty(t, result.Content)

	var history []models.Message
	require.Equal(t, http.StatusOK, h.call(t, http.MethodGet, "/api/chat/history", "user-3", nil, &history))
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, result.Content, history[1].Content)
}

// Clearing history deactivates the conversation; the next turn starts a new
// one with an empty transcript.
func TestAdvisoryFlow_ClearStartsNewConversation(t *testing.T) {
	h := newHarness(t, &llm.Static{Reply: "Which loan interests you?"})

	var first models.TurnResult
	require.Equal(t, http.StatusOK, h.call(t, http.MethodPost, "/api/chat", "user-4", map[string]string{"text": "hi"}, &first))
	require.Equal(t, http.StatusOK, h.call(t, http.MethodPost, "/api/chat", "user-4", map[string]string{"text": "gold loan"}, nil))

	require.Equal(t, http.StatusOK, h.call(t, http.MethodDelete, "/api/chat/history", "user-4", nil, nil))

	var history []models.Message
	require.Equal(t, http.StatusOK, h.call(t, http.MethodGet, "/api/chat/history", "user-4", nil, &history))
	assert.Empty(t, history)

	var second models.TurnResult
	require.Equal(t, http.StatusOK, h.call(t, http.MethodPost, "/api/chat", "user-4", map[string]string{"text": "education loan"}, &second))
	assert.NotEqual(t, first.ConversationID, second.ConversationID)

	require.Equal(t, http.StatusOK, h.call(t, http.MethodGet, "/api/chat/history", "user-4", nil, &history))
	assert.Len(t, history, 2)
}

// ==========================
// Eligibility
// ==========================

func TestEligibility_Scenarios(t *testing.T) {
	h := newHarness(t, &llm.Static{Reply: "ok"})

	criteria := map[string]interface{}{
		"minAge": 21, "maxAge": 65, "minIncome": 30000, "minCreditScore": 700,
		"employmentRequired": true, "maxExistingLoans": 3,
	}
	tests := []struct {
		name         string
		creditScore  int
		wantEligible bool
		wantScore    int
	}{
		{name: "all checks pass", creditScore: 720, wantEligible: true, wantScore: 100},
		{name: "credit score fails", creditScore: 600, wantEligible: false, wantScore: 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]interface{}{
				"profile": map[string]interface{}{
					"age": 30, "monthlyIncome": 40000, "creditScore": tt.creditScore,
					"employmentStatus": "employed", "existingLoans": 1,
				},
				"criteria": criteria,
			}

			var verdict models.EligibilityVerdict
			require.Equal(t, http.StatusOK, h.call(t, http.MethodPost, "/api/eligibility", "", body, &verdict))
			assert.Equal(t, tt.wantEligible, verdict.IsEligible)
			assert.Equal(t, tt.wantScore, verdict.Score)
		})
	}
}

func TestCatalogAndHealth(t *testing.T) {
	h := newHarness(t, &llm.Static{Reply: "ok"})

	var loans []map[string]interface{}
	require.Equal(t, http.StatusOK, h.call(t, http.MethodGet, "/api/loans?language=ta", "", nil, &loans))
	assert.NotEmpty(t, loans)

	var ready map[string]interface{}
	require.Equal(t, http.StatusOK, h.call(t, http.MethodGet, "/ready", "", nil, &ready))
	assert.Equal(t, "ready", ready["status"])
}
