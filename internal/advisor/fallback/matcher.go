// Package fallback answers a turn without the generative backend by matching
// the utterance against a small ordered list of keyword rules.
package fallback

import (
	"strings"

	"loan-advisor/internal/models"
)

// Intents produced by the default rules.
const (
	IntentGreeting = "greeting"
	IntentLoanInfo = "loan_info"
)

// KeyServiceUnavailable is the bundle key used when no rule matches.
const KeyServiceUnavailable = "service_unavailable"

// ServiceUnavailableMessage is used when no bundle carries KeyServiceUnavailable.
const ServiceUnavailableMessage = "I'm having trouble connecting to my AI brain at the moment. Please try again in a minute."

// Rule maps a bag of keywords in any script to an intent. The response is the
// localized texts for ResponseKeys joined with a space.
type Rule struct {
	Intent       string
	Keywords     []string
	ResponseKeys []string
}

// DefaultRules are evaluated in order; the first rule with a keyword
// contained in the lower-cased utterance wins.
var DefaultRules = []Rule{
	{
		Intent:       IntentGreeting,
		Keywords:     []string{"hello", "hi", "namaste", "vanakkam", "hey", "नमस्ते", "வணக்கம்"},
		ResponseKeys: []string{"welcome", "how_can_i_help"},
	},
	{
		Intent:       IntentLoanInfo,
		Keywords:     []string{"loan", "credit", "borrow", "money", "ऋण", "कर्ज", "கடன்", "பணம்"},
		ResponseKeys: []string{"loan_eligibility", "loan_types"},
	},
}

// Result is what the matcher returns for every utterance.
// Matched is false for the terminal "service unavailable" response, in which
// case Intent is empty and callers must leave the conversation context alone.
type Result struct {
	Intent   string
	Response string
	Matched  bool
}

// Matcher is safe for concurrent use; it never mutates its rules or bundles.
type Matcher struct {
	rules   []Rule
	bundles Bundles
}

// NewMatcher builds a matcher over rules and bundles.
func NewMatcher(rules []Rule, bundles Bundles) *Matcher {
	return &Matcher{rules: rules, bundles: bundles}
}

// NewDefaultMatcher uses DefaultRules and the embedded locale bundles.
func NewDefaultMatcher() (*Matcher, error) {
	bundles, err := DefaultBundles()
	if err != nil {
		return nil, err
	}
	return NewMatcher(DefaultRules, bundles), nil
}

// Match never fails: when no rule applies it returns the terminal response.
func (m *Matcher) Match(utterance string, lang models.Language) Result {
	input := strings.ToLower(utterance)

	for _, rule := range m.rules {
		if !containsAny(input, rule.Keywords) {
			continue
		}
		if response := m.render(lang, rule.ResponseKeys); response != "" {
			return Result{Intent: rule.Intent, Response: response, Matched: true}
		}
	}

	return Result{Response: m.terminal(lang)}
}

func (m *Matcher) render(lang models.Language, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if text, ok := m.bundles.Lookup(lang, key); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (m *Matcher) terminal(lang models.Language) string {
	if text, ok := m.bundles.Lookup(lang, KeyServiceUnavailable); ok {
		return text
	}
	return ServiceUnavailableMessage
}

func containsAny(input string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(input, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
