// internal/advisor/tags/protocol_test.go
package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCleaned string
		wantTag     *Tag
	}{
		{
			name:        "eligible marker after content",
			input:       "Great news, you qualify!\n\n[[ELIGIBILITY_RESULT:eligible:home-loan]]",
			wantCleaned: "Great news, you qualify!",
			wantTag:     &Tag{Status: StatusEligible, Value: "home-loan"},
		},
		{
			name:        "ineligible marker with free-text reason",
			input:       "Sorry. [[ELIGIBILITY_RESULT:ineligible:Credit score below 700]]",
			wantCleaned: "Sorry.",
			wantTag:     &Tag{Status: StatusIneligible, Value: "Credit score below 700"},
		},
		{
			name:        "whitespace around separators is tolerated",
			input:       "[[ELIGIBILITY_RESULT : eligible :  gold-loan ]] ok",
			wantCleaned: "ok",
			wantTag:     &Tag{Status: StatusEligible, Value: "gold-loan"},
		},
		{
			name:        "first marker wins and all are stripped",
			input:       "A [[ELIGIBILITY_RESULT:eligible:first]] B [[ELIGIBILITY_RESULT:ineligible:second]]",
			wantCleaned: "A  B",
			wantTag:     &Tag{Status: StatusEligible, Value: "first"},
		},
		{
			name:        "no marker",
			input:       "  Which loan are you interested in?  ",
			wantCleaned: "Which loan are you interested in?",
		},
		{
			name:        "unknown status is left in place",
			input:       "Hmm [[ELIGIBILITY_RESULT:maybe:home-loan]]",
			wantCleaned: "Hmm [[ELIGIBILITY_RESULT:maybe:home-loan]]",
		},
		{
			name:        "marker is case-sensitive",
			input:       "[[eligibility_result:eligible:home-loan]]",
			wantCleaned: "[[eligibility_result:eligible:home-loan]]",
		},
		{
			name:        "empty value is malformed",
			input:       "x [[ELIGIBILITY_RESULT:eligible:]]",
			wantCleaned: "x [[ELIGIBILITY_RESULT:eligible:]]",
		},
		{
			name:        "unterminated marker",
			input:       "x [[ELIGIBILITY_RESULT:eligible:home-loan",
			wantCleaned: "x [[ELIGIBILITY_RESULT:eligible:home-loan",
		},
		{
			name:        "malformed marker before a well-formed one",
			input:       "[[ELIGIBILITY_RESULT:eligible:]] then [[ELIGIBILITY_RESULT:ineligible:Income too low]]",
			wantCleaned: "[[ELIGIBILITY_RESULT:eligible:]] then",
			wantTag:     &Tag{Status: StatusIneligible, Value: "Income too low"},
		},
		{
			name:        "empty input",
			input:       "",
			wantCleaned: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.input)

			assert.Equal(t, tt.wantCleaned, result.CleanedText)
			assert.Equal(t, tt.wantTag, result.Tag)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		value  string
	}{
		{"eligible loan id", StatusEligible, "64f1c0a9e4b0a1b2c3d4e5f6"},
		{"ineligible reason", StatusIneligible, "Monthly income below ₹30,000"},
		{"reason with colons", StatusIneligible, "Age: 17, minimum: 21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.status, tt.value)
			require.NoError(t, err)

			result := Parse("Some advice.\n\n" + encoded)

			require.NotNil(t, result.Tag)
			assert.Equal(t, tt.status, result.Tag.Status)
			assert.Equal(t, tt.value, result.Tag.Value)
			assert.Equal(t, "Some advice.", result.CleanedText)
		})
	}
}

func TestEncode_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		value  string
	}{
		{"unknown status", Status("maybe"), "x"},
		{"empty value", StatusEligible, ""},
		{"brackets in value", StatusIneligible, "see [[note]]"},
		{"padded value", StatusEligible, " home-loan "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.status, tt.value)
			assert.ErrorIs(t, err, ErrInvalidTag)
		})
	}
}

func TestAppend(t *testing.T) {
	out, err := Append("  You qualify.  ", StatusEligible, "home-loan")
	require.NoError(t, err)
	assert.Equal(t, "You qualify.\n\n[[ELIGIBILITY_RESULT:eligible:home-loan]]", out)
}
