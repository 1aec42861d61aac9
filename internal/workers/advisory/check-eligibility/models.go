// internal/workers/advisory/check-eligibility/models.go
package checkeligibility

import (
	"loan-advisor/internal/common/validation"
	"loan-advisor/internal/models"
)

// Input carries a profile and either inline criteria or a catalog loan id.
// Inline criteria win when both are present.
type Input struct {
	LoanID   string                  `json:"loanId,omitempty"`
	Profile  models.FinancialProfile `json:"profile"`
	Criteria *models.LoanCriteria    `json:"criteria,omitempty"`
}

type Output struct {
	LoanID             string                    `json:"loanId,omitempty"`
	LoanName           string                    `json:"loanName,omitempty"`
	IsEligible         bool                      `json:"isEligible"`
	EligibilityScore   int                       `json:"eligibilityScore"`
	EligibilityStatus  string                    `json:"eligibilityStatus"`
	Recommendation     string                    `json:"recommendation"`
	EligibilityDetails models.EligibilityDetails `json:"eligibilityDetails"`
}

func GetInputSchema() validation.JSONSchema {
	minID := 1
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"loanId":   {Type: "string", MinLength: &minID},
			"profile":  validation.ProfileProperty(),
			"criteria": validation.CriteriaProperty(),
		},
		Required: []string{"profile"},
	}
}
