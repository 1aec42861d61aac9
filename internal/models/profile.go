package models

// EmploymentStatus is the borrower's declared employment category.
type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentSelfEmployed EmploymentStatus = "self-employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentStudent      EmploymentStatus = "student"
	EmploymentRetired      EmploymentStatus = "retired"
)

// IsEarning reports whether the status satisfies an employment requirement.
func (s EmploymentStatus) IsEarning() bool {
	return s == EmploymentEmployed || s == EmploymentSelfEmployed
}

// Credit score bounds accepted on a FinancialProfile.
const (
	MinCreditScore = 300
	MaxCreditScore = 900
)

// FinancialProfile is the borrower data evaluated against loan criteria.
type FinancialProfile struct {
	Age              int              `json:"age"`
	MonthlyIncome    float64          `json:"monthlyIncome"`
	CreditScore      int              `json:"creditScore"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus"`
	ExistingLoans    int              `json:"existingLoans"`
}

// DefaultMaxExistingLoans applies when a product leaves MaxExistingLoans unset.
const DefaultMaxExistingLoans = 3

// LoanCriteria are the thresholds attached to a loan product.
type LoanCriteria struct {
	MinAge             int     `json:"minAge" yaml:"minAge"`
	MaxAge             *int    `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
	MinIncome          float64 `json:"minIncome" yaml:"minIncome"`
	MinCreditScore     int     `json:"minCreditScore" yaml:"minCreditScore"`
	EmploymentRequired bool    `json:"employmentRequired" yaml:"employmentRequired"`
	MaxExistingLoans   *int    `json:"maxExistingLoans,omitempty" yaml:"maxExistingLoans,omitempty"`
}

// ExistingLoansLimit returns MaxExistingLoans or the default when unset.
func (c LoanCriteria) ExistingLoansLimit() int {
	if c.MaxExistingLoans == nil {
		return DefaultMaxExistingLoans
	}
	return *c.MaxExistingLoans
}

// CriterionResult is the outcome of a single eligibility rule.
type CriterionResult struct {
	IsEligible bool   `json:"isEligible"`
	Message    string `json:"message"`
}

// EligibilityDetails holds one result per rule.
type EligibilityDetails struct {
	Age           CriterionResult `json:"age"`
	Income        CriterionResult `json:"income"`
	CreditScore   CriterionResult `json:"creditScore"`
	Employment    CriterionResult `json:"employment"`
	ExistingLoans CriterionResult `json:"existingLoans"`
}

// Verdict status labels.
const (
	StatusEligible    = "Eligible"
	StatusNotEligible = "Not Eligible"
)

// EligibilityVerdict is derived from a profile and criteria on every call.
type EligibilityVerdict struct {
	IsEligible     bool               `json:"isEligible"`
	Score          int                `json:"score"`
	Details        EligibilityDetails `json:"details"`
	Status         string             `json:"status"`
	Recommendation string             `json:"recommendation"`
}
