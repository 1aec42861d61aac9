// Package eligibility scores a financial profile against loan criteria.
//
// Evaluate is pure: it performs no I/O and returns the same verdict for the
// same inputs.
package eligibility

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"loan-advisor/internal/models"
)

// Criterion weights. They sum to 100.
const (
	WeightIncome        = 40
	WeightCreditScore   = 30
	WeightEmployment    = 15
	WeightAge           = 10
	WeightExistingLoans = 5
)

const (
	RecommendationEligible   = "You have a high chance of approval! Proceed to apply."
	RecommendationIneligible = "We recommend improving your financial profile before applying."
)

// Evaluate checks each criterion, sums the weights of the ones that pass and
// decides eligibility. Only income, credit score and age gate the verdict;
// employment and existing loans contribute to the score alone.
func Evaluate(profile models.FinancialProfile, criteria models.LoanCriteria) models.EligibilityVerdict {
	details := models.EligibilityDetails{
		Age:           checkAge(profile.Age, criteria),
		Income:        checkIncome(profile.MonthlyIncome, criteria.MinIncome),
		CreditScore:   checkCreditScore(profile.CreditScore, criteria.MinCreditScore),
		Employment:    checkEmployment(profile.EmploymentStatus, criteria.EmploymentRequired),
		ExistingLoans: checkExistingLoans(profile.ExistingLoans, criteria.ExistingLoansLimit()),
	}

	score := 0
	for _, c := range []struct {
		passed bool
		weight int
	}{
		{details.Income.IsEligible, WeightIncome},
		{details.CreditScore.IsEligible, WeightCreditScore},
		{details.Employment.IsEligible, WeightEmployment},
		{details.Age.IsEligible, WeightAge},
		{details.ExistingLoans.IsEligible, WeightExistingLoans},
	} {
		if c.passed {
			score += c.weight
		}
	}

	eligible := details.Income.IsEligible && details.CreditScore.IsEligible && details.Age.IsEligible

	verdict := models.EligibilityVerdict{
		IsEligible:     eligible,
		Score:          score,
		Details:        details,
		Status:         models.StatusNotEligible,
		Recommendation: RecommendationIneligible,
	}
	if eligible {
		verdict.Status = models.StatusEligible
		verdict.Recommendation = RecommendationEligible
	}
	return verdict
}

func checkAge(age int, criteria models.LoanCriteria) models.CriterionResult {
	if age < criteria.MinAge {
		return fail("Minimum age required is %d", criteria.MinAge)
	}
	if criteria.MaxAge != nil && age > *criteria.MaxAge {
		return fail("Maximum age allowed is %d", *criteria.MaxAge)
	}
	return pass("Age criteria met")
}

func checkIncome(income, minIncome float64) models.CriterionResult {
	if income < minIncome {
		return fail("Minimum monthly income required is ₹%s", FormatRupees(minIncome))
	}
	return pass("Income criteria met")
}

func checkCreditScore(score, minScore int) models.CriterionResult {
	if score < minScore {
		return fail("Minimum credit score required is %d", minScore)
	}
	return pass("Credit score is healthy")
}

func checkEmployment(status models.EmploymentStatus, required bool) models.CriterionResult {
	if required && !status.IsEarning() {
		return fail("Steady employment or self-employment history required")
	}
	return pass("Employment status is eligible")
}

func checkExistingLoans(count, limit int) models.CriterionResult {
	if count > limit {
		return fail("Too many active loans (Maximum %d allowed)", limit)
	}
	return pass("Active loan count is within limits")
}

// FormatRupees renders an amount with thousands separators, dropping the
// fraction for whole amounts (30000 -> "30,000", 1234.56 -> "1,234.56").
func FormatRupees(amount float64) string {
	if amount == math.Trunc(amount) && math.Abs(amount) < math.MaxInt64 {
		return humanize.Comma(int64(amount))
	}
	return humanize.CommafWithDigits(amount, 2)
}

func pass(msg string) models.CriterionResult {
	return models.CriterionResult{IsEligible: true, Message: msg}
}

func fail(format string, args ...interface{}) models.CriterionResult {
	return models.CriterionResult{IsEligible: false, Message: fmt.Sprintf(format, args...)}
}
