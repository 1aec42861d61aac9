package api

import (
	"net/http"

	"loan-advisor/internal/advisor/eligibility"
	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/metrics"
	"loan-advisor/internal/common/validation"
	"loan-advisor/internal/models"
)

type eligibilityRequest struct {
	Profile  models.FinancialProfile `json:"profile"`
	Criteria models.LoanCriteria     `json:"criteria"`
}

type loanEligibilityRequest struct {
	Profile models.FinancialProfile `json:"profile"`
}

// LoanEligibilityResponse is a verdict for one catalog product.
type LoanEligibilityResponse struct {
	LoanID   string `json:"loanId"`
	LoanName string `json:"loanName"`
	models.EligibilityVerdict
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := decodeBody(w, r, validation.EligibilityRequestSchema(), &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	verdict := eligibility.Evaluate(req.Profile, req.Criteria)
	metrics.RecordEligibility(verdict.IsEligible)
	s.writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleLoanEligibility(w http.ResponseWriter, r *http.Request) {
	var req loanEligibilityRequest
	if err := decodeBody(w, r, validation.LoanEligibilityRequestSchema(), &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Profile.MonthlyIncome <= 0 {
		s.writeError(w, r, errors.NewProfileIncompleteError("monthlyIncome must be greater than zero"))
		return
	}

	loan, err := s.lookupLoan(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	verdict := eligibility.Evaluate(req.Profile, loan.EligibilityCriteria)
	metrics.RecordEligibility(verdict.IsEligible)
	s.writeJSON(w, http.StatusOK, LoanEligibilityResponse{
		LoanID:             loan.ID,
		LoanName:           loan.Name.In(s.language(r)),
		EligibilityVerdict: verdict,
	})
}
