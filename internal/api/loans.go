package api

import (
	stderrors "errors"
	"net/http"

	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/models"
	"loan-advisor/internal/store"
)

// LoanView is a catalog entry rendered in one language.
type LoanView struct {
	ID                  string              `json:"id"`
	LoanType            models.LoanType     `json:"loanType"`
	Name                string              `json:"name"`
	Description         string              `json:"description,omitempty"`
	InterestRate        models.Range        `json:"interestRate"`
	LoanAmount          models.Range        `json:"loanAmount"`
	Tenure              models.Range        `json:"tenure"`
	EligibilityCriteria models.LoanCriteria `json:"eligibilityCriteria"`
	RequiredDocuments   []string            `json:"requiredDocuments"`
	Features            []string            `json:"features,omitempty"`
	ProcessingFee       string              `json:"processingFee,omitempty"`
	IsActive            bool                `json:"isActive"`
	Language            models.Language     `json:"language"`
}

func newLoanView(loan models.LoanProduct, lang models.Language) LoanView {
	return LoanView{
		ID:                  loan.ID,
		LoanType:            loan.LoanType,
		Name:                loan.Name.In(lang),
		Description:         loan.Description.In(lang),
		InterestRate:        loan.InterestRate,
		LoanAmount:          loan.LoanAmount,
		Tenure:              loan.Tenure,
		EligibilityCriteria: loan.EligibilityCriteria,
		RequiredDocuments:   localizeAll(loan.RequiredDocuments, lang),
		Features:            localizeAll(loan.Features, lang),
		ProcessingFee:       loan.ProcessingFee,
		IsActive:            loan.IsActive,
		Language:            lang,
	}
}

func localizeAll(texts []models.LocalizedText, lang models.Language) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		out = append(out, t.In(lang))
	}
	return out
}

func (s *Server) language(r *http.Request) models.Language {
	return models.ParseLanguage(r.URL.Query().Get("language"), s.defaultLanguage)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.catalog.ActiveLoans(r.Context())
	if err != nil {
		s.writeError(w, r, errors.NewCatalogUnavailableError(err))
		return
	}

	lang := s.language(r)
	views := make([]LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, newLoanView(loan, lang))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := s.lookupLoan(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newLoanView(*loan, s.language(r)))
}

func (s *Server) lookupLoan(r *http.Request) (*models.LoanProduct, error) {
	id := r.PathValue("id")
	loan, err := s.catalog.GetLoan(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewLoanNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewCatalogUnavailableError(err)
	}
	return loan, nil
}
