package checkeligibility

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/models"
	"loan-advisor/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type brokenCatalog struct{}

func (brokenCatalog) ActiveLoans(context.Context) ([]models.LoanProduct, error) {
	return nil, stderrors.New("connection refused")
}

func (brokenCatalog) GetLoan(context.Context, string) (*models.LoanProduct, error) {
	return nil, stderrors.New("connection refused")
}

func createTestCatalog() *store.MemoryCatalog {
	maxAge := 65
	return store.NewMemoryCatalog([]models.LoanProduct{{
		ID:       "home-loan",
		LoanType: models.LoanTypeHome,
		Name:     models.LocalizedText{EN: "Home Loan"},
		EligibilityCriteria: models.LoanCriteria{
			MinAge: 21, MaxAge: &maxAge, MinIncome: 30000, MinCreditScore: 700, EmploymentRequired: true,
		},
		IsActive: true,
	}})
}

func createTestHandler(t *testing.T, catalog store.Catalog) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Catalog:      catalog,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func strongProfile() models.FinancialProfile {
	return models.FinancialProfile{
		Age:              30,
		MonthlyIncome:    50000,
		CreditScore:      750,
		EmploymentStatus: models.EmploymentEmployed,
		ExistingLoans:    0,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	weakCredit := strongProfile()
	weakCredit.CreditScore = 600

	tests := []struct {
		name         string
		input        *Input
		wantEligible bool
		wantScore    int
		wantLoanName string
	}{
		{
			name:         "catalog criteria, strong profile",
			input:        &Input{LoanID: "home-loan", Profile: strongProfile()},
			wantEligible: true,
			wantScore:    100,
			wantLoanName: "Home Loan",
		},
		{
			name:         "catalog criteria, low credit score",
			input:        &Input{LoanID: "home-loan", Profile: weakCredit},
			wantEligible: false,
			wantScore:    70,
			wantLoanName: "Home Loan",
		},
		{
			name: "inline criteria take precedence",
			input: &Input{
				LoanID:   "unknown",
				Profile:  weakCredit,
				Criteria: &models.LoanCriteria{MinAge: 18, MinIncome: 10000, MinCreditScore: 550},
			},
			wantEligible: true,
			wantScore:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, createTestCatalog())

			out, err := h.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.wantEligible, out.IsEligible)
			assert.Equal(t, tt.wantScore, out.EligibilityScore)
			assert.Equal(t, tt.wantLoanName, out.LoanName)
			if tt.wantEligible {
				assert.Equal(t, models.StatusEligible, out.EligibilityStatus)
			} else {
				assert.Equal(t, models.StatusNotEligible, out.EligibilityStatus)
				assert.False(t, out.EligibilityDetails.CreditScore.IsEligible)
			}
		})
	}
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		catalog  store.Catalog
		wantCode errors.ErrorCode
	}{
		{name: "unknown loan", catalog: createTestCatalog(), wantCode: errors.ErrCodeLoanNotFound},
		{name: "catalog down", catalog: brokenCatalog{}, wantCode: errors.ErrCodeCatalogUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.catalog)

			_, err := h.Execute(context.Background(), &Input{LoanID: "missing", Profile: strongProfile()})

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

// ==========================
// Input Validation Tests
// ==========================

func TestParseVariables(t *testing.T) {
	profile := map[string]interface{}{
		"age": 30.0, "monthlyIncome": 50000.0, "creditScore": 750.0, "employmentStatus": "employed", "existingLoans": 0.0,
	}

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   string
	}{
		{
			name:      "loan id",
			variables: map[string]interface{}{"loanId": "home-loan", "profile": profile},
		},
		{
			name: "inline criteria",
			variables: map[string]interface{}{
				"profile":  profile,
				"criteria": map[string]interface{}{"minAge": 21.0, "minIncome": 25000.0, "minCreditScore": 650.0, "maxAge": nil},
			},
		},
		{
			name:      "missing profile",
			variables: map[string]interface{}{"loanId": "home-loan"},
			wantErr:   "profile",
		},
		{
			name: "credit score out of range",
			variables: map[string]interface{}{"loanId": "home-loan", "profile": map[string]interface{}{
				"age": 30.0, "monthlyIncome": 50000.0, "creditScore": 1200.0, "employmentStatus": "employed", "existingLoans": 0.0,
			}},
			wantErr: "profile.creditScore",
		},
		{
			name:      "neither criteria nor loan id",
			variables: map[string]interface{}{"profile": profile},
			wantErr:   "either criteria or loanId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ParseVariables(tt.variables)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 750, input.Profile.CreditScore)
				assert.Equal(t, models.EmploymentEmployed, input.Profile.EmploymentStatus)
				return
			}
			require.Error(t, err)
			stdErr := errors.AsStandardError(err)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.wantErr)
		})
	}
}

// ==========================
// Configuration Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(&config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 8, Timeout: 2500},
	}})

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 8, cfg.MaxJobsActive)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)

	assert.Equal(t, DefaultConfig(), LoadConfig(nil))
}

func TestNewHandler_RequiresCatalog(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Logger: logger.NewNoOpLogger()})
	assert.Error(t, err)
}
