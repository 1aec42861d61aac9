package seed

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-advisor/internal/models"
)

func TestLoadCatalog_ShippedSeed(t *testing.T) {
	loans, err := LoadCatalog(filepath.Join("..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, loans)

	byID := make(map[string]models.LoanProduct, len(loans))
	for _, loan := range loans {
		byID[loan.ID] = loan
		assert.NotEmpty(t, loan.Name.HI, "%s has a Hindi name", loan.ID)
		assert.NotEmpty(t, loan.Name.TA, "%s has a Tamil name", loan.ID)
		assert.LessOrEqual(t, loan.LoanAmount.Min, loan.LoanAmount.Max, loan.ID)
		assert.LessOrEqual(t, loan.InterestRate.Min, loan.InterestRate.Max, loan.ID)
	}

	home, ok := byID["home-loan"]
	require.True(t, ok)
	assert.Equal(t, models.LoanTypeHome, home.LoanType)
	assert.True(t, home.IsActive)
	assert.NotEmpty(t, home.RequiredDocuments)
}

func TestDecodeCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing id",
			doc:     "loans:\n  - loanType: home\n    name: {en: Home}\n",
			wantErr: "id is required",
		},
		{
			name:    "duplicate id",
			doc:     "loans:\n  - {id: a, loanType: home, name: {en: A}}\n  - {id: a, loanType: gold, name: {en: B}}\n",
			wantErr: "duplicate id",
		},
		{
			name:    "missing loan type",
			doc:     "loans:\n  - {id: a, name: {en: A}}\n",
			wantErr: "loanType is required",
		},
		{
			name:    "missing english name",
			doc:     "loans:\n  - {id: a, loanType: home, name: {hi: ए}}\n",
			wantErr: "English name is required",
		},
		{
			name:    "unknown field",
			doc:     "loans:\n  - {id: a, loanType: home, name: {en: A}, rate: 9}\n",
			wantErr: "decode catalog seed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCatalog(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeCatalog_OptionalCriteria(t *testing.T) {
	doc := `
version: "1.0"
loans:
  - id: gold-loan
    loanType: gold
    name: {en: Gold Loan}
    eligibilityCriteria:
      minAge: 18
      minIncome: 0
    isActive: true
`
	loans, err := DecodeCatalog(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Nil(t, loans[0].EligibilityCriteria.MaxAge)
	assert.Equal(t, 3, loans[0].EligibilityCriteria.ExistingLoansLimit())
}
