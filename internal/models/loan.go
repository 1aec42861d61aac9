package models

// LoanType enumerates the product families in the catalog.
type LoanType string

const (
	LoanTypePersonal     LoanType = "personal"
	LoanTypeHome         LoanType = "home"
	LoanTypeEducation    LoanType = "education"
	LoanTypeBusiness     LoanType = "business"
	LoanTypeVehicle      LoanType = "vehicle"
	LoanTypeGold         LoanType = "gold"
	LoanTypeLAP          LoanType = "lap"
	LoanTypeAgricultural LoanType = "agricultural"
	LoanTypeMortgage     LoanType = "mortgage"
)

// LocalizedText carries one string per supported language.
type LocalizedText struct {
	EN string `json:"en" yaml:"en"`
	HI string `json:"hi,omitempty" yaml:"hi,omitempty"`
	TA string `json:"ta,omitempty" yaml:"ta,omitempty"`
}

// In returns the text for lang, falling back to English when the
// translation is missing.
func (t LocalizedText) In(lang Language) string {
	switch lang {
	case LanguageHindi:
		if t.HI != "" {
			return t.HI
		}
	case LanguageTamil:
		if t.TA != "" {
			return t.TA
		}
	}
	return t.EN
}

// Range is an inclusive numeric band.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// LoanProduct is a catalog entry.
type LoanProduct struct {
	ID                  string          `json:"id" yaml:"id"`
	LoanType            LoanType        `json:"loanType" yaml:"loanType"`
	Name                LocalizedText   `json:"name" yaml:"name"`
	Description         LocalizedText   `json:"description" yaml:"description"`
	InterestRate        Range           `json:"interestRate" yaml:"interestRate"`
	LoanAmount          Range           `json:"loanAmount" yaml:"loanAmount"`
	Tenure              Range           `json:"tenure" yaml:"tenure"` // months
	EligibilityCriteria LoanCriteria    `json:"eligibilityCriteria" yaml:"eligibilityCriteria"`
	RequiredDocuments   []LocalizedText `json:"requiredDocuments" yaml:"requiredDocuments"`
	Features            []LocalizedText `json:"features,omitempty" yaml:"features,omitempty"`
	ProcessingFee       string          `json:"processingFee,omitempty" yaml:"processingFee,omitempty"`
	IsActive            bool            `json:"isActive" yaml:"isActive"`
}
