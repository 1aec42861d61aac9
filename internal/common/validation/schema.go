package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"loan-advisor/internal/common/errors"
	"loan-advisor/internal/models"
)

// JSONSchema defines the structure for input schemas
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        interface{}         `json:"type,omitempty"` // string or []string
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err converts a failed result into a VALIDATION_FAILED error.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return errors.NewValidationError(strings.Join(parts, "; "))
}

// ValidateInput validates decoded job variables or request fields.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	return validate(gojsonschema.NewGoLoader(input), schema)
}

// ValidateJSON validates a raw JSON document.
func ValidateJSON(document []byte, schema JSONSchema) *ValidationResult {
	if !json.Valid(document) {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "body is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
	}
	return validate(gojsonschema.NewBytesLoader(document), schema)
}

func validate(document gojsonschema.JSONLoader, schema JSONSchema) *ValidationResult {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), document)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out
}

// fieldName points required-property errors at the missing property
// rather than its parent.
func fieldName(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() != "required" {
		return field
	}
	prop, _ := desc.Details()["property"].(string)
	if prop == "" {
		return field
	}
	if field == "(root)" {
		return prop
	}
	return field + "." + prop
}

// ==========================
// Schemas
// ==========================

func ptr(v float64) *float64 { return &v }

func employmentStatuses() []string {
	return []string{
		string(models.EmploymentEmployed),
		string(models.EmploymentSelfEmployed),
		string(models.EmploymentUnemployed),
		string(models.EmploymentStudent),
		string(models.EmploymentRetired),
	}
}

// ProfileProperty describes a FinancialProfile.
func ProfileProperty() Property {
	return Property{
		Type: "object",
		Properties: map[string]Property{
			"age":              {Type: "integer", Minimum: ptr(0), Maximum: ptr(120)},
			"monthlyIncome":    {Type: "number", Minimum: ptr(0)},
			"creditScore":      {Type: "integer", Minimum: ptr(models.MinCreditScore), Maximum: ptr(models.MaxCreditScore)},
			"employmentStatus": {Type: "string", Enum: employmentStatuses()},
			"existingLoans":    {Type: "integer", Minimum: ptr(0)},
		},
		Required: []string{"age", "monthlyIncome", "creditScore", "employmentStatus", "existingLoans"},
	}
}

// CriteriaProperty describes LoanCriteria.
func CriteriaProperty() Property {
	return Property{
		Type: "object",
		Properties: map[string]Property{
			"minAge":             {Type: "integer", Minimum: ptr(0)},
			"maxAge":             {Type: []string{"integer", "null"}, Minimum: ptr(0)},
			"minIncome":          {Type: "number", Minimum: ptr(0)},
			"minCreditScore":     {Type: "integer", Minimum: ptr(0), Maximum: ptr(models.MaxCreditScore)},
			"employmentRequired": {Type: "boolean"},
			"maxExistingLoans":   {Type: []string{"integer", "null"}, Minimum: ptr(0)},
		},
	}
}

// EligibilityRequestSchema is the body of a stateless eligibility check.
func EligibilityRequestSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"profile":  ProfileProperty(),
			"criteria": CriteriaProperty(),
		},
		Required: []string{"profile", "criteria"},
	}
}

// LoanEligibilityRequestSchema is the body of a loan-scoped check; the
// criteria come from the catalog.
func LoanEligibilityRequestSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"profile": ProfileProperty(),
		},
		Required: []string{"profile"},
	}
}

// TurnRequestSchema is the body of a chat turn.
func TurnRequestSchema() JSONSchema {
	minText := 1
	maxText := 4000
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"userId":   {Type: "string", MinLength: &minText},
			"text":     {Type: "string", MinLength: &minText, MaxLength: &maxText},
			"language": {Type: "string"},
			"isVoice":  {Type: "boolean"},
			"conversationContext": {
				Type: []string{"object", "null"},
				Properties: map[string]Property{
					"currentIntent":  {Type: "string"},
					"discussedLoans": {Type: []string{"array", "null"}, Items: &Property{Type: "string"}},
					"userQueries":    {Type: []string{"array", "null"}, Items: &Property{Type: "string"}},
				},
			},
		},
		Required: []string{"text"},
	}
}
