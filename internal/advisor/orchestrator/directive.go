package orchestrator

import (
	"fmt"
	"strings"

	"loan-advisor/internal/advisor/eligibility"
	"loan-advisor/internal/models"
)

var languageStyle = map[models.Language]string{
	models.LanguageEnglish: "Use clear and professional English.",
	models.LanguageHindi: `Use "Hinglish": natural Hindi mixed with common English loan terms ` +
		`(e.g. "aapka Credit Score kya hai?", "Personal Loan options dekhiye").`,
	models.LanguageTamil: `Use "Tunglish": natural Tamil mixed with common English loan terms ` +
		`(e.g. "Home Loan apply panna", "Interest Rate evvalavu?").`,
}

// BuildDirective renders the system instruction for one turn: style rules
// for lang, the conversation flow, the marker contract and a snapshot of
// the active catalog.
func BuildDirective(lang models.Language, loans []models.LoanProduct, conv models.Context) string {
	var b strings.Builder

	b.WriteString("You are a helpful and professional Loan Advisor for \"LoanAdvisor\".\n")
	fmt.Fprintf(&b, "User language: %s.\n\n", lang)

	b.WriteString("LANGUAGE RULES:\n")
	style, ok := languageStyle[lang]
	if !ok {
		style = languageStyle[models.LanguageEnglish]
	}
	fmt.Fprintf(&b, "1. %s\n", style)
	b.WriteString("2. ALWAYS keep English for loan IDs, eligibility statuses and terms such as CIBIL Score or Interest Rate.\n")
	b.WriteString("3. Match the user's tone and complexity.\n\n")

	b.WriteString("GOAL: Collect details concisely and check eligibility.\n\n")

	b.WriteString("FLOW:\n")
	b.WriteString("1. If the user has not picked a loan, ask them to pick one from the list below.\n")
	b.WriteString("2. Once picked, ask for Age, Monthly Income and CIBIL Score in ONE message.\n")
	b.WriteString("3. Once provided, evaluate eligibility against the loan's criteria and give the verdict.\n\n")

	b.WriteString("RULES:\n")
	b.WriteString("- KEEP CONVERSATIONS SHORT. Reach a verdict within 2-3 exchanges.\n")
	b.WriteString("- Do not give long financial advice unless asked.\n\n")

	b.WriteString("CRITICAL TAGS (MUST INCLUDE EXACTLY ONE WITH EVERY VERDICT, AFTER YOUR MESSAGE):\n")
	b.WriteString("- If ELIGIBLE: [[ELIGIBILITY_RESULT:eligible:LOAN_ID]] using the exact ID from the list below.\n")
	b.WriteString("- If NOT ELIGIBLE: [[ELIGIBILITY_RESULT:ineligible:REASON]] with a short reason.\n\n")

	b.WriteString("Available Loan Products:\n")
	if len(loans) == 0 {
		b.WriteString("(none currently available)\n")
	}
	for _, loan := range loans {
		writeLoan(&b, lang, loan)
	}

	status := conv.CurrentIntent
	if status == "" {
		status = models.IntentGreetingStage
	}
	fmt.Fprintf(&b, "\nCurrent Context Status: %s", status)
	return b.String()
}

func writeLoan(b *strings.Builder, lang models.Language, loan models.LoanProduct) {
	c := loan.EligibilityCriteria

	fmt.Fprintf(b, "- Name: %s\n", loan.Name.In(lang))
	fmt.Fprintf(b, "  ID: %s\n", loan.ID)
	fmt.Fprintf(b, "  Type: %s\n", loan.LoanType)
	if desc := loan.Description.In(lang); desc != "" {
		fmt.Fprintf(b, "  Description: %s\n", desc)
	}
	fmt.Fprintf(b, "  Amount: ₹%s - ₹%s\n",
		eligibility.FormatRupees(loan.LoanAmount.Min), eligibility.FormatRupees(loan.LoanAmount.Max))
	fmt.Fprintf(b, "  Interest: %g%% - %g%%\n", loan.InterestRate.Min, loan.InterestRate.Max)

	rules := []string{fmt.Sprintf("Min Age %d", c.MinAge)}
	if c.MaxAge != nil {
		rules = append(rules, fmt.Sprintf("Max Age %d", *c.MaxAge))
	}
	rules = append(rules, "Min Income ₹"+eligibility.FormatRupees(c.MinIncome))
	if c.MinCreditScore > 0 {
		rules = append(rules, fmt.Sprintf("Min Credit Score %d", c.MinCreditScore))
	}
	if c.EmploymentRequired {
		rules = append(rules, "Employment required")
	}
	fmt.Fprintf(b, "  Eligibility: %s.\n", strings.Join(rules, ", "))

	if len(loan.RequiredDocuments) > 0 {
		docs := make([]string, 0, len(loan.RequiredDocuments))
		for _, d := range loan.RequiredDocuments {
			docs = append(docs, d.In(lang))
		}
		fmt.Fprintf(b, "  Documents Required: %s\n", strings.Join(docs, ", "))
	}
}
