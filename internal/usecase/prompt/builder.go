// Package prompt assembles the instruction text sent to the generation backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// Template selects the analysis prompt layout.
type Template string

const (
	// TemplateStrict asks for the JSON object only.
	TemplateStrict Template = "strict"
	// TemplateReport asks for the JSON object followed by a delimited narrative.
	TemplateReport Template = "report"
)

// Valid reports whether t is a known template.
func (t Template) Valid() bool {
	return t == TemplateStrict || t == TemplateReport
}

// Section markers shared with the response normalizer.
const (
	JSONDelimiter      = "### ANALYSIS JSON ###"
	NarrativeDelimiter = "### REPORT ###"
)

// ContextSeparator joins retrieved records in the context block.
const ContextSeparator = "\n\n"

const preamble = "You are a food product assistant. Use ONLY the context below to answer.\n" +
	"Do not use any knowledge that is not in the context.\n"

const schemaBlock = `{
  "detected_allergens": [],
  "risk_level": "",
  "ethical_score": 0,
  "recommendations": []
}`

const fieldRules = `Rules for the JSON object:
- It contains exactly the keys "detected_allergens", "risk_level", "ethical_score" and "recommendations".
- "detected_allergens" is a list of strings.
- "risk_level" is one of "low", "medium", "high" or "unknown".
- "ethical_score" is an integer from 0 to 100.
- "recommendations" is a list of strings.
`

// Builder renders analysis and question prompts.
type Builder struct {
	template Template
}

// NewBuilder creates a Builder. Unknown templates fall back to TemplateStrict.
func NewBuilder(t Template) *Builder {
	if !t.Valid() {
		t = TemplateStrict
	}
	return &Builder{template: t}
}

// Template returns the active template.
func (b *Builder) Template() Template { return b.template }

// Context concatenates the text of the given records.
func Context(records []domain.ProductRecord, g domain.Granularity) string {
	parts := make([]string, 0, len(records))
	for i := range records {
		if t := strings.TrimSpace(records[i].Text(g)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ContextSeparator)
}

// Analysis renders the prompt that asks for a structured product analysis.
func (b *Builder) Analysis(context, product string) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n### CONTEXT ###\n")
	sb.WriteString(context)
	sb.WriteString("\n\n### QUESTION ###\n")
	fmt.Fprintf(&sb, "Analyze the product %q: which allergens does it contain, how risky is it for allergic people, and how ethical is it?\n\n", product)

	switch b.template {
	case TemplateReport:
		sb.WriteString("Respond in two sections.\n")
		sb.WriteString("First write the line " + JSONDelimiter + " followed by a STRICT valid JSON object:\n")
		sb.WriteString(schemaBlock + "\n")
		sb.WriteString(fieldRules)
		sb.WriteString("Nothing else may appear in the JSON section.\n")
		sb.WriteString("Then write the line " + NarrativeDelimiter + " followed by a short human-readable explanation.\n")
	default:
		sb.WriteString("Respond ONLY with a STRICT valid JSON object:\n")
		sb.WriteString(schemaBlock + "\n")
		sb.WriteString(fieldRules)
		sb.WriteString("No explanation. No text outside JSON.\n")
	}
	return sb.String()
}

// Question renders the free-form question prompt.
func (b *Builder) Question(context, question string) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n### CONTEXT ###\n")
	sb.WriteString(context)
	sb.WriteString("\n\n### QUESTION ###\n")
	sb.WriteString(question)
	sb.WriteString("\n\nGive a short, clear answer.\n")
	return sb.String()
}
