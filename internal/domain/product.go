package domain

import (
	"strconv"
	"strings"
)

// ProductRecord is a catalog entry. Records are immutable once the catalog is built.
type ProductRecord struct {
	ID               *int64   `json:"id,omitempty"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Brand            string   `json:"brand"`
	Description      string   `json:"description"`
	Ingredients      []string `json:"ingredients"`
	AllergenWarnings []string `json:"allergen_warnings"`
	EthicalNotes     string   `json:"ethical_notes"`
	Recommendations  []string `json:"recommendations"`
}

// Granularity selects which part of a record is embedded and used as context.
type Granularity string

const (
	// GranularityDocument uses the full rendered record.
	GranularityDocument Granularity = "document"
	// GranularityDescription uses the description only.
	GranularityDescription Granularity = "description"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == GranularityDocument || g == GranularityDescription
}

// Text returns the record text for the given granularity.
func (p *ProductRecord) Text(g Granularity) string {
	if g == GranularityDescription {
		return p.Description
	}
	return p.Document()
}

// Document renders the record in the indexed document layout.
func (p *ProductRecord) Document() string {
	allergens := "None"
	if len(p.AllergenWarnings) > 0 {
		allergens = strings.Join(p.AllergenWarnings, ", ")
	}

	var b strings.Builder
	b.WriteString("Name: " + p.Name + "\n")
	b.WriteString("Category: " + p.Category + "\n")
	b.WriteString("Brand: " + p.Brand + "\n")
	b.WriteString("Description: " + p.Description + "\n")
	b.WriteString("Ingredients: " + strings.Join(p.Ingredients, ", ") + "\n")
	b.WriteString("Allergens: " + allergens + "\n")
	b.WriteString("EthicalNotes: " + p.EthicalNotes + "\n")
	b.WriteString("Recommendations: " + strings.Join(p.Recommendations, ", ") + "\n")
	return b.String()
}

// AllergenSet returns the allergen warnings lowercased and trimmed, as a set.
func (p *ProductRecord) AllergenSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.AllergenWarnings))
	for _, a := range p.AllergenWarnings {
		if k := foldKey(a); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// SharesAllergen reports whether p and other have any allergen warning in common.
func (p *ProductRecord) SharesAllergen(other *ProductRecord) bool {
	mine := p.AllergenSet()
	if len(mine) == 0 {
		return false
	}
	for _, a := range other.AllergenWarnings {
		if _, ok := mine[foldKey(a)]; ok {
			return true
		}
	}
	return false
}

// SameName compares product names case-insensitively.
func (p *ProductRecord) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name))
}

// SameCategory compares categories case-insensitively.
func (p *ProductRecord) SameCategory(other *ProductRecord) bool {
	return strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(other.Category))
}

// IDString returns the numeric id as a string, or "" when absent.
func (p *ProductRecord) IDString() string {
	if p.ID == nil {
		return ""
	}
	return strconv.FormatInt(*p.ID, 10)
}

// SplitList splits a comma-joined list, trimming items and dropping empty ones.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
