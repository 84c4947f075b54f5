package analysis

import (
	"fmt"
	"strings"

	"github.com/allerpredict/allerpredict/internal/usecase/recommend"
)

// FormatReport renders an Analysis for display. It is not part of the machine-readable contract.
func FormatReport(a Analysis) string {
	var b strings.Builder

	name := "(not in catalog)"
	if a.Product != nil {
		name = a.Product.Name
	}
	fmt.Fprintf(&b, "Product: %s\n", name)
	fmt.Fprintf(&b, "Detected allergens: %s\n", listOrNone(a.Result.DetectedAllergens))
	fmt.Fprintf(&b, "Risk level: %s\n", a.Result.RiskLevel)
	fmt.Fprintf(&b, "Ethical score: %d/100\n", a.Result.EthicalScore)
	fmt.Fprintf(&b, "Recommendations: %s\n", listOrNone(a.Result.Recommendations))
	fmt.Fprintf(&b, "Safe alternatives: %s\n", listOrNone(recommend.Names(a.Alternatives)))

	if n := strings.TrimSpace(a.Narrative); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
