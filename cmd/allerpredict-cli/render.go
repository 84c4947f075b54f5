package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allerpredict/allerpredict/internal/domain"
	"github.com/allerpredict/allerpredict/internal/usecase/analysis"
	"github.com/allerpredict/allerpredict/internal/usecase/health"
	"github.com/allerpredict/allerpredict/internal/usecase/recommend"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(20)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("69")).
			Padding(0, 1)
)

var riskColors = map[domain.RiskLevel]lipgloss.Color{
	domain.RiskLow:     lipgloss.Color("42"),
	domain.RiskMedium:  lipgloss.Color("214"),
	domain.RiskHigh:    lipgloss.Color("196"),
	domain.RiskUnknown: lipgloss.Color("245"),
	domain.RiskError:   lipgloss.Color("201"),
}

func riskBadge(r domain.RiskLevel) string {
	c, ok := riskColors[r]
	if !ok {
		c = riskColors[domain.RiskUnknown]
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(strings.ToUpper(string(r)))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return mutedStyle.Render("none")
	}
	return strings.Join(items, ", ")
}

func renderAnalysis(a analysis.Analysis) string {
	name := "not in catalog"
	if a.Product != nil {
		name = a.Product.Name
	}

	lines := []string{
		titleStyle.Render(name),
		"",
		row("Risk level", riskBadge(a.Result.RiskLevel)),
		row("Detected allergens", listOrNone(a.Result.DetectedAllergens)),
		row("Ethical score", fmt.Sprintf("%d/100", a.Result.EthicalScore)),
		row("Recommendations", listOrNone(a.Result.Recommendations)),
		row("Safe alternatives", listOrNone(recommend.Names(a.Alternatives))),
	}
	if len(a.Context) > 0 {
		lines = append(lines, row("Context", mutedStyle.Render(strings.Join(a.Context, ", "))))
	}
	if n := strings.TrimSpace(a.Narrative); n != "" {
		lines = append(lines, "", n)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderAnswer(ans analysis.Answer) string {
	body := ans.Text
	if len(ans.Context) > 0 {
		body += "\n\n" + mutedStyle.Render("Based on: "+strings.Join(ans.Context, ", "))
	}
	return boxStyle.Render(body)
}

func renderProducts(products []domain.ProductRecord) string {
	if len(products) == 0 {
		return mutedStyle.Render("The catalog is empty.")
	}
	lines := make([]string, 0, len(products)+1)
	lines = append(lines, titleStyle.Render(fmt.Sprintf("%d products", len(products))))
	for i := range products {
		p := &products[i]
		id := p.IDString()
		if id == "" {
			id = "-"
		}
		lines = append(lines, fmt.Sprintf("%4s  %s  %s  %s",
			id, p.Name, mutedStyle.Render(p.Category), listOrNone(p.AllergenWarnings)))
	}
	return strings.Join(lines, "\n")
}

func renderHealth(r health.Report) string {
	names := make([]string, 0, len(r.Checks))
	for k := range r.Checks {
		names = append(names, k)
	}
	sort.Strings(names)

	status := string(r.Status)
	if r.Status == health.Healthy {
		status = lipgloss.NewStyle().Foreground(riskColors[domain.RiskLow]).Bold(true).Render(status)
	} else {
		status = errorStyle.Render(status)
	}

	lines := []string{row("Status", status), row("Products", fmt.Sprint(r.Products))}
	for _, n := range names {
		v := string(r.Checks[n])
		if r.Checks[n] != health.CheckOK {
			v = errorStyle.Render(v)
		}
		lines = append(lines, row(n, v))
	}
	return strings.Join(lines, "\n")
}
