package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

var (
	green  = lipgloss.Color("#16A34A")
	yellow = lipgloss.Color("#CA8A04")
	red    = lipgloss.Color("#DC2626")
	muted  = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(green)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	errTitle     = lipgloss.NewStyle().Bold(true).Foreground(red)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
	focusedPanel = panelStyle.BorderForeground(green)
)

func levelStyle(l estimation.Level) lipgloss.Style {
	switch l {
	case estimation.LevelLow:
		return lipgloss.NewStyle().Foreground(green)
	case estimation.LevelMedium:
		return lipgloss.NewStyle().Foreground(yellow)
	default:
		return lipgloss.NewStyle().Foreground(red)
	}
}

// RenderDisplay draws the result slot. It returns "" when there is nothing to show.
func RenderDisplay(d estimation.Display) string {
	var body string
	switch {
	case d.Empty():
		return ""
	case d.IsLoading:
		body = titleStyle.Render("Analyzing Dish...") + "\n" +
			mutedStyle.Render("Our AI is calculating the carbon footprint")
	case d.Error != "":
		body = RenderError(d.Error)
	case d.Result != nil:
		body = RenderResult(d.Result)
	}
	return body + "\n\n" + mutedStyle.Render("Result from: "+estimation.SourceLabel(d.Source))
}

// RenderError draws a classified backend error.
func RenderError(msg string) string {
	info := estimation.ClassifyError(msg)
	return errTitle.Render(info.Title) + "\n" +
		info.Description + "\n" +
		errorStyle.Render(info.Suggestion)
}

func RenderResult(r *domain.EstimationResult) string {
	level := estimation.ImpactLevel(r.EstimatedCarbonKg)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Carbon Footprint Result"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Estimated impact for: %s\n\n", valueStyle.Render(r.Dish))
	b.WriteString(levelStyle(level).Bold(true).Render(estimation.FormatKg(r.EstimatedCarbonKg)))
	b.WriteString("  ")
	b.WriteString(levelStyle(level).Render(string(level) + " Impact"))

	if len(r.Ingredients) > 0 {
		width := 0
		for _, ing := range r.Ingredients {
			width = max(width, lipgloss.Width(ing.Name))
		}
		b.WriteString("\n\nIngredient Breakdown:\n")
		for _, ing := range r.Ingredients {
			pad := strings.Repeat(" ", width-lipgloss.Width(ing.Name))
			fmt.Fprintf(&b, "  %s%s  %s\n", ing.Name, pad, mutedStyle.Render(estimation.FormatKg(ing.CarbonKg)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
