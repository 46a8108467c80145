package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/ranker"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle   = lipgloss.NewStyle().Bold(true)

	labelStyles = map[string]lipgloss.Style{
		ranker.LabelHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		ranker.LabelMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		ranker.LabelLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

func renderLabel(label string) string {
	style, ok := labelStyles[label]
	if !ok {
		return label
	}
	return style.Render(label)
}

func describeAssessment(a catalog.Assessment) string {
	parts := make([]string, 0, 3)
	if a.Category != "" {
		parts = append(parts, a.Category)
	}
	if a.DurationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", a.DurationMinutes))
	}
	if a.Difficulty != "" {
		parts = append(parts, a.Difficulty)
	}
	return strings.Join(parts, " · ")
}

// renderOutcome prints a ranked list in a human readable form.
func renderOutcome(w io.Writer, out *outcome) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Recommendations for %q", out.JobRole)))

	rec := out.Recommendation
	if rec.Empty() {
		fmt.Fprintln(w, mutedStyle.Render("No recommendation available."))
		return
	}
	if rec.Fallback {
		fmt.Fprintln(w, mutedStyle.Render("Nothing in the catalog matched; showing general-purpose assessments."))
	}

	for i, r := range rec.Results {
		fmt.Fprintf(w, "%2d. %s  [%s %.2f%%]", i+1, nameStyle.Render(r.Assessment.Name), renderLabel(r.Label), r.Confidence)
		if details := describeAssessment(r.Assessment); details != "" {
			fmt.Fprintf(w, "  %s", mutedStyle.Render(details))
		}
		fmt.Fprintln(w)

		if out.Explanation != nil {
			if note := out.Explanation.Notes[r.Assessment.Name]; note != "" {
				fmt.Fprintf(w, "    %s\n", note)
			}
		}
	}

	if out.Explanation != nil && out.Explanation.Summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, out.Explanation.Summary)
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderCatalog prints one assessment per line in catalog order.
func renderCatalog(w io.Writer, c *catalog.Catalog) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d assessments", c.Len())))
	for _, a := range c.Assessments {
		fmt.Fprintf(w, "%3d. %s", a.ID, nameStyle.Render(a.Name))
		if details := describeAssessment(a); details != "" {
			fmt.Fprintf(w, "  %s", mutedStyle.Render(details))
		}
		fmt.Fprintln(w)
	}
}

func renderRoles(w io.Writer, c *catalog.Catalog) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d job roles", len(c.JobRoles))))
	for _, r := range c.JobRoles {
		fmt.Fprintf(w, "- %s", nameStyle.Render(r.Name))
		if r.Department != "" {
			fmt.Fprintf(w, "  %s", mutedStyle.Render(r.Department))
		}
		fmt.Fprintln(w)
	}
}

// renderReport prints category -> names with categories sorted.
func renderReport(w io.Writer, c *catalog.Catalog) {
	report := c.ReportByCategory()
	for _, cat := range c.Categories() {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", cat, len(report[cat]))))
		for _, name := range report[cat] {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
}
