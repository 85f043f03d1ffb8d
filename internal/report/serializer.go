// Package report implements the Report Serializer (C14): it turns a
// core.Report into durable JSON, a markdown executive summary, and, for
// interactive CLI invocations, a one-shot styled terminal render of that
// summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/pr-warden/internal/core"
)

// ToJSON serializes the full Report, §3's field set plus GeneratedAt,
// exactly as the orchestrator assembled it.
func ToJSON(r *core.Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Markdown renders the executive summary structure §4.14 names: a risk
// assessment line, a critical-issues list, performance/security highlights,
// duplicate & breaking-change counts, quality metrics, and a recommendations
// section.
func Markdown(r *core.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# PR Review: %s#%d\n\n", r.PR.Repository, r.PR.Number)
	fmt.Fprintf(&b, "**Risk assessment:** %s\n\n", riskLine(r))

	if critical := criticalIssues(r); len(critical) > 0 {
		b.WriteString("## Critical issues\n\n")
		for _, f := range critical {
			fmt.Fprintf(&b, "- `%s:%d` %s\n", f.File, f.Line, f.Message)
		}
		b.WriteString("\n")
	}

	if highlights := categoryHighlights(r); highlights != "" {
		b.WriteString(highlights)
		b.WriteString("\n")
	}

	b.WriteString("## Duplicates & breaking changes\n\n")
	fmt.Fprintf(&b, "- Duplicates: %d within PR, %d cross-repo\n", r.DuplicateCounts.WithinPR, r.DuplicateCounts.CrossRepo)
	fmt.Fprintf(&b, "- Breaking changes: %d\n\n", len(r.BreakingChanges))

	b.WriteString("## Quality metrics\n\n")
	fmt.Fprintf(&b, "- Total issues: %d\n", len(r.Findings))
	fmt.Fprintf(&b, "- High: %d, Medium: %d, Low: %d\n", r.SeverityCounts.High, r.SeverityCounts.Medium, r.SeverityCounts.Low)
	fmt.Fprintf(&b, "- Average confidence: %.0f%%\n\n", r.AverageConfidence*100)

	b.WriteString("## Recommendations\n\n")
	if r.Recommendations != "" {
		b.WriteString(r.Recommendations)
	} else {
		b.WriteString("No additional recommendations.")
	}
	b.WriteString("\n")

	return b.String()
}

func riskLine(r *core.Report) string {
	switch {
	case r.SeverityCounts.High > 0:
		return fmt.Sprintf("High risk — %d high-severity finding(s) require attention before merge.", r.SeverityCounts.High)
	case r.SeverityCounts.Medium > 0:
		return fmt.Sprintf("Medium risk — %d medium-severity finding(s) worth addressing.", r.SeverityCounts.Medium)
	default:
		return "Low risk — no high or medium severity findings."
	}
}

func criticalIssues(r *core.Report) []core.Finding {
	var out []core.Finding
	for _, f := range r.Findings {
		if f.Severity == core.SeverityHigh {
			out = append(out, f)
		}
	}
	return out
}

func categoryHighlights(r *core.Report) string {
	var perf, sec []core.Finding
	for _, f := range r.Findings {
		switch f.Category {
		case core.CategoryPerformance:
			perf = append(perf, f)
		case core.CategorySecurity:
			sec = append(sec, f)
		}
	}
	if len(perf) == 0 && len(sec) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Performance & security highlights\n\n")
	for _, f := range sec {
		fmt.Fprintf(&b, "- [security] `%s:%d` %s\n", f.File, f.Line, f.Message)
	}
	for _, f := range perf {
		fmt.Fprintf(&b, "- [performance] `%s:%d` %s\n", f.File, f.Line, f.Message)
	}
	return b.String()
}

// RenderTerminal renders the markdown summary through glamour for
// prose/list formatting, then wraps the risk-assessment line in a bordered
// lipgloss banner using the donor's palette, for one-shot CLI output (not an
// interactive TUI).
func RenderTerminal(w io.Writer, r *core.Report, theme ThemeName) error {
	palette, ok := palettes[theme]
	if !ok {
		palette = palettes[ThemeCyan]
	}

	banner := lipgloss.NewStyle().
		Foreground(bannerColor(r, palette)).
		Bold(true).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(palette.Primary).
		Padding(0, 2).
		Render(riskLine(r))

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("building terminal renderer: %w", err)
	}

	body, err := renderer.Render(Markdown(r))
	if err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}

	_, err = fmt.Fprintf(w, "%s\n%s", banner, body)
	return err
}

func bannerColor(r *core.Report, p ThemePalette) lipgloss.Color {
	switch {
	case r.SeverityCounts.High > 0:
		return p.Error
	case r.SeverityCounts.Medium > 0:
		return p.Warning
	default:
		return p.Success
	}
}
