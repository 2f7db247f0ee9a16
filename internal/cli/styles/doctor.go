package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DoctorRenderer renders diagnostic check results.
type DoctorRenderer struct {
	theme *Theme
}

// NewDoctorRenderer creates a doctor report renderer.
func NewDoctorRenderer(theme *Theme) *DoctorRenderer {
	return &DoctorRenderer{theme: theme}
}

// DoctorReport holds the outcome of all diagnostic checks.
type DoctorReport struct {
	OverallOK bool
	Checks    []DoctorCheck
}

// DoctorCheck is a single named diagnostic result.
type DoctorCheck struct {
	Name   string
	OK     bool
	Detail string
	Error  string
}

// Render formats the full report.
func (r *DoctorRenderer) Render(report DoctorReport) string {
	lines := make([]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		lines = append(lines, r.renderCheck(c))
	}

	body := strings.Join(lines, "\n")
	box := r.theme.Box.Render(
		r.theme.BoxHeader.Render(fmt.Sprintf("%s Checks", r.theme.Highlight.Render(IconDoctor))) + "\n" + body)

	return lipgloss.JoinVertical(lipgloss.Left, r.renderHeader(report.OverallOK), "", box)
}

func (r *DoctorRenderer) renderHeader(ok bool) string {
	statusStyle := r.theme.SuccessStyle
	statusText := "OK"
	if !ok {
		statusStyle = r.theme.WarningStyle
		statusText = "Needs attention"
	}

	title := fmt.Sprintf("%s %s", r.theme.Highlight.Render(IconDoctor), r.theme.Title.Render("Doctor"))
	badge := r.theme.BadgeMuted.Render(statusStyle.Render(statusText))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge)
}

func (r *DoctorRenderer) renderCheck(c DoctorCheck) string {
	icon := IconCheck
	statusStyle := r.theme.SuccessStyle
	summary := c.Detail

	if !c.OK {
		icon = IconX
		statusStyle = r.theme.ErrorStyle
		if c.Error != "" {
			summary = c.Error
		}
	}

	line := fmt.Sprintf("%s %s", statusStyle.Render(icon), r.theme.Normal.Render(c.Name))
	if summary != "" {
		line += " " + r.theme.Subtle.Render(summary)
	}
	return line
}

// RenderError formats a single error line.
func (r *DoctorRenderer) RenderError(err error) string {
	return fmt.Sprintf("%s %s", r.theme.ErrorStyle.Render(IconX), r.theme.Normal.Render(err.Error()))
}
