package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// ProjectDetail holds what the project show view renders.
type ProjectDetail struct {
	Project        domain.Project
	ProjectModules []domain.ProjectModule
	Modules        []domain.Module
	Coefficients   []domain.Coefficient
	Summary        domain.Summary
}

// FormatProjectList renders projects inside a bordered box.
func FormatProjectList(projects []domain.Project) string {
	headers := []string{"ID", "NAME", "UNCERTAINTY", "UI/UX", "LEGACY"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			Dim(TruncID(p.ID)),
			Bold(p.Name),
			p.UncertaintyLevel,
			p.UIUXLevel,
			legacyLabel(p.LegacyCode),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}

// FormatProjectDetail renders settings and coefficients on the left and the
// module table on the right, with the totals underneath.
func FormatProjectDetail(d ProjectDetail) string {
	left := buildSettingsPanel(d.Project, d.Coefficients)
	right := FormatProjectModules(d.ProjectModules, d.Modules)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)
	return RenderBox(d.Project.Name, body+"\n\n"+FormatSummary(d.Summary))
}

func buildSettingsPanel(p domain.Project, coefs []domain.Coefficient) string {
	var b strings.Builder
	b.WriteString(Header("Settings") + "\n")
	fmt.Fprintf(&b, "%s %s\n", Dim("id:         "), p.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("uncertainty:"), p.UncertaintyLevel)
	fmt.Fprintf(&b, "%s %s\n", Dim("ui/ux:      "), p.UIUXLevel)
	fmt.Fprintf(&b, "%s %s\n", Dim("legacy code:"), legacyLabel(p.LegacyCode))
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}
	if len(coefs) > 0 {
		b.WriteString("\n" + Header("Coefficients") + "\n")
		for _, c := range coefs {
			fmt.Fprintf(&b, "%-14s x%.2f\n", c.Name, c.Multiplier)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatProjectModules lists the modules attached to a project with their
// overrides resolved against the catalog.
func FormatProjectModules(pms []domain.ProjectModule, modules []domain.Module) string {
	if len(pms) == 0 {
		return Dim("No modules attached.")
	}
	byID := make(map[string]domain.Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}
	headers := []string{"ID", "MODULE", "FRONTEND", "BACKEND", "QA", "UNCERTAINTY"}
	rows := make([][]string, 0, len(pms))
	for _, pm := range pms {
		m := byID[pm.ModuleID]
		name := domain.CoalesceStr(pm.CustomName, m.Name)
		rows = append(rows, []string{
			Dim(TruncID(pm.ID)),
			Bold(OrDash(name)),
			hoursOr(pm.OverrideFrontend, m.HoursFrontend),
			hoursOr(pm.OverrideBackend, m.HoursBackend),
			hoursOr(pm.OverrideQA, m.HoursQA),
			optString(pm.UncertaintyLevel),
		})
	}
	return RenderTable(headers, rows)
}

// hoursOr highlights overridden hours.
func hoursOr(override *float64, base float64) string {
	if override != nil {
		return StyleYellow.Render(FormatHours(*override))
	}
	return FormatHours(base)
}

func legacyLabel(legacy bool) string {
	if legacy {
		return StyleYellow.Render("yes")
	}
	return Dim("no")
}

// FormatConnections renders project-module links as "from -> to" lines.
func FormatConnections(conns []domain.ProjectConnection, pms []domain.ProjectModule, modules []domain.Module) string {
	if len(conns) == 0 {
		return Dim("No connections.")
	}
	byID := make(map[string]domain.Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}
	names := make(map[string]string, len(pms))
	for _, pm := range pms {
		names[pm.ID] = domain.CoalesceStr(pm.CustomName, byID[pm.ModuleID].Name, TruncID(pm.ID))
	}
	var b strings.Builder
	b.WriteString(Header("Connections") + "\n")
	for _, c := range conns {
		fmt.Fprintf(&b, "  %s %s %s\n", Bold(OrDash(names[c.FromProjectModuleID])), Dim("->"), Bold(OrDash(names[c.ToProjectModuleID])))
	}
	return strings.TrimRight(b.String(), "\n")
}
