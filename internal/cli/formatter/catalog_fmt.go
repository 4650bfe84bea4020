package formatter

import (
	"strconv"

	"github.com/alexanderramin/estima/internal/domain"
)

// FormatModuleList renders the module catalog.
func FormatModuleList(modules []domain.Module) string {
	headers := []string{"ID", "CODE", "NAME", "FRONTEND", "BACKEND", "QA", "ROLES"}
	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, []string{
			Dim(TruncID(m.ID)),
			StyleBlue.Render(m.Code),
			Bold(m.Name),
			FormatHours(m.HoursFrontend),
			FormatHours(m.HoursBackend),
			FormatHours(m.HoursQA),
			strconv.Itoa(len(m.RoleHours)),
		})
	}
	return RenderBox("Modules", RenderTable(headers, rows))
}

// FormatRateList renders hourly rates by role and level.
func FormatRateList(rates []domain.Rate) string {
	headers := []string{"ROLE", "LEVEL", "RATE"}
	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{r.Role, r.Level, FormatMoney(r.HourlyRate)})
	}
	return RenderTable(headers, rows)
}

// FormatInfrastructure renders the catalog with the quantity each project
// item requests.
func FormatInfrastructure(items []domain.InfrastructureItem, usage []domain.ProjectInfrastructure) string {
	qty := make(map[string]int, len(usage))
	for _, u := range usage {
		qty[u.InfrastructureItemID] = u.Quantity
	}
	headers := []string{"CODE", "NAME", "UNIT COST", "QTY", "COST"}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		q := qty[it.ID]
		rows = append(rows, []string{
			StyleBlue.Render(it.Code),
			it.Name,
			FormatMoney(it.UnitCost),
			strconv.Itoa(q),
			FormatMoney(it.UnitCost * float64(q)),
		})
	}
	return RenderTable(headers, rows)
}
