package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
)

// FormatSummary renders per-role hours, totals and the scenario range.
func FormatSummary(s domain.Summary) string {
	t := s.Totals
	var b strings.Builder
	b.WriteString(Header("Estimate") + "\n")
	fmt.Fprintf(&b, "%s %s\n", Dim("frontend:"), FormatHours(t.HoursFrontend))
	fmt.Fprintf(&b, "%s %s\n", Dim("backend: "), FormatHours(t.HoursBackend))
	fmt.Fprintf(&b, "%s %s\n", Dim("qa:      "), FormatHours(t.HoursQA))
	fmt.Fprintf(&b, "%s %s\n", Dim("total:   "), Bold(FormatHours(t.HoursTotal)))
	fmt.Fprintf(&b, "%s %s\n", Dim("infra:   "), FormatMoney(t.InfraCost))
	fmt.Fprintf(&b, "%s %s\n", Dim("cost:    "), Bold(FormatMoney(t.CostTotal)))

	if len(s.Scenarios) > 0 {
		rows := make([][]string, 0, len(s.Scenarios))
		for _, sc := range s.Scenarios {
			rows = append(rows, []string{sc.Label, FormatHours(sc.TotalHours), FormatMoney(sc.TotalCost)})
		}
		b.WriteString("\n" + RenderTable([]string{"SCENARIO", "HOURS", "COST"}, rows))
	}
	return strings.TrimRight(b.String(), "\n")
}
