package estimate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alexanderramin/estima/internal/domain"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Export writes r in the requested format. Only CSV is rendered.
func Export(w io.Writer, format string, r Report) error {
	switch format {
	case FormatCSV:
		return ExportCSV(w, r)
	case FormatPDF:
		return domain.ValidationError("pdf export is not supported")
	default:
		return domain.ValidationError("unknown export format %q", format)
	}
}

// ExportCSV writes a semicolon-separated work section followed by an
// infrastructure section.
func ExportCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	records := [][]string{
		{"Work"},
		{"Module", "Role", "Level", "Hours", "Rate", "Cost"},
	}
	for _, l := range r.Work {
		records = append(records, []string{
			l.Module, l.Role, l.Level, formatNumber(l.Hours), formatNumber(l.Rate), formatNumber(l.Cost),
		})
	}
	records = append(records,
		[]string{},
		[]string{"Infrastructure"},
		[]string{"Item", "Quantity", "Unit cost", "Total"},
	)
	for _, l := range r.Infra {
		records = append(records, []string{
			l.Name, strconv.Itoa(l.Quantity), formatNumber(l.UnitCost), formatNumber(l.Total),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv export: %w", err)
	}
	return nil
}

// Filename is the suggested download name for a project export.
func Filename(projectID, format string) string {
	return fmt.Sprintf("project-%s-export.%s", projectID, format)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
