package formatter

import (
	"github.com/alexanderramin/estima/internal/domain"
)

// FormatVersionList renders version headers, most recent first as given.
func FormatVersionList(versions []domain.VersionRecord) string {
	if len(versions) == 0 {
		return Dim("No versions saved.")
	}
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			Dim(TruncID(v.ID)),
			Bold(v.Title),
			v.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return RenderTable([]string{"ID", "TITLE", "SAVED"}, rows)
}
