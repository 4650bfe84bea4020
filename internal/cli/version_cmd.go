package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

func newVersionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Save, inspect and restore graph versions",
	}
	cmd.AddCommand(
		newVersionSaveCmd(app),
		newVersionListCmd(app),
		newVersionShowCmd(app),
		newVersionApplyCmd(app),
	)
	return cmd
}

func resolveVersionID(ws *graph.Workspace, input string) (string, error) {
	versions := ws.ListVersions()
	ids := make([]string, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	return matchID("version", input, ids)
}

func newVersionSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save <title>",
		Short: "Snapshot the current graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			rec, err := ws.SaveVersion(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved version %s %s\n", formatter.Bold(rec.Title), formatter.Dim(rec.ID))
			return nil
		},
	}
}

func newVersionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved versions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatVersionList(ws.ListVersions()))
			return nil
		},
	}
}

// versionDocument is the YAML shape printed by version show.
type versionDocument struct {
	ID       string           `yaml:"id"`
	Title    string           `yaml:"title"`
	Created  string           `yaml:"created_at"`
	Snapshot *domain.Snapshot `yaml:"snapshot"`
}

func newVersionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <version>",
		Short: "Print a version and its snapshot as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			id, err := resolveVersionID(ws, args[0])
			if err != nil {
				return err
			}
			rec, err := ws.VersionDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(versionDocument{
				ID:       rec.ID,
				Title:    rec.Title,
				Created:  rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
				Snapshot: rec.Snapshot,
			}); err != nil {
				return fmt.Errorf("encoding version: %w", err)
			}
			return enc.Close()
		},
	}
}

func newVersionApplyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <version>",
		Short: "Replace the live graph with a saved version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			id, err := resolveVersionID(ws, args[0])
			if err != nil {
				return err
			}
			res, err := ws.ApplyVersion(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied version: %s\n",
				formatter.FormatReplaceCounts(res.NodesCreated, res.EdgesCreated, res.EdgesDropped, res.NotesCreated))
			return nil
		},
	}
}
