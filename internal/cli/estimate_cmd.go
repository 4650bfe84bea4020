package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/estimate"
)

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the project estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSummary(ws.Summary()))
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:       "export <format>",
		Short:     "Export the estimate breakdown (csv)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{estimate.FormatCSV},
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			format := args[0]
			if outPath == "" {
				return app.Service.Export(cmd.Context(), ws.ProjectID(), format, cmd.OutOrStdout())
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if err := app.Service.Export(cmd.Context(), ws.ProjectID(), format, f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}
