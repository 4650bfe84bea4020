package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/graph"
)

// NewRootCmd creates the top-level "estima" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "estima",
		Short:         "Project estimation with a module catalog and a versioned mind-map",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Service != nil {
				app.ensureDefaults()
				return nil
			}
			return app.connect(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default ./estima.yaml)")
	pf.String("db", "", "SQLite database path")
	pf.String("remote", "", "Base URL of an estima server; uses the HTTP backend")
	pf.StringP("project", "p", "", "Project id, id prefix or name")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.Int("fanout", graph.DefaultFanout, "Concurrent view refreshes per cascade")

	root.AddCommand(
		newServeCmd(app),
		newProjectCmd(app),
		newModuleCmd(app),
		newRateCmd(app),
		newCoefCmd(app),
		newInfraCmd(app),
		newAssignCmd(app),
		newGraphCmd(app),
		newVersionCmd(app),
		newSummaryCmd(app),
		newExportCmd(app),
	)
	return root
}
