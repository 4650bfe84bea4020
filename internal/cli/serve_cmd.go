package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config.Remote != "" {
				return errors.New("serve cannot run with --remote")
			}
			return api.Start(cmd.Context(), api.StartOpts{
				Service:   app.Service,
				Registry:  app.Registry,
				Proposals: app.Proposals,
				Parser:    app.Parser,
				Addr:      app.Config.Listen,
				Logger:    app.Logger,
				Out:       cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().String("listen", "", "Listen address (default :8080)")
	return cmd
}
