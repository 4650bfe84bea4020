package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/domain"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectSettingsCmd(app),
		newProjectSwitchCmd(app),
		newProjectRemoveCmd(app),
	)
	return cmd
}

func newProjectCreateCmd(app *App) *cobra.Command {
	var name, description, uncertainty, uiux string
	var legacy bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project with default coefficients",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.NewProject("", name, description)
			p.UncertaintyLevel = domain.CoalesceStr(uncertainty, p.UncertaintyLevel)
			p.UIUXLevel = domain.CoalesceStr(uiux, p.UIUXLevel)
			p.LegacyCode = legacy
			if err := app.Service.CreateProject(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s %s\n", formatter.Bold(p.Name), formatter.Dim(p.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().StringVar(&uncertainty, "uncertainty", "", "Uncertainty level (known, new_tech)")
	cmd.Flags().StringVar(&uiux, "uiux", "", "UI/UX level (mvp, award)")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Project touches legacy code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Service.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectList(projects))
			return nil
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show project settings, modules and estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			st := ws.State()
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectDetail(formatter.ProjectDetail{
				Project:        st.Project,
				ProjectModules: st.ProjectModules,
				Modules:        st.Modules,
				Coefficients:   st.Coefficients,
				Summary:        st.Summary,
			}))
			return nil
		},
	}
}

func newProjectSettingsCmd(app *App) *cobra.Command {
	var uncertainty, uiux string
	var legacy bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Update project estimation settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			current := ws.Project()
			s := current.Settings()
			if cmd.Flags().Changed("uncertainty") {
				s.UncertaintyLevel = uncertainty
			}
			if cmd.Flags().Changed("uiux") {
				s.UIUXLevel = uiux
			}
			if cmd.Flags().Changed("legacy") {
				s.LegacyCode = legacy
			}
			p, err := ws.UpdateSettings(cmd.Context(), s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: uncertainty=%s uiux=%s legacy=%t\n",
				p.Name, p.UncertaintyLevel, p.UIUXLevel, p.LegacyCode)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSummary(ws.Summary()))
			return nil
		},
	}
	cmd.Flags().StringVar(&uncertainty, "uncertainty", "", "Uncertainty level (known, new_tech)")
	cmd.Flags().StringVar(&uiux, "uiux", "", "UI/UX level (mvp, award)")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Project touches legacy code")
	return cmd
}

// newProjectSwitchCmd loads a project's workspace and prints how to make it
// the default for later commands.
func newProjectSwitchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <project>",
		Short: "Load a project and print how to select it by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProjectID(cmd.Context(), app.Service, args[0])
			if err != nil {
				return err
			}
			ws, err := app.Registry.Switch(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Switched to %s\n", formatter.Bold(ws.Project().Name))
			fmt.Fprintln(out, formatter.FormatSummary(ws.Summary()))
			fmt.Fprintf(out, "%s\n", formatter.Dim("export ESTIMA_PROJECT="+id))
			return nil
		},
	}
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project>",
		Short: "Delete a project and everything attached to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProjectID(cmd.Context(), app.Service, args[0])
			if err != nil {
				return err
			}
			if err := app.Service.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			app.Registry.Close(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed project %s\n", formatter.Dim(id))
			return nil
		},
	}
}
