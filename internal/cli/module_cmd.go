package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

func newModuleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Manage the module catalog and project modules",
	}
	cmd.AddCommand(
		newModuleCreateCmd(app),
		newModuleListCmd(app),
		newModuleAddCmd(app),
		newModuleOverrideCmd(app),
		newModuleRemoveCmd(app),
		newModuleConnectCmd(app),
	)
	return cmd
}

func newModuleCreateCmd(app *App) *cobra.Command {
	var m domain.Module
	var roleHours []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a module to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			rh, err := parseRoleHours(roleHours)
			if err != nil {
				return err
			}
			m.RoleHours = rh
			if err := app.Service.CreateModule(cmd.Context(), &m); err != nil {
				return err
			}
			if err := app.Registry.Broadcast(cmd.Context(), graph.EventModuleCatalogChanged); err != nil {
				app.Logger.Warn("catalog refresh failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created module %s %s\n", formatter.Bold(m.Code), formatter.Dim(m.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&m.Code, "code", "", "Unique module code")
	cmd.Flags().StringVar(&m.Name, "name", "", "Module name")
	cmd.Flags().StringVar(&m.Description, "description", "", "Description, also used for keyword matching")
	cmd.Flags().Float64Var(&m.HoursFrontend, "frontend", 0, "Frontend hours")
	cmd.Flags().Float64Var(&m.HoursBackend, "backend", 0, "Backend hours")
	cmd.Flags().Float64Var(&m.HoursQA, "qa", 0, "QA hours")
	cmd.Flags().StringArrayVar(&roleHours, "role-hours", nil, "Extra role hours as role=hours (repeatable)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newModuleListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog modules, or the project's modules with --project",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if p, _ := cmd.Flags().GetString("project"); p != "" || app.Config.Project != "" {
				ws, err := app.workspace(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				st := ws.State()
				fmt.Fprintln(out, formatter.FormatProjectModules(st.ProjectModules, st.Modules))
				if len(st.Connections) > 0 {
					fmt.Fprintln(out, formatter.FormatConnections(st.Connections, st.ProjectModules, st.Modules))
				}
				return nil
			}
			modules, err := app.Service.ListModules(cmd.Context())
			if err != nil {
				return err
			}
			if len(modules) == 0 {
				fmt.Fprintln(out, "No modules found.")
				return nil
			}
			fmt.Fprintln(out, formatter.FormatModuleList(modules))
			return nil
		},
	}
}

func newModuleAddCmd(app *App) *cobra.Command {
	var customName string

	cmd := &cobra.Command{
		Use:   "add <module>",
		Short: "Include a catalog module in the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			m, err := resolveModule(ws.State().Modules, args[0])
			if err != nil {
				return err
			}
			pm, err := ws.AddProjectModule(cmd.Context(), domain.ProjectModule{ModuleID: m.ID, CustomName: customName})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", formatter.Bold(pm.DisplayName(m)), formatter.Dim(pm.ID))
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSummary(ws.Summary()))
			return nil
		},
	}
	cmd.Flags().StringVar(&customName, "name", "", "Custom name within the project")
	return cmd
}

func newModuleOverrideCmd(app *App) *cobra.Command {
	var frontend, backend, qa float64
	var name, uncertainty, uiux string
	var legacy, reset bool

	cmd := &cobra.Command{
		Use:   "override <project-module>",
		Short: "Override hours or settings of a project module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			st := ws.State()
			pm, err := resolveProjectModule(st.ProjectModules, st.Modules, args[0])
			if err != nil {
				return err
			}
			if reset {
				pm.OverrideFrontend, pm.OverrideBackend, pm.OverrideQA = nil, nil, nil
				pm.UncertaintyLevel, pm.UIUXLevel, pm.LegacyCode = nil, nil, nil
			}
			f := cmd.Flags()
			if f.Changed("frontend") {
				pm.OverrideFrontend = &frontend
			}
			if f.Changed("backend") {
				pm.OverrideBackend = &backend
			}
			if f.Changed("qa") {
				pm.OverrideQA = &qa
			}
			if f.Changed("name") {
				pm.CustomName = name
			}
			if f.Changed("uncertainty") {
				pm.UncertaintyLevel = &uncertainty
			}
			if f.Changed("uiux") {
				pm.UIUXLevel = &uiux
			}
			if f.Changed("legacy") {
				pm.LegacyCode = &legacy
			}
			if _, err := ws.UpdateProjectModule(cmd.Context(), pm); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSummary(ws.Summary()))
			return nil
		},
	}
	cmd.Flags().Float64Var(&frontend, "frontend", 0, "Frontend hours override")
	cmd.Flags().Float64Var(&backend, "backend", 0, "Backend hours override")
	cmd.Flags().Float64Var(&qa, "qa", 0, "QA hours override")
	cmd.Flags().StringVar(&name, "name", "", "Custom name")
	cmd.Flags().StringVar(&uncertainty, "uncertainty", "", "Uncertainty level override")
	cmd.Flags().StringVar(&uiux, "uiux", "", "UI/UX level override")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Legacy code override")
	cmd.Flags().BoolVar(&reset, "clear", false, "Drop all overrides before applying flags")
	return cmd
}

func newModuleRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project-module>",
		Short: "Remove a module from the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			st := ws.State()
			pm, err := resolveProjectModule(st.ProjectModules, st.Modules, args[0])
			if err != nil {
				return err
			}
			if err := ws.RemoveProjectModule(cmd.Context(), pm.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", formatter.Dim(pm.ID))
			return nil
		},
	}
}

func newModuleConnectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "connect [from>to ...]",
		Short: "Replace the connections between project modules",
		Long:  "Replace the connections between project modules. With no arguments every connection is removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			st := ws.State()
			conns := make([]domain.ProjectConnection, 0, len(args))
			for _, a := range args {
				from, to, ok := strings.Cut(a, ">")
				if !ok {
					return fmt.Errorf("invalid connection %q (want from>to)", a)
				}
				fromPM, err := resolveProjectModule(st.ProjectModules, st.Modules, strings.TrimSpace(from))
				if err != nil {
					return err
				}
				toPM, err := resolveProjectModule(st.ProjectModules, st.Modules, strings.TrimSpace(to))
				if err != nil {
					return err
				}
				conns = append(conns, domain.ProjectConnection{FromProjectModuleID: fromPM.ID, ToProjectModuleID: toPM.ID})
			}
			stored, err := ws.ReplaceConnections(cmd.Context(), conns)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatConnections(stored, st.ProjectModules, st.Modules))
			return nil
		},
	}
}
