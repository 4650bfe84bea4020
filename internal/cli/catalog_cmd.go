package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

func newRateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Manage hourly rates by role and level",
	}

	var r domain.Rate
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the hourly rate of a role and level",
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := app.Registry.UpsertRate(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate %s/%s = %s\n", saved.Role, saved.Level, formatter.FormatMoney(saved.HourlyRate))
			return nil
		},
	}
	set.Flags().StringVar(&r.Role, "role", "", "Role (frontend, backend, qa)")
	set.Flags().StringVar(&r.Level, "level", "", "Level (junior, middle, senior, lead)")
	set.Flags().Float64Var(&r.HourlyRate, "rate", 0, "Hourly rate")
	_ = set.MarkFlagRequired("role")
	_ = set.MarkFlagRequired("level")
	_ = set.MarkFlagRequired("rate")

	list := &cobra.Command{
		Use:   "list",
		Short: "List hourly rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			rates, err := app.Service.ListRates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatRateList(rates))
			return nil
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}

func newCoefCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coef",
		Short: "Manage project coefficients",
	}
	set := &cobra.Command{
		Use:   "set <name> <multiplier>",
		Short: "Set a coefficient multiplier on the project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mult, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid multiplier %q: %w", args[1], err)
			}
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if _, err := ws.UpsertCoefficients(cmd.Context(), []domain.Coefficient{{Name: args[0], Multiplier: mult}}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSummary(ws.Summary()))
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}

func newInfraCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infra",
		Short: "Manage infrastructure items and project usage",
	}

	var item domain.InfrastructureItem
	create := &cobra.Command{
		Use:   "create",
		Short: "Add an infrastructure item to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Service.CreateInfrastructureItem(cmd.Context(), &item); err != nil {
				return err
			}
			if err := app.Registry.Broadcast(cmd.Context(), graph.EventInfrastructureCatalogChanged); err != nil {
				app.Logger.Warn("catalog refresh failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created infrastructure item %s %s\n", formatter.Bold(item.Code), formatter.Dim(item.ID))
			return nil
		},
	}
	create.Flags().StringVar(&item.Code, "code", "", "Unique item code")
	create.Flags().StringVar(&item.Name, "name", "", "Item name")
	create.Flags().StringVar(&item.Description, "description", "", "Description")
	create.Flags().Float64Var(&item.UnitCost, "unit-cost", 0, "Cost per unit")
	_ = create.MarkFlagRequired("code")
	_ = create.MarkFlagRequired("name")

	set := &cobra.Command{
		Use:   "set <code> <quantity>",
		Short: "Set how many units of an item the project uses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			st := ws.State()
			var itemID string
			for _, it := range st.InfraItems {
				if strings.EqualFold(it.Code, args[0]) || it.ID == args[0] {
					itemID = it.ID
					break
				}
			}
			if itemID == "" {
				return fmt.Errorf("infrastructure item not found: %q", args[0])
			}
			pi := domain.ProjectInfrastructure{InfrastructureItemID: itemID, Quantity: qty}
			if _, err := ws.UpsertInfrastructure(cmd.Context(), pi); err != nil {
				return err
			}
			st = ws.State()
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatInfrastructure(st.InfraItems, st.Infrastructure))
			return nil
		},
	}

	cmd.AddCommand(create, set)
	return cmd
}

func newAssignCmd(app *App) *cobra.Command {
	var role, level string

	cmd := &cobra.Command{
		Use:   "assign <project-module>",
		Short: "Assign a seniority level to a role on a project module",
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
			a := domain.Assignment{ProjectModuleID: pm.ID, Role: role, Level: level}
			if _, err := ws.UpsertAssignment(cmd.Context(), a); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSummary(ws.Summary()))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (frontend, backend, qa)")
	cmd.Flags().StringVar(&level, "level", "", "Level (junior, middle, senior, lead)")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}
