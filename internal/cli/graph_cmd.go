package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/estima/internal/cli/formatter"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

func newGraphCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Work with the project mind-map",
	}

	node := &cobra.Command{Use: "node", Short: "Edit graph nodes"}
	node.AddCommand(newNodeAddCmd(app), newNodeRemoveCmd(app))

	edges := &cobra.Command{Use: "edges", Short: "Edit graph edges"}
	edges.AddCommand(newEdgesSetCmd(app))

	note := &cobra.Command{Use: "note", Short: "Edit graph notes"}
	note.AddCommand(newNoteAddCmd(app))

	cmd.AddCommand(
		newGraphShowCmd(app),
		newGraphProposeCmd(app),
		newGraphMergeCmd(app),
		newGraphParseCmd(app),
		node, edges, note,
	)
	return cmd
}

func showGraph(w io.Writer, ws *graph.Workspace) {
	st := ws.State()
	fmt.Fprintln(w, formatter.FormatGraph(formatter.GraphView{
		Nodes:   st.Nodes,
		Edges:   st.Edges,
		Notes:   st.Notes,
		Modules: st.Modules,
	}))
}

func newGraphShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show nodes, connections and notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			showGraph(cmd.OutOrStdout(), ws)
			return nil
		},
	}
}

func newGraphProposeCmd(app *App) *cobra.Command {
	var outPath string
	var merge bool

	cmd := &cobra.Command{
		Use:   "propose <prompt>",
		Short: "Generate a mind-map proposal from a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			p, err := app.Proposals.Mindmap(cmd.Context(), strings.Join(args, " "), ws.State().Modules)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatProposal(p))

			if outPath != "" {
				data, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding proposal: %w", err)
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("writing proposal: %w", err)
				}
				fmt.Fprintf(out, "Saved proposal to %s\n", outPath)
			}
			if merge {
				return mergeProposal(cmd, ws, p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the proposal as JSON for a later merge")
	cmd.Flags().BoolVar(&merge, "merge", false, "Replace the graph with the proposal right away")
	return cmd
}

func newGraphMergeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <proposal.json>",
		Short: "Replace the graph with a saved proposal (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading proposal: %w", err)
			}
			var p domain.Proposal
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decoding proposal: %w", err)
			}
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			return mergeProposal(cmd, ws, p)
		},
	}
}

func mergeProposal(cmd *cobra.Command, ws *graph.Workspace, p domain.Proposal) error {
	res, err := ws.MergeProposal(cmd.Context(), p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Merged proposal: %s\n",
		formatter.FormatReplaceCounts(res.NodesCreated, res.EdgesCreated, res.EdgesDropped, res.NotesCreated))
	showGraph(cmd.OutOrStdout(), ws)
	return nil
}

func newGraphParseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <prompt>",
		Short: "Break a description into tasks and suggest catalog modules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, err := app.Service.ListModules(cmd.Context())
			if err != nil {
				return err
			}
			res, err := app.Parser.Parse(cmd.Context(), strings.Join(args, " "), modules)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(res.Tasks))
			for _, t := range res.Tasks {
				rows = append(rows, []string{t.Title, formatter.OrDash(t.ModuleCode), fmt.Sprintf("%.2f", t.Confidence)})
			}
			fmt.Fprint(out, formatter.RenderTable([]string{"TASK", "MODULE", "CONFIDENCE"}, rows))
			for _, s := range res.Suggestions {
				fmt.Fprintf(out, "suggest %s (%.2f)\n", formatter.Bold(s.ModuleCode), s.Confidence)
			}
			if res.Rationale != "" {
				fmt.Fprintln(out, formatter.Dim(res.Rationale))
			}
			return nil
		},
	}
}

func newNodeAddCmd(app *App) *cobra.Command {
	var attrs domain.NodeAttrs
	var module string
	var roleHours []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a node to the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if module != "" {
				m, err := resolveModule(ws.State().Modules, module)
				if err != nil {
					return err
				}
				attrs.ModuleID = &m.ID
			}
			if attrs.RoleHours, err = parseRoleHours(roleHours); err != nil {
				return err
			}
			n, err := ws.CreateNode(cmd.Context(), attrs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added node %s %s\n", formatter.Bold(n.Title), formatter.Dim(n.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&attrs.Title, "title", "", "Node title")
	f.StringVar(&attrs.Description, "description", "", "Node description")
	f.StringVar(&module, "module", "", "Catalog module code or id")
	f.Float64Var(&attrs.HoursFrontend, "frontend", 0, "Frontend hours")
	f.Float64Var(&attrs.HoursBackend, "backend", 0, "Backend hours")
	f.Float64Var(&attrs.HoursQA, "qa", 0, "QA hours")
	f.Float64Var(&attrs.PositionX, "x", 0, "Canvas x position")
	f.Float64Var(&attrs.PositionY, "y", 0, "Canvas y position")
	f.StringArrayVar(&roleHours, "role-hours", nil, "Extra role hours as role=hours (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newNodeRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <node>",
		Short: "Remove a node and its connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			id, err := matchID("node", args[0], nodeIDs(ws.Nodes()))
			if err != nil {
				return err
			}
			if err := ws.DeleteNode(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed node %s\n", formatter.Dim(id))
			return nil
		},
	}
}

// newEdgesSetCmd replaces every edge of the graph with the given from>to
// pairs. Endpoints are node ids or unique id prefixes.
func newEdgesSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set [from>to ...]",
		Short: "Replace all graph edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			ids := nodeIDs(ws.Nodes())
			edges := make([]domain.GraphEdge, 0, len(args))
			for _, a := range args {
				from, to, ok := strings.Cut(a, ">")
				if !ok {
					return fmt.Errorf("invalid edge %q (want from>to)", a)
				}
				fromID, err := matchID("node", strings.TrimSpace(from), ids)
				if err != nil {
					return err
				}
				toID, err := matchID("node", strings.TrimSpace(to), ids)
				if err != nil {
					return err
				}
				edges = append(edges, domain.GraphEdge{FromNodeID: fromID, ToNodeID: toID})
			}
			dropped, err := ws.ReplaceEdges(cmd.Context(), edges)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d edges", len(ws.Edges()))
			if dropped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d dropped)", dropped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newNoteAddCmd(app *App) *cobra.Command {
	var attrs domain.NoteAttrs

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a free-text note to the graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.workspace(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			attrs.Content = strings.Join(args, " ")
			n, err := ws.CreateNote(cmd.Context(), attrs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added note %s\n", formatter.Dim(n.ID))
			return nil
		},
	}
	cmd.Flags().Float64Var(&attrs.PositionX, "x", 0, "Canvas x position")
	cmd.Flags().Float64Var(&attrs.PositionY, "y", 0, "Canvas y position")
	return cmd
}
