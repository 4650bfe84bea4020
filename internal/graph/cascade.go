package graph

import (
	"context"
	"fmt"
	"slices"

	"github.com/alexanderramin/estima/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Event is a mutation of a tracked input.
type Event string

const (
	EventSettingsChanged              Event = "settings_changed"
	EventProjectModuleChanged         Event = "project_module_changed"
	EventRatesChanged                 Event = "rates_changed"
	EventCoefficientsChanged          Event = "coefficients_changed"
	EventInfrastructureChanged        Event = "infrastructure_changed"
	EventAssignmentCreated            Event = "assignment_created"
	EventAssignmentUpdated            Event = "assignment_updated"
	EventAssignmentDeleted            Event = "assignment_deleted"
	EventGraphReplaced                Event = "graph_replaced"
	EventProjectOpened                Event = "project_opened"
	EventProjectSwitched              Event = "project_switched"
	EventConnectionsChanged           Event = "connections_changed"
	EventModuleCatalogChanged         Event = "module_catalog_changed"
	EventInfrastructureCatalogChanged Event = "infrastructure_catalog_changed"
	EventNodeEdited                   Event = "node_edited"
	EventNoteEdited                   Event = "note_edited"
	EventEdgesEdited                  Event = "edges_edited"
	EventVersionSaved                 Event = "version_saved"
)

// View is a derived slice of workspace state that can be refetched.
type View string

const (
	ViewProject        View = "project"
	ViewModules        View = "modules"
	ViewConnections    View = "connections"
	ViewRates          View = "rates"
	ViewInfraItems     View = "infrastructure_items"
	ViewProjectModules View = "project_modules"
	ViewAssignments    View = "assignments"
	ViewCoefficients   View = "coefficients"
	ViewInfrastructure View = "project_infrastructure"
	ViewNodes          View = "nodes"
	ViewEdges          View = "edges"
	ViewNotes          View = "notes"
	ViewVersions       View = "versions"
	ViewSummary        View = "summary"
)

var cascade = map[Event][]View{
	EventSettingsChanged:       {ViewSummary},
	EventProjectModuleChanged:  {ViewProjectModules, ViewSummary},
	EventRatesChanged:          {ViewRates, ViewSummary},
	EventCoefficientsChanged:   {ViewCoefficients, ViewSummary},
	EventInfrastructureChanged: {ViewInfrastructure, ViewSummary},
	EventAssignmentCreated:     {ViewAssignments, ViewSummary},
	EventAssignmentUpdated:     {ViewAssignments, ViewSummary},
	EventAssignmentDeleted:     {ViewAssignments, ViewSummary},
	EventGraphReplaced:         {ViewNodes, ViewEdges, ViewNotes, ViewSummary},
	EventProjectSwitched: {
		ViewProject,
		ViewProjectModules,
		ViewAssignments,
		ViewConnections,
		ViewCoefficients,
		ViewInfrastructure,
		ViewNodes,
		ViewEdges,
		ViewNotes,
		ViewVersions,
		ViewSummary,
	},
	// The first load of a workspace also brings in the global catalogs,
	// which are kept current afterwards by catalog events.
	EventProjectOpened: {
		ViewProject,
		ViewModules,
		ViewRates,
		ViewInfraItems,
		ViewProjectModules,
		ViewAssignments,
		ViewConnections,
		ViewCoefficients,
		ViewInfrastructure,
		ViewNodes,
		ViewEdges,
		ViewNotes,
		ViewVersions,
		ViewSummary,
	},
	EventConnectionsChanged:           {ViewConnections},
	EventModuleCatalogChanged:         {ViewModules, ViewProjectModules, ViewConnections, ViewSummary},
	EventInfrastructureCatalogChanged: {ViewInfraItems, ViewInfrastructure, ViewSummary},
	EventNodeEdited:                   {ViewNodes, ViewEdges, ViewSummary},
	EventNoteEdited:                   {ViewNotes},
	EventEdgesEdited:                  {ViewEdges},
	EventVersionSaved:                 {ViewVersions},
}

// ViewsFor returns the views refreshed after ev, in refresh order. Unknown
// events refresh nothing.
func ViewsFor(ev Event) []View {
	return slices.Clone(cascade[ev])
}

// State is the cached view of one project.
type State struct {
	Project        domain.Project
	Modules        []domain.Module
	Connections    []domain.ProjectConnection
	Rates          []domain.Rate
	InfraItems     []domain.InfrastructureItem
	ProjectModules []domain.ProjectModule
	Assignments    []domain.Assignment
	Coefficients   []domain.Coefficient
	Infrastructure []domain.ProjectInfrastructure
	Nodes          []domain.GraphNode
	Edges          []domain.GraphEdge
	Notes          []domain.GraphNote
	Versions       []domain.VersionRecord
	Summary        domain.Summary
}

// Clone copies every slice so the result shares no backing arrays with s.
func (s State) Clone() State {
	out := s
	out.Modules = slices.Clone(s.Modules)
	out.Connections = slices.Clone(s.Connections)
	out.Rates = slices.Clone(s.Rates)
	out.InfraItems = slices.Clone(s.InfraItems)
	out.ProjectModules = slices.Clone(s.ProjectModules)
	out.Assignments = slices.Clone(s.Assignments)
	out.Coefficients = slices.Clone(s.Coefficients)
	out.Infrastructure = slices.Clone(s.Infrastructure)
	out.Nodes = cloneNodes(s.Nodes)
	out.Edges = slices.Clone(s.Edges)
	out.Notes = slices.Clone(s.Notes)
	out.Versions = slices.Clone(s.Versions)
	out.Summary.Scenarios = slices.Clone(s.Summary.Scenarios)
	return out
}

func cloneNodes(nodes []domain.GraphNode) []domain.GraphNode {
	if nodes == nil {
		return nil
	}
	out := make([]domain.GraphNode, len(nodes))
	for i, n := range nodes {
		out[i] = domain.GraphNode{ID: n.ID, ProjectID: n.ProjectID, NodeAttrs: n.NodeAttrs.Clone()}
	}
	return out
}

type fetchFunc func(ctx context.Context, b Backend, projectID string, st *State) error

var fetchers = map[View]fetchFunc{
	ViewProject: func(ctx context.Context, b Backend, projectID string, st *State) error {
		p, err := b.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		st.Project = *p
		return nil
	},
	ViewModules: func(ctx context.Context, b Backend, _ string, st *State) (err error) {
		st.Modules, err = b.ListModules(ctx)
		return err
	},
	ViewConnections: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Connections, err = b.ListProjectConnections(ctx, projectID)
		return err
	},
	ViewRates: func(ctx context.Context, b Backend, _ string, st *State) (err error) {
		st.Rates, err = b.ListRates(ctx)
		return err
	},
	ViewInfraItems: func(ctx context.Context, b Backend, _ string, st *State) (err error) {
		st.InfraItems, err = b.ListInfrastructureItems(ctx)
		return err
	},
	ViewProjectModules: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.ProjectModules, err = b.ListProjectModules(ctx, projectID)
		return err
	},
	ViewAssignments: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Assignments, err = b.ListAssignments(ctx, projectID)
		return err
	},
	ViewCoefficients: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Coefficients, err = b.ListCoefficients(ctx, projectID)
		return err
	},
	ViewInfrastructure: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Infrastructure, err = b.ListProjectInfrastructure(ctx, projectID)
		return err
	},
	ViewNodes: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Nodes, err = b.ListNodes(ctx, projectID)
		return err
	},
	ViewEdges: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Edges, err = b.ListEdges(ctx, projectID)
		return err
	},
	ViewNotes: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Notes, err = b.ListNotes(ctx, projectID)
		return err
	},
	ViewVersions: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Versions, err = b.ListVersions(ctx, projectID)
		return err
	},
	ViewSummary: func(ctx context.Context, b Backend, projectID string, st *State) (err error) {
		st.Summary, err = b.Summary(ctx, projectID)
		return err
	},
}

// Refresh refetches views into a copy of current and returns the copy.
// Views other than the summary are fetched concurrently, at most limit at a
// time; the summary is fetched after they have all landed. On any failure
// the staged copy is discarded and current is left as it was.
func Refresh(ctx context.Context, b Backend, projectID string, views []View, current State, limit int) (State, error) {
	staged := current.Clone()

	var summary bool
	var independent []View
	for _, v := range views {
		if v == ViewSummary {
			summary = true
			continue
		}
		if !slices.Contains(independent, v) {
			independent = append(independent, v)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, v := range independent {
		fetch, ok := fetchers[v]
		if !ok {
			return current, fmt.Errorf("no fetcher for view %q", v)
		}
		g.Go(func() error {
			if err := fetch(gctx, b, projectID, &staged); err != nil {
				return fmt.Errorf("refreshing %s: %w", v, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return current, err
	}

	if summary {
		if err := fetchers[ViewSummary](ctx, b, projectID, &staged); err != nil {
			return current, fmt.Errorf("refreshing %s: %w", ViewSummary, err)
		}
	}
	return staged, nil
}
