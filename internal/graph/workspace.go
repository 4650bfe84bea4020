package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/estima/internal/domain"
)

// DefaultFanout bounds concurrent refetches during a refresh.
const DefaultFanout = 4

type Option func(*Workspace)

func WithObserver(o Observer) Option {
	return func(w *Workspace) {
		if o != nil {
			w.observer = o
		}
	}
}

func WithFanout(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.fanout = n
		}
	}
}

// Workspace is the entity store of one project. Operations are serialized:
// each runs to completion, including its cascade refresh, before the next
// starts. Reads never wait for an operation in flight; they see the last
// committed state.
type Workspace struct {
	projectID string
	backend   Backend
	observer  Observer
	fanout    int

	opMu   sync.Mutex
	mu     sync.RWMutex
	state  State
	loaded bool
}

func NewWorkspace(projectID string, b Backend, opts ...Option) *Workspace {
	w := &Workspace{
		projectID: projectID,
		backend:   b,
		observer:  NoopObserver{},
		fanout:    DefaultFanout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) ProjectID() string {
	return w.projectID
}

// State returns a copy of the committed state.
func (w *Workspace) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Clone()
}

func (w *Workspace) Project() domain.Project {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Project
}

func (w *Workspace) Nodes() []domain.GraphNode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return cloneNodes(w.state.Nodes)
}

func (w *Workspace) Edges() []domain.GraphEdge {
	return w.State().Edges
}

func (w *Workspace) Notes() []domain.GraphNote {
	return w.State().Notes
}

func (w *Workspace) Connections() []domain.ProjectConnection {
	return w.State().Connections
}

func (w *Workspace) Summary() domain.Summary {
	return w.State().Summary
}

// ListVersions returns version headers, most recent first.
func (w *Workspace) ListVersions() []domain.VersionRecord {
	return w.State().Versions
}

// run serializes op, then refreshes the views of ev and commits them. patch,
// when non-nil, is applied to the staged state before commit.
func (w *Workspace) run(ctx context.Context, name string, fields map[string]any, ev Event, op func(ctx context.Context) (func(*State), error)) (err error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	startedAt := time.Now().UTC()
	if fields == nil {
		fields = map[string]any{}
	}
	defer func() {
		w.observer.ObserveOp(ctx, OpEvent{
			Name:      name,
			ProjectID: w.projectID,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Err:       err,
			Fields:    fields,
		})
	}()

	patch, err := op(ctx)
	if err != nil {
		return err
	}
	return w.refreshLocked(ctx, ev, patch)
}

// refreshLocked requires opMu.
func (w *Workspace) refreshLocked(ctx context.Context, ev Event, patch func(*State)) error {
	started := time.Now()
	w.mu.RLock()
	current := w.state
	w.mu.RUnlock()

	staged, err := Refresh(ctx, w.backend, w.projectID, ViewsFor(ev), current, w.fanout)
	cascadeDuration.WithLabelValues(string(ev)).Observe(time.Since(started).Seconds())
	cascadeRefreshes.WithLabelValues(string(ev), resultLabel(err)).Inc()
	if err != nil {
		return fmt.Errorf("refreshing after %s: %w", ev, err)
	}
	if patch != nil {
		patch(&staged)
	}

	w.mu.Lock()
	w.state = staged
	w.mu.Unlock()
	return nil
}

// Reload refetches every project-scoped view in the fixed switch order.
// Global catalogs stay as they are; catalog events keep them current.
func (w *Workspace) Reload(ctx context.Context) error {
	return w.run(ctx, "reload", nil, EventProjectSwitched, func(context.Context) (func(*State), error) {
		return nil, nil
	})
}

// ensureLoaded performs the initial full reload once.
func (w *Workspace) ensureLoaded(ctx context.Context) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()
	if w.loaded {
		return nil
	}
	if err := w.refreshLocked(ctx, EventProjectOpened, nil); err != nil {
		return err
	}
	w.loaded = true
	return nil
}

// Notify refreshes the views of an event raised outside this workspace,
// such as a catalog change.
func (w *Workspace) Notify(ctx context.Context, ev Event) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()
	return w.refreshLocked(ctx, ev, nil)
}

func (w *Workspace) UpdateSettings(ctx context.Context, s domain.ProjectSettings) (domain.Project, error) {
	var updated domain.Project
	err := w.run(ctx, "update-settings", map[string]any{"uncertainty": s.UncertaintyLevel, "uiux": s.UIUXLevel, "legacy": s.LegacyCode},
		EventSettingsChanged, func(ctx context.Context) (func(*State), error) {
			if err := s.Validate(); err != nil {
				return nil, err
			}
			p, err := w.backend.UpdateProjectSettings(ctx, w.projectID, s)
			if err != nil {
				return nil, fmt.Errorf("updating settings: %w", err)
			}
			updated = *p
			return func(st *State) { st.Project = updated }, nil
		})
	return updated, err
}

func (w *Workspace) AddProjectModule(ctx context.Context, pm domain.ProjectModule) (domain.ProjectModule, error) {
	pm.ProjectID = w.projectID
	err := w.run(ctx, "add-project-module", map[string]any{"module_id": pm.ModuleID}, EventProjectModuleChanged,
		func(ctx context.Context) (func(*State), error) {
			if err := pm.Validate(); err != nil {
				return nil, err
			}
			if err := w.backend.AddProjectModule(ctx, &pm); err != nil {
				return nil, fmt.Errorf("adding project module: %w", err)
			}
			return nil, nil
		})
	return pm, err
}

func (w *Workspace) UpdateProjectModule(ctx context.Context, pm domain.ProjectModule) (domain.ProjectModule, error) {
	pm.ProjectID = w.projectID
	err := w.run(ctx, "update-project-module", map[string]any{"project_module_id": pm.ID}, EventProjectModuleChanged,
		func(ctx context.Context) (func(*State), error) {
			if err := pm.Validate(); err != nil {
				return nil, err
			}
			if err := w.backend.UpdateProjectModule(ctx, &pm); err != nil {
				return nil, fmt.Errorf("updating project module: %w", err)
			}
			return nil, nil
		})
	return pm, err
}

func (w *Workspace) RemoveProjectModule(ctx context.Context, id string) error {
	return w.run(ctx, "remove-project-module", map[string]any{"project_module_id": id}, EventProjectModuleChanged,
		func(ctx context.Context) (func(*State), error) {
			if err := w.backend.RemoveProjectModule(ctx, w.projectID, id); err != nil {
				return nil, fmt.Errorf("removing project module: %w", err)
			}
			return nil, nil
		})
}

// ReplaceConnections sets the complete project-module connection set.
func (w *Workspace) ReplaceConnections(ctx context.Context, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error) {
	var stored []domain.ProjectConnection
	err := w.run(ctx, "replace-connections", map[string]any{"submitted": len(conns)}, EventConnectionsChanged,
		func(ctx context.Context) (func(*State), error) {
			var err error
			stored, err = w.backend.ReplaceProjectConnections(ctx, w.projectID, conns)
			if err != nil {
				return nil, fmt.Errorf("replacing connections: %w", err)
			}
			return nil, nil
		})
	return stored, err
}

// UpsertAssignment sets the level of a role on a project module.
func (w *Workspace) UpsertAssignment(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	a.ProjectID = w.projectID
	ev := EventAssignmentCreated
	for _, existing := range w.State().Assignments {
		if existing.ProjectModuleID == a.ProjectModuleID && existing.Role == a.Role {
			ev = EventAssignmentUpdated
			break
		}
	}
	err := w.run(ctx, "upsert-assignment", map[string]any{"project_module_id": a.ProjectModuleID, "role": a.Role}, ev,
		func(ctx context.Context) (func(*State), error) {
			if err := a.Validate(); err != nil {
				return nil, err
			}
			if err := w.backend.UpsertAssignment(ctx, &a); err != nil {
				return nil, fmt.Errorf("upserting assignment: %w", err)
			}
			return nil, nil
		})
	return a, err
}

func (w *Workspace) DeleteAssignment(ctx context.Context, id string) error {
	return w.run(ctx, "delete-assignment", map[string]any{"assignment_id": id}, EventAssignmentDeleted,
		func(ctx context.Context) (func(*State), error) {
			if err := w.backend.DeleteAssignment(ctx, w.projectID, id); err != nil {
				return nil, fmt.Errorf("deleting assignment: %w", err)
			}
			return nil, nil
		})
}

// UpsertCoefficients writes every coefficient, then refreshes once.
func (w *Workspace) UpsertCoefficients(ctx context.Context, coefs []domain.Coefficient) ([]domain.Coefficient, error) {
	out := make([]domain.Coefficient, len(coefs))
	copy(out, coefs)
	err := w.run(ctx, "upsert-coefficients", map[string]any{"count": len(coefs)}, EventCoefficientsChanged,
		func(ctx context.Context) (func(*State), error) {
			for i := range out {
				out[i].ProjectID = w.projectID
				if err := out[i].Validate(); err != nil {
					return nil, err
				}
			}
			for i := range out {
				if err := w.backend.UpsertCoefficient(ctx, &out[i]); err != nil {
					return nil, fmt.Errorf("upserting coefficient %q: %w", out[i].Name, err)
				}
			}
			return nil, nil
		})
	return out, err
}

func (w *Workspace) UpsertInfrastructure(ctx context.Context, pi domain.ProjectInfrastructure) (domain.ProjectInfrastructure, error) {
	pi.ProjectID = w.projectID
	err := w.run(ctx, "upsert-infrastructure", map[string]any{"item_id": pi.InfrastructureItemID, "quantity": pi.Quantity},
		EventInfrastructureChanged, func(ctx context.Context) (func(*State), error) {
			if err := pi.Validate(); err != nil {
				return nil, err
			}
			if err := w.backend.UpsertProjectInfrastructure(ctx, &pi); err != nil {
				return nil, fmt.Errorf("upserting project infrastructure: %w", err)
			}
			return nil, nil
		})
	return pi, err
}

func (w *Workspace) CreateNode(ctx context.Context, attrs domain.NodeAttrs) (domain.GraphNode, error) {
	node := domain.GraphNode{ProjectID: w.projectID, NodeAttrs: attrs.Clone()}
	node.RoleHours = domain.NormalizeRoleHours(node.RoleHours)
	err := w.run(ctx, "create-node", map[string]any{"title": attrs.Title}, EventNodeEdited,
		func(ctx context.Context) (func(*State), error) {
			if err := node.Validate(); err != nil {
				return nil, err
			}
			if err := w.backend.CreateNode(ctx, &node); err != nil {
				return nil, fmt.Errorf("creating node: %w", err)
			}
			return nil, nil
		})
	return node, err
}

func (w *Workspace) UpdateNode(ctx context.Context, node domain.GraphNode) (domain.GraphNode, error) {
	node.ProjectID = w.projectID
	node.NodeAttrs = node.NodeAttrs.Clone()
	node.RoleHours = domain.NormalizeRoleHours(node.RoleHours)
	err := w.run(ctx, "update-node", map[string]any{"node_id": node.ID}, EventNodeEdited,
		func(ctx context.Context) (func(*State), error) {
			if err := node.Validate(); err != nil {
				return nil, err
			}
			if err := w.backend.UpdateNode(ctx, &node); err != nil {
				return nil, fmt.Errorf("updating node: %w", err)
			}
			return nil, nil
		})
	return node, err
}

// DeleteNode removes a node and every edge touching it.
func (w *Workspace) DeleteNode(ctx context.Context, id string) error {
	return w.run(ctx, "delete-node", map[string]any{"node_id": id}, EventNodeEdited,
		func(ctx context.Context) (func(*State), error) {
			if err := w.backend.DeleteNode(ctx, w.projectID, id); err != nil {
				return nil, fmt.Errorf("deleting node: %w", err)
			}
			return nil, nil
		})
}

// ReplaceEdges sets the complete edge set. Edges whose endpoints are not
// nodes of the project are dropped; the number dropped is returned.
func (w *Workspace) ReplaceEdges(ctx context.Context, edges []domain.GraphEdge) (int, error) {
	var dropped int
	fields := map[string]any{"submitted": len(edges)}
	err := w.run(ctx, "replace-edges", fields, EventEdgesEdited,
		func(ctx context.Context) (func(*State), error) {
			nodes, err := w.backend.ListNodes(ctx, w.projectID)
			if err != nil {
				return nil, fmt.Errorf("listing nodes: %w", err)
			}
			ids := make(map[string]bool, len(nodes))
			for _, n := range nodes {
				ids[n.ID] = true
			}
			var kept []domain.GraphEdge
			kept, dropped = domain.FilterEdges(edges, ids)
			fields["dropped"] = dropped
			if err := w.backend.ReplaceEdges(ctx, w.projectID, kept); err != nil {
				return nil, fmt.Errorf("replacing edges: %w", err)
			}
			return nil, nil
		})
	return dropped, err
}

func (w *Workspace) CreateNote(ctx context.Context, attrs domain.NoteAttrs) (domain.GraphNote, error) {
	note := domain.GraphNote{ProjectID: w.projectID, NoteAttrs: attrs}
	err := w.run(ctx, "create-note", nil, EventNoteEdited, func(ctx context.Context) (func(*State), error) {
		if err := w.backend.CreateNote(ctx, &note); err != nil {
			return nil, fmt.Errorf("creating note: %w", err)
		}
		return nil, nil
	})
	return note, err
}

func (w *Workspace) UpdateNote(ctx context.Context, note domain.GraphNote) (domain.GraphNote, error) {
	note.ProjectID = w.projectID
	err := w.run(ctx, "update-note", map[string]any{"note_id": note.ID}, EventNoteEdited,
		func(ctx context.Context) (func(*State), error) {
			if err := w.backend.UpdateNote(ctx, &note); err != nil {
				return nil, fmt.Errorf("updating note: %w", err)
			}
			return nil, nil
		})
	return note, err
}

func (w *Workspace) DeleteNote(ctx context.Context, id string) error {
	return w.run(ctx, "delete-note", map[string]any{"note_id": id}, EventNoteEdited,
		func(ctx context.Context) (func(*State), error) {
			if err := w.backend.DeleteNote(ctx, w.projectID, id); err != nil {
				return nil, fmt.Errorf("deleting note: %w", err)
			}
			return nil, nil
		})
}

// MergeProposal replaces the live graph with an AI proposal.
func (w *Workspace) MergeProposal(ctx context.Context, p domain.Proposal) (Result, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	fields := map[string]any{"nodes": len(p.Nodes), "edges": len(p.Edges)}
	return w.observeReplace(ctx, "merge-proposal", fields, func(ctx context.Context) (Result, error) {
		modules, err := w.backend.ListModules(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("listing modules: %w", err)
		}
		return w.replaceLocked(ctx, "proposal", IncomingFromProposal(p, modules))
	})
}

// SaveVersion snapshots the live graph under title.
func (w *Workspace) SaveVersion(ctx context.Context, title string) (domain.VersionRecord, error) {
	var rec domain.VersionRecord
	title = strings.TrimSpace(title)
	fields := map[string]any{"title": title}
	err := w.run(ctx, "save-version", fields, EventVersionSaved, func(ctx context.Context) (func(*State), error) {
		if title == "" {
			return nil, domain.ValidationError("version title is required")
		}
		nodes, err := w.backend.ListNodes(ctx, w.projectID)
		if err != nil {
			return nil, fmt.Errorf("listing nodes: %w", err)
		}
		edges, err := w.backend.ListEdges(ctx, w.projectID)
		if err != nil {
			return nil, fmt.Errorf("listing edges: %w", err)
		}
		notes, err := w.backend.ListNotes(ctx, w.projectID)
		if err != nil {
			return nil, fmt.Errorf("listing notes: %w", err)
		}
		snap := SnapshotOf(nodes, edges, notes)
		rec = domain.VersionRecord{ProjectID: w.projectID, Title: title, Snapshot: &snap}
		if err := w.backend.CreateVersion(ctx, &rec); err != nil {
			return nil, fmt.Errorf("creating version: %w", err)
		}
		fields["version_id"] = rec.ID
		fields["nodes"] = len(snap.Nodes)
		return nil, nil
	})
	return rec, err
}

// VersionDetail fetches a version including its snapshot.
func (w *Workspace) VersionDetail(ctx context.Context, versionID string) (domain.VersionRecord, error) {
	rec, err := w.backend.GetVersion(ctx, w.projectID, versionID)
	if err != nil {
		return domain.VersionRecord{}, fmt.Errorf("getting version: %w", err)
	}
	return *rec, nil
}

// ApplyVersion overwrites the live graph with a stored snapshot. The version
// itself is left untouched.
func (w *Workspace) ApplyVersion(ctx context.Context, versionID string) (Result, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	fields := map[string]any{"version_id": versionID}
	return w.observeReplace(ctx, "apply-version", fields, func(ctx context.Context) (Result, error) {
		if applier, ok := w.backend.(VersionApplier); ok {
			return w.applyRemoteLocked(ctx, applier, versionID)
		}
		rec, err := w.backend.GetVersion(ctx, w.projectID, versionID)
		if err != nil {
			return Result{}, fmt.Errorf("getting version: %w", err)
		}
		if rec.Snapshot == nil {
			return Result{}, domain.ValidationError("version %s has no snapshot", versionID)
		}
		modules, err := w.backend.ListModules(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("listing modules: %w", err)
		}
		in := IncomingFromSnapshot(*rec.Snapshot)
		if n := in.DetachUnknownModules(modules); n > 0 {
			fields["detached_modules"] = n
		}
		return w.replaceLocked(ctx, "version", in)
	})
}

func (w *Workspace) applyRemoteLocked(ctx context.Context, applier VersionApplier, versionID string) (Result, error) {
	if err := applier.ApplyVersion(ctx, w.projectID, versionID); err != nil {
		replacements.WithLabelValues("version", "error").Inc()
		return Result{}, fmt.Errorf("applying version: %w", err)
	}
	replacements.WithLabelValues("version", "ok").Inc()
	if err := w.refreshLocked(ctx, EventGraphReplaced, nil); err != nil {
		return Result{}, err
	}
	st := w.State()
	keys := make(map[string]string, len(st.Nodes))
	for _, n := range st.Nodes {
		keys[n.ID] = n.ID
	}
	return Result{
		KeyToID:      keys,
		NodesCreated: len(st.Nodes),
		EdgesCreated: len(st.Edges),
		NotesCreated: len(st.Notes),
	}, nil
}

// replaceLocked runs a graph replacement, atomically when the backend
// supports it, and refreshes the graph views. A partial failure still
// refreshes so the cache reflects what the store actually holds.
func (w *Workspace) replaceLocked(ctx context.Context, source string, in Incoming) (Result, error) {
	var res Result
	var err error
	if runner, ok := w.backend.(AtomicRunner); ok {
		err = runner.RunAtomic(ctx, func(ctx context.Context, b Backend) error {
			var rerr error
			res, rerr = Replace(ctx, b, w.projectID, in)
			return rerr
		})
		var pte *PartialTransactionError
		if errors.As(err, &pte) {
			replacements.WithLabelValues(source, "rolled_back").Inc()
			return Result{}, fmt.Errorf("graph replacement rolled back at %s: %w", pte.Step, pte.Err)
		}
	} else {
		res, err = Replace(ctx, w.backend, w.projectID, in)
	}

	if err != nil {
		if errors.Is(err, ErrPartialTransaction) {
			replacements.WithLabelValues(source, "partial").Inc()
			if rerr := w.refreshLocked(ctx, EventGraphReplaced, nil); rerr != nil {
				return Result{}, errors.Join(err, rerr)
			}
			return Result{}, err
		}
		replacements.WithLabelValues(source, "error").Inc()
		return Result{}, err
	}

	replacements.WithLabelValues(source, "ok").Inc()
	droppedEdges.WithLabelValues(source).Add(float64(res.EdgesDropped))
	if err := w.refreshLocked(ctx, EventGraphReplaced, nil); err != nil {
		return res, err
	}
	return res, nil
}

// observeReplace requires opMu.
func (w *Workspace) observeReplace(ctx context.Context, name string, fields map[string]any, fn func(ctx context.Context) (Result, error)) (res Result, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		fields["nodes_created"] = res.NodesCreated
		fields["edges_created"] = res.EdgesCreated
		fields["edges_dropped"] = res.EdgesDropped
		w.observer.ObserveOp(ctx, OpEvent{
			Name:      name,
			ProjectID: w.projectID,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Err:       err,
			Fields:    fields,
		})
	}()
	return fn(ctx)
}
