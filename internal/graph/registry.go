package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/estima/internal/domain"
)

// Registry hands out one Workspace per project. Workspaces of different
// projects share nothing and may be used concurrently.
type Registry struct {
	backend  Backend
	opts     []Option
	observer Observer

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(b Backend, opts ...Option) *Registry {
	return &Registry{
		backend:    b,
		opts:       opts,
		observer:   NewWorkspace("", b, opts...).observer,
		workspaces: make(map[string]*Workspace),
	}
}

func (r *Registry) Backend() Backend {
	return r.backend
}

// Open returns the workspace of projectID, loading it in full the first
// time. A project that does not exist is not kept.
func (r *Registry) Open(ctx context.Context, projectID string) (*Workspace, error) {
	ws := r.workspace(projectID)
	if err := ws.ensureLoaded(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.Close(projectID)
		}
		return nil, fmt.Errorf("opening project %s: %w", projectID, err)
	}
	return ws, nil
}

// Switch makes projectID the one being worked on. A workspace that was
// already loaded is reloaded; a new one gets its first full load.
func (r *Registry) Switch(ctx context.Context, projectID string) (*Workspace, error) {
	ws := r.workspace(projectID)
	if !ws.isLoaded() {
		return r.Open(ctx, projectID)
	}
	if err := ws.Reload(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.Close(projectID)
		}
		return nil, fmt.Errorf("switching to project %s: %w", projectID, err)
	}
	return ws, nil
}

// Close forgets the workspace of projectID.
func (r *Registry) Close(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, projectID)
}

// Open project ids, sorted.
func (r *Registry) Projects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.workspaces))
	for id := range r.workspaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Broadcast refreshes the views of ev in every loaded workspace.
func (r *Registry) Broadcast(ctx context.Context, ev Event) error {
	r.mu.Lock()
	targets := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		targets = append(targets, ws)
	}
	r.mu.Unlock()

	var errs []error
	for _, ws := range targets {
		if !ws.isLoaded() {
			continue
		}
		if err := ws.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", ws.projectID, err))
		}
	}
	return errors.Join(errs...)
}

// UpsertRate writes a global rate and refreshes every loaded workspace. The
// rate is committed before the refresh, so a failed refresh is only
// reported to the observer.
func (r *Registry) UpsertRate(ctx context.Context, rate domain.Rate) (domain.Rate, error) {
	if err := rate.Validate(); err != nil {
		return rate, err
	}
	if err := r.backend.UpsertRate(ctx, &rate); err != nil {
		return rate, fmt.Errorf("upserting rate: %w", err)
	}
	startedAt := time.Now().UTC()
	if err := r.Broadcast(ctx, EventRatesChanged); err != nil {
		r.observer.ObserveOp(ctx, OpEvent{
			Name:      "broadcast",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Err:       err,
			Fields:    map[string]any{"event": string(EventRatesChanged)},
		})
	}
	return rate, nil
}

func (r *Registry) workspace(projectID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[projectID]
	if !ok {
		ws = NewWorkspace(projectID, r.backend, r.opts...)
		r.workspaces[projectID] = ws
	}
	return ws
}

func (w *Workspace) isLoaded() bool {
	w.opMu.Lock()
	defer w.opMu.Unlock()
	return w.loaded
}
