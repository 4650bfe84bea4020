package graph

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/alexanderramin/estima/internal/domain"
)

type failure struct {
	after int
	err   error
}

// memBackend is an in-memory Backend with call counting and failure
// injection per method.
type memBackend struct {
	mu          sync.Mutex
	seq         int
	projects    map[string]domain.Project
	modules     []domain.Module
	connections []domain.ProjectConnection
	rates       []domain.Rate
	items       []domain.InfrastructureItem
	pms         []domain.ProjectModule
	assignments []domain.Assignment
	coefs       []domain.Coefficient
	infra       []domain.ProjectInfrastructure
	nodes       []domain.GraphNode
	edges       map[string][]domain.GraphEdge
	notes       []domain.GraphNote
	versions    []domain.VersionRecord

	calls    map[string]int
	failures map[string]failure
}

func newMemBackend(projectIDs ...string) *memBackend {
	b := &memBackend{
		projects: make(map[string]domain.Project),
		edges:    make(map[string][]domain.GraphEdge),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
	}
	for _, id := range projectIDs {
		b.projects[id] = *domain.NewProject(id, "Project "+id, "")
	}
	return b
}

// failAfter makes method fail once it has been called more than n times.
func (b *memBackend) failAfter(method string, n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method] = failure{after: n, err: err}
}

func (b *memBackend) resetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = make(map[string]int)
}

func (b *memBackend) callCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// call requires mu.
func (b *memBackend) call(method string) error {
	b.calls[method]++
	if f, ok := b.failures[method]; ok && b.calls[method] > f.after {
		return f.err
	}
	return nil
}

func (b *memBackend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func (b *memBackend) GetProject(_ context.Context, projectID string) (*domain.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("GetProject"); err != nil {
		return nil, err
	}
	p, ok := b.projects[projectID]
	if !ok {
		return nil, domain.NotFoundError("project", projectID)
	}
	return &p, nil
}

func (b *memBackend) UpdateProjectSettings(_ context.Context, projectID string, s domain.ProjectSettings) (*domain.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpdateProjectSettings"); err != nil {
		return nil, err
	}
	p, ok := b.projects[projectID]
	if !ok {
		return nil, domain.NotFoundError("project", projectID)
	}
	p.ApplySettings(s)
	b.projects[projectID] = p
	return &p, nil
}

func (b *memBackend) ListModules(context.Context) ([]domain.Module, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListModules"); err != nil {
		return nil, err
	}
	return slices.Clone(b.modules), nil
}

func (b *memBackend) ListProjectConnections(_ context.Context, projectID string) ([]domain.ProjectConnection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListProjectConnections"); err != nil {
		return nil, err
	}
	return filter(b.connections, func(c domain.ProjectConnection) bool { return c.ProjectID == projectID }), nil
}

func (b *memBackend) ReplaceProjectConnections(_ context.Context, projectID string, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ReplaceProjectConnections"); err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, pm := range b.pms {
		if pm.ProjectID == projectID {
			known[pm.ID] = true
		}
	}
	for _, c := range conns {
		if !known[c.FromProjectModuleID] || !known[c.ToProjectModuleID] {
			return nil, domain.ValidationError("connection references a project module outside project %s", projectID)
		}
	}
	kept := filter(b.connections, func(c domain.ProjectConnection) bool { return c.ProjectID != projectID })
	for _, c := range conns {
		c.ID = b.nextID("conn")
		c.ProjectID = projectID
		kept = append(kept, c)
	}
	b.connections = kept
	return filter(kept, func(c domain.ProjectConnection) bool { return c.ProjectID == projectID }), nil
}

func (b *memBackend) ListProjectModules(_ context.Context, projectID string) ([]domain.ProjectModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListProjectModules"); err != nil {
		return nil, err
	}
	return filter(b.pms, func(pm domain.ProjectModule) bool { return pm.ProjectID == projectID }), nil
}

func (b *memBackend) AddProjectModule(_ context.Context, pm *domain.ProjectModule) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("AddProjectModule"); err != nil {
		return err
	}
	pm.ID = b.nextID("pm")
	b.pms = append(b.pms, *pm)
	return nil
}

func (b *memBackend) UpdateProjectModule(_ context.Context, pm *domain.ProjectModule) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpdateProjectModule"); err != nil {
		return err
	}
	for i := range b.pms {
		if b.pms[i].ID == pm.ID && b.pms[i].ProjectID == pm.ProjectID {
			b.pms[i] = *pm
			return nil
		}
	}
	return domain.NotFoundError("project module", pm.ID)
}

func (b *memBackend) RemoveProjectModule(_ context.Context, projectID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("RemoveProjectModule"); err != nil {
		return err
	}
	n := len(b.pms)
	b.pms = filter(b.pms, func(pm domain.ProjectModule) bool { return pm.ID != id || pm.ProjectID != projectID })
	if len(b.pms) == n {
		return domain.NotFoundError("project module", id)
	}
	return nil
}

func (b *memBackend) ListAssignments(_ context.Context, projectID string) ([]domain.Assignment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListAssignments"); err != nil {
		return nil, err
	}
	return filter(b.assignments, func(a domain.Assignment) bool { return a.ProjectID == projectID }), nil
}

func (b *memBackend) UpsertAssignment(_ context.Context, a *domain.Assignment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpsertAssignment"); err != nil {
		return err
	}
	for i := range b.assignments {
		if b.assignments[i].ProjectModuleID == a.ProjectModuleID && b.assignments[i].Role == a.Role {
			a.ID = b.assignments[i].ID
			b.assignments[i] = *a
			return nil
		}
	}
	a.ID = b.nextID("asg")
	b.assignments = append(b.assignments, *a)
	return nil
}

func (b *memBackend) DeleteAssignment(_ context.Context, projectID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("DeleteAssignment"); err != nil {
		return err
	}
	b.assignments = filter(b.assignments, func(a domain.Assignment) bool { return a.ID != id || a.ProjectID != projectID })
	return nil
}

func (b *memBackend) ListRates(context.Context) ([]domain.Rate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListRates"); err != nil {
		return nil, err
	}
	return slices.Clone(b.rates), nil
}

func (b *memBackend) UpsertRate(_ context.Context, r *domain.Rate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpsertRate"); err != nil {
		return err
	}
	for i := range b.rates {
		if b.rates[i].Role == r.Role && b.rates[i].Level == r.Level {
			r.ID = b.rates[i].ID
			b.rates[i] = *r
			return nil
		}
	}
	r.ID = b.nextID("rate")
	b.rates = append(b.rates, *r)
	return nil
}

func (b *memBackend) ListCoefficients(_ context.Context, projectID string) ([]domain.Coefficient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListCoefficients"); err != nil {
		return nil, err
	}
	return filter(b.coefs, func(c domain.Coefficient) bool { return c.ProjectID == projectID }), nil
}

func (b *memBackend) UpsertCoefficient(_ context.Context, c *domain.Coefficient) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpsertCoefficient"); err != nil {
		return err
	}
	for i := range b.coefs {
		if b.coefs[i].ProjectID == c.ProjectID && b.coefs[i].Name == c.Name {
			c.ID = b.coefs[i].ID
			b.coefs[i] = *c
			return nil
		}
	}
	c.ID = b.nextID("coef")
	b.coefs = append(b.coefs, *c)
	return nil
}

func (b *memBackend) ListInfrastructureItems(context.Context) ([]domain.InfrastructureItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListInfrastructureItems"); err != nil {
		return nil, err
	}
	return slices.Clone(b.items), nil
}

func (b *memBackend) ListProjectInfrastructure(_ context.Context, projectID string) ([]domain.ProjectInfrastructure, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListProjectInfrastructure"); err != nil {
		return nil, err
	}
	return filter(b.infra, func(pi domain.ProjectInfrastructure) bool { return pi.ProjectID == projectID }), nil
}

func (b *memBackend) UpsertProjectInfrastructure(_ context.Context, pi *domain.ProjectInfrastructure) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpsertProjectInfrastructure"); err != nil {
		return err
	}
	for i := range b.infra {
		if b.infra[i].ProjectID == pi.ProjectID && b.infra[i].InfrastructureItemID == pi.InfrastructureItemID {
			pi.ID = b.infra[i].ID
			b.infra[i] = *pi
			return nil
		}
	}
	pi.ID = b.nextID("infra")
	b.infra = append(b.infra, *pi)
	return nil
}

func (b *memBackend) ListNodes(_ context.Context, projectID string) ([]domain.GraphNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListNodes"); err != nil {
		return nil, err
	}
	return cloneNodes(filter(b.nodes, func(n domain.GraphNode) bool { return n.ProjectID == projectID })), nil
}

func (b *memBackend) CreateNode(_ context.Context, n *domain.GraphNode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("CreateNode"); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}
	n.ID = b.nextID("node")
	n.RoleHours = domain.NormalizeRoleHours(n.RoleHours)
	b.nodes = append(b.nodes, domain.GraphNode{ID: n.ID, ProjectID: n.ProjectID, NodeAttrs: n.NodeAttrs.Clone()})
	return nil
}

func (b *memBackend) UpdateNode(_ context.Context, n *domain.GraphNode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpdateNode"); err != nil {
		return err
	}
	for i := range b.nodes {
		if b.nodes[i].ID == n.ID && b.nodes[i].ProjectID == n.ProjectID {
			b.nodes[i].NodeAttrs = n.NodeAttrs.Clone()
			return nil
		}
	}
	return domain.NotFoundError("node", n.ID)
}

func (b *memBackend) DeleteNode(_ context.Context, projectID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("DeleteNode"); err != nil {
		return err
	}
	n := len(b.nodes)
	b.nodes = filter(b.nodes, func(node domain.GraphNode) bool { return node.ID != id || node.ProjectID != projectID })
	if len(b.nodes) == n {
		return domain.NotFoundError("node", id)
	}
	b.edges[projectID] = filter(b.edges[projectID], func(e domain.GraphEdge) bool {
		return e.FromNodeID != id && e.ToNodeID != id
	})
	return nil
}

func (b *memBackend) ListEdges(_ context.Context, projectID string) ([]domain.GraphEdge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListEdges"); err != nil {
		return nil, err
	}
	out := slices.Clone(b.edges[projectID])
	if out == nil {
		out = []domain.GraphEdge{}
	}
	return out, nil
}

func (b *memBackend) ReplaceEdges(_ context.Context, projectID string, edges []domain.GraphEdge) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ReplaceEdges"); err != nil {
		return err
	}
	ids := map[string]bool{}
	for _, n := range b.nodes {
		if n.ProjectID == projectID {
			ids[n.ID] = true
		}
	}
	for _, e := range edges {
		if !ids[e.FromNodeID] || !ids[e.ToNodeID] {
			return domain.ValidationError("edge %s -> %s references an unknown node", e.FromNodeID, e.ToNodeID)
		}
	}
	b.edges[projectID] = slices.Clone(edges)
	return nil
}

func (b *memBackend) ListNotes(_ context.Context, projectID string) ([]domain.GraphNote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListNotes"); err != nil {
		return nil, err
	}
	return filter(b.notes, func(n domain.GraphNote) bool { return n.ProjectID == projectID }), nil
}

func (b *memBackend) CreateNote(_ context.Context, n *domain.GraphNote) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("CreateNote"); err != nil {
		return err
	}
	n.ID = b.nextID("note")
	b.notes = append(b.notes, *n)
	return nil
}

func (b *memBackend) UpdateNote(_ context.Context, n *domain.GraphNote) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpdateNote"); err != nil {
		return err
	}
	for i := range b.notes {
		if b.notes[i].ID == n.ID && b.notes[i].ProjectID == n.ProjectID {
			b.notes[i] = *n
			return nil
		}
	}
	return domain.NotFoundError("note", n.ID)
}

func (b *memBackend) DeleteNote(_ context.Context, projectID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("DeleteNote"); err != nil {
		return err
	}
	n := len(b.notes)
	b.notes = filter(b.notes, func(note domain.GraphNote) bool { return note.ID != id || note.ProjectID != projectID })
	if len(b.notes) == n {
		return domain.NotFoundError("note", id)
	}
	return nil
}

func (b *memBackend) CreateVersion(_ context.Context, v *domain.VersionRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("CreateVersion"); err != nil {
		return err
	}
	v.ID = b.nextID("ver")
	b.versions = append(b.versions, *v)
	return nil
}

func (b *memBackend) ListVersions(_ context.Context, projectID string) ([]domain.VersionRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("ListVersions"); err != nil {
		return nil, err
	}
	var out []domain.VersionRecord
	for i := len(b.versions) - 1; i >= 0; i-- {
		if b.versions[i].ProjectID == projectID {
			out = append(out, b.versions[i].Header())
		}
	}
	return out, nil
}

func (b *memBackend) GetVersion(_ context.Context, projectID, id string) (*domain.VersionRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("GetVersion"); err != nil {
		return nil, err
	}
	for _, v := range b.versions {
		if v.ID == id && v.ProjectID == projectID {
			return &v, nil
		}
	}
	return nil, domain.NotFoundError("version", id)
}

// Summary counts project modules so tests can see it was refetched.
func (b *memBackend) Summary(_ context.Context, projectID string) (domain.Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("Summary"); err != nil {
		return domain.Summary{}, err
	}
	pms := filter(b.pms, func(pm domain.ProjectModule) bool { return pm.ProjectID == projectID })
	return domain.Summary{Totals: domain.SummaryTotals{HoursTotal: float64(len(pms))}}, nil
}

type memState struct {
	nodes []domain.GraphNode
	edges map[string][]domain.GraphEdge
	notes []domain.GraphNote
}

func (b *memBackend) save() memState {
	b.mu.Lock()
	defer b.mu.Unlock()
	edges := make(map[string][]domain.GraphEdge, len(b.edges))
	for k, v := range b.edges {
		edges[k] = slices.Clone(v)
	}
	return memState{nodes: cloneNodes(b.nodes), edges: edges, notes: slices.Clone(b.notes)}
}

func (b *memBackend) restore(s memState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes, b.edges, b.notes = s.nodes, s.edges, s.notes
}

// atomicBackend rolls the graph back when the function fails.
type atomicBackend struct {
	*memBackend
}

func (a atomicBackend) RunAtomic(ctx context.Context, fn func(ctx context.Context, b Backend) error) error {
	saved := a.save()
	if err := fn(ctx, a.memBackend); err != nil {
		a.restore(saved)
		return err
	}
	return nil
}

// applierBackend applies versions server-side and records the calls.
type applierBackend struct {
	*memBackend
	applied []string
}

func (a *applierBackend) ApplyVersion(ctx context.Context, projectID, versionID string) error {
	a.applied = append(a.applied, versionID)
	rec, err := a.GetVersion(ctx, projectID, versionID)
	if err != nil {
		return err
	}
	_, err = Replace(ctx, a.memBackend, projectID, IncomingFromSnapshot(*rec.Snapshot))
	return err
}

func filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
