package backend

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/estimate"
	"github.com/alexanderramin/estima/internal/graph"
	"github.com/alexanderramin/estima/internal/repository"
)

type repos struct {
	projects       repository.ProjectRepo
	modules        repository.ModuleRepo
	connections    repository.ProjectConnectionRepo
	projectModules repository.ProjectModuleRepo
	assignments    repository.AssignmentRepo
	rates          repository.RateRepo
	coefficients   repository.CoefficientRepo
	infraItems     repository.InfrastructureItemRepo
	projectInfra   repository.ProjectInfrastructureRepo
	nodes          repository.GraphNodeRepo
	edges          repository.GraphEdgeRepo
	notes          repository.GraphNoteRepo
	versions       repository.VersionRepo
}

func newRepos(conn db.DBTX) repos {
	return repos{
		projects:       repository.NewSQLiteProjectRepo(conn),
		modules:        repository.NewSQLiteModuleRepo(conn),
		connections:    repository.NewSQLiteProjectConnectionRepo(conn),
		projectModules: repository.NewSQLiteProjectModuleRepo(conn),
		assignments:    repository.NewSQLiteAssignmentRepo(conn),
		rates:          repository.NewSQLiteRateRepo(conn),
		coefficients:   repository.NewSQLiteCoefficientRepo(conn),
		infraItems:     repository.NewSQLiteInfrastructureItemRepo(conn),
		projectInfra:   repository.NewSQLiteProjectInfrastructureRepo(conn),
		nodes:          repository.NewSQLiteGraphNodeRepo(conn),
		edges:          repository.NewSQLiteGraphEdgeRepo(conn),
		notes:          repository.NewSQLiteGraphNoteRepo(conn),
		versions:       repository.NewSQLiteVersionRepo(conn),
	}
}

// Local serves a project store from SQLite through the repositories.
type Local struct {
	repos
	uow  db.UnitOfWork // nil inside a transaction
	calc *estimate.Calculator
}

var (
	_ Service            = (*Local)(nil)
	_ graph.AtomicRunner = (*Local)(nil)
)

func NewLocal(conn *sql.DB, calc *estimate.Calculator) *Local {
	return NewLocalWithUoW(conn, db.NewSQLiteUnitOfWork(conn), calc)
}

// NewLocalWithUoW lets tests inject a failing unit of work.
func NewLocalWithUoW(conn db.DBTX, uow db.UnitOfWork, calc *estimate.Calculator) *Local {
	if calc == nil {
		calc = estimate.NewCalculator(estimate.DefaultParams())
	}
	return &Local{repos: newRepos(conn), uow: uow, calc: calc}
}

// RunAtomic runs fn against a transaction-scoped Local. Nested calls join
// the enclosing transaction.
func (l *Local) RunAtomic(ctx context.Context, fn func(ctx context.Context, b graph.Backend) error) error {
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return fn(ctx, tl)
	})
}

func (l *Local) withinTx(ctx context.Context, fn func(ctx context.Context, tl *Local) error) error {
	if l.uow == nil {
		return fn(ctx, l)
	}
	return l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &Local{repos: newRepos(tx), calc: l.calc})
	})
}

// CreateProject stores p together with its default coefficients.
func (l *Local) CreateProject(ctx context.Context, p *domain.Project) error {
	if p.UncertaintyLevel == "" {
		p.UncertaintyLevel = domain.UncertaintyKnown
	}
	if p.UIUXLevel == "" {
		p.UIUXLevel = domain.UIUXMVP
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		if err := tl.projects.Create(ctx, p); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		return tl.seedCoefficients(ctx, p.ID)
	})
}

func (l *Local) seedCoefficients(ctx context.Context, projectID string) error {
	for _, name := range domain.DefaultCoefficientNames {
		c := &domain.Coefficient{ProjectID: projectID, Name: name, Multiplier: 1.0}
		if err := l.coefficients.Upsert(ctx, c); err != nil {
			return fmt.Errorf("seeding coefficient %q: %w", name, err)
		}
	}
	return nil
}

func (l *Local) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return l.projects.List(ctx)
}

func (l *Local) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	return l.projects.GetByID(ctx, projectID)
}

func (l *Local) DeleteProject(ctx context.Context, id string) error {
	return l.projects.Delete(ctx, id)
}

func (l *Local) UpdateProjectSettings(ctx context.Context, projectID string, s domain.ProjectSettings) (*domain.Project, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	p, err := l.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	p.ApplySettings(s)
	if err := l.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Local) ListModules(ctx context.Context) ([]domain.Module, error) {
	return l.modules.List(ctx)
}

func (l *Local) CreateModule(ctx context.Context, m *domain.Module) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return tl.modules.Create(ctx, m)
	})
}

func (l *Local) UpdateModule(ctx context.Context, m *domain.Module) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return tl.modules.Update(ctx, m)
	})
}

func (l *Local) DeleteModule(ctx context.Context, id string) error {
	return l.modules.Delete(ctx, id)
}

func (l *Local) ListProjectConnections(ctx context.Context, projectID string) ([]domain.ProjectConnection, error) {
	return l.connections.ListByProject(ctx, projectID)
}

// ReplaceProjectConnections swaps the connection set of a project in one
// transaction.
func (l *Local) ReplaceProjectConnections(ctx context.Context, projectID string, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error) {
	var stored []domain.ProjectConnection
	err := l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		if _, err := tl.projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		var err error
		stored, err = tl.connections.ReplaceAll(ctx, projectID, conns)
		return err
	})
	return stored, err
}

func (l *Local) ListProjectModules(ctx context.Context, projectID string) ([]domain.ProjectModule, error) {
	return l.projectModules.ListByProject(ctx, projectID)
}

func (l *Local) AddProjectModule(ctx context.Context, pm *domain.ProjectModule) error {
	if err := pm.Validate(); err != nil {
		return err
	}
	return l.projectModules.Create(ctx, pm)
}

func (l *Local) UpdateProjectModule(ctx context.Context, pm *domain.ProjectModule) error {
	if err := pm.Validate(); err != nil {
		return err
	}
	return l.projectModules.Update(ctx, pm)
}

func (l *Local) RemoveProjectModule(ctx context.Context, projectID, id string) error {
	return l.projectModules.Delete(ctx, projectID, id)
}

func (l *Local) ListAssignments(ctx context.Context, projectID string) ([]domain.Assignment, error) {
	return l.assignments.ListByProject(ctx, projectID)
}

// UpsertAssignment rejects project modules of other projects.
func (l *Local) UpsertAssignment(ctx context.Context, a *domain.Assignment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := l.projectModules.GetByID(ctx, a.ProjectID, a.ProjectModuleID); err != nil {
		return err
	}
	return l.assignments.Upsert(ctx, a)
}

func (l *Local) DeleteAssignment(ctx context.Context, projectID, id string) error {
	return l.assignments.Delete(ctx, projectID, id)
}

func (l *Local) ListRates(ctx context.Context) ([]domain.Rate, error) {
	return l.rates.List(ctx)
}

func (l *Local) UpsertRate(ctx context.Context, r *domain.Rate) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return l.rates.Upsert(ctx, r)
}

// ListCoefficients seeds the default coefficients for a project that has
// none.
func (l *Local) ListCoefficients(ctx context.Context, projectID string) ([]domain.Coefficient, error) {
	coefs, err := l.coefficients.ListByProject(ctx, projectID)
	if err != nil || len(coefs) > 0 {
		return coefs, err
	}
	if _, err := l.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if err := l.seedCoefficients(ctx, projectID); err != nil {
		return nil, err
	}
	return l.coefficients.ListByProject(ctx, projectID)
}

func (l *Local) UpsertCoefficient(ctx context.Context, c *domain.Coefficient) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return err
	}
	return l.coefficients.Upsert(ctx, c)
}

func (l *Local) ListInfrastructureItems(ctx context.Context) ([]domain.InfrastructureItem, error) {
	return l.infraItems.List(ctx)
}

func (l *Local) CreateInfrastructureItem(ctx context.Context, it *domain.InfrastructureItem) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return l.infraItems.Create(ctx, it)
}

func (l *Local) UpdateInfrastructureItem(ctx context.Context, it *domain.InfrastructureItem) error {
	if err := it.Validate(); err != nil {
		return err
	}
	return l.infraItems.Update(ctx, it)
}

func (l *Local) DeleteInfrastructureItem(ctx context.Context, id string) error {
	return l.infraItems.Delete(ctx, id)
}

func (l *Local) ListProjectInfrastructure(ctx context.Context, projectID string) ([]domain.ProjectInfrastructure, error) {
	return l.projectInfra.ListByProject(ctx, projectID)
}

func (l *Local) UpsertProjectInfrastructure(ctx context.Context, pi *domain.ProjectInfrastructure) error {
	if err := pi.Validate(); err != nil {
		return err
	}
	return l.projectInfra.Upsert(ctx, pi)
}

func (l *Local) ListNodes(ctx context.Context, projectID string) ([]domain.GraphNode, error) {
	return l.nodes.ListByProject(ctx, projectID)
}

func (l *Local) CreateNode(ctx context.Context, n *domain.GraphNode) error {
	if err := n.Validate(); err != nil {
		return err
	}
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return tl.nodes.Create(ctx, n)
	})
}

func (l *Local) UpdateNode(ctx context.Context, n *domain.GraphNode) error {
	if err := n.Validate(); err != nil {
		return err
	}
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return tl.nodes.Update(ctx, n)
	})
}

func (l *Local) DeleteNode(ctx context.Context, projectID, id string) error {
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return tl.nodes.Delete(ctx, projectID, id)
	})
}

func (l *Local) ListEdges(ctx context.Context, projectID string) ([]domain.GraphEdge, error) {
	return l.edges.ListByProject(ctx, projectID)
}

func (l *Local) ReplaceEdges(ctx context.Context, projectID string, edges []domain.GraphEdge) error {
	return l.withinTx(ctx, func(ctx context.Context, tl *Local) error {
		return tl.edges.ReplaceAll(ctx, projectID, edges)
	})
}

func (l *Local) ListNotes(ctx context.Context, projectID string) ([]domain.GraphNote, error) {
	return l.notes.ListByProject(ctx, projectID)
}

func (l *Local) CreateNote(ctx context.Context, n *domain.GraphNote) error {
	return l.notes.Create(ctx, n)
}

func (l *Local) UpdateNote(ctx context.Context, n *domain.GraphNote) error {
	return l.notes.Update(ctx, n)
}

func (l *Local) DeleteNote(ctx context.Context, projectID, id string) error {
	return l.notes.Delete(ctx, projectID, id)
}

func (l *Local) CreateVersion(ctx context.Context, v *domain.VersionRecord) error {
	v.Title = strings.TrimSpace(v.Title)
	if v.Title == "" {
		return domain.ValidationError("version title is required")
	}
	if v.Snapshot == nil {
		return domain.ValidationError("version %q has no snapshot", v.Title)
	}
	if err := v.Snapshot.Validate(); err != nil {
		return err
	}
	return l.versions.Create(ctx, v)
}

func (l *Local) ListVersions(ctx context.Context, projectID string) ([]domain.VersionRecord, error) {
	return l.versions.ListByProject(ctx, projectID)
}

func (l *Local) GetVersion(ctx context.Context, projectID, id string) (*domain.VersionRecord, error) {
	return l.versions.GetByID(ctx, projectID, id)
}

// Summary computes the estimate of projectID from its stored inputs.
func (l *Local) Summary(ctx context.Context, projectID string) (domain.Summary, error) {
	in, err := l.loadInput(ctx, projectID)
	if err != nil {
		return domain.Summary{}, err
	}
	return l.calc.Summarize(in), nil
}

func (l *Local) Report(ctx context.Context, projectID string) (estimate.Report, error) {
	in, err := l.loadInput(ctx, projectID)
	if err != nil {
		return estimate.Report{}, err
	}
	return l.calc.Report(in), nil
}

func (l *Local) Export(ctx context.Context, projectID, format string, w io.Writer) error {
	report, err := l.Report(ctx, projectID)
	if err != nil {
		return err
	}
	return estimate.Export(w, format, report)
}

func (l *Local) loadInput(ctx context.Context, projectID string) (estimate.Input, error) {
	var in estimate.Input
	p, err := l.projects.GetByID(ctx, projectID)
	if err != nil {
		return in, err
	}
	in.Project = *p
	if in.Modules, err = l.modules.List(ctx); err != nil {
		return in, err
	}
	if in.ProjectModules, err = l.projectModules.ListByProject(ctx, projectID); err != nil {
		return in, err
	}
	if in.Assignments, err = l.assignments.ListByProject(ctx, projectID); err != nil {
		return in, err
	}
	if in.Rates, err = l.rates.List(ctx); err != nil {
		return in, err
	}
	if in.Coefficients, err = l.coefficients.ListByProject(ctx, projectID); err != nil {
		return in, err
	}
	if in.InfraItems, err = l.infraItems.List(ctx); err != nil {
		return in, err
	}
	if in.Infrastructure, err = l.projectInfra.ListByProject(ctx, projectID); err != nil {
		return in, err
	}
	return in, nil
}
