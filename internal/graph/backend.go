package graph

import (
	"context"

	"github.com/alexanderramin/estima/internal/domain"
)

// ProjectStore reads and updates the project root aggregate.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	UpdateProjectSettings(ctx context.Context, projectID string, s domain.ProjectSettings) (*domain.Project, error)
}

// ModuleCatalog exposes the global module catalog.
type ModuleCatalog interface {
	ListModules(ctx context.Context) ([]domain.Module, error)
}

type ProjectModuleStore interface {
	ListProjectModules(ctx context.Context, projectID string) ([]domain.ProjectModule, error)
	AddProjectModule(ctx context.Context, pm *domain.ProjectModule) error
	UpdateProjectModule(ctx context.Context, pm *domain.ProjectModule) error
	RemoveProjectModule(ctx context.Context, projectID, id string) error
}

// ConnectionStore replaces the project-module connections of a project in
// bulk and returns what was stored.
type ConnectionStore interface {
	ListProjectConnections(ctx context.Context, projectID string) ([]domain.ProjectConnection, error)
	ReplaceProjectConnections(ctx context.Context, projectID string, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error)
}

type AssignmentStore interface {
	ListAssignments(ctx context.Context, projectID string) ([]domain.Assignment, error)
	UpsertAssignment(ctx context.Context, a *domain.Assignment) error
	DeleteAssignment(ctx context.Context, projectID, id string) error
}

type RateStore interface {
	ListRates(ctx context.Context) ([]domain.Rate, error)
	UpsertRate(ctx context.Context, r *domain.Rate) error
}

type CoefficientStore interface {
	ListCoefficients(ctx context.Context, projectID string) ([]domain.Coefficient, error)
	UpsertCoefficient(ctx context.Context, c *domain.Coefficient) error
}

type InfrastructureStore interface {
	ListInfrastructureItems(ctx context.Context) ([]domain.InfrastructureItem, error)
	ListProjectInfrastructure(ctx context.Context, projectID string) ([]domain.ProjectInfrastructure, error)
	UpsertProjectInfrastructure(ctx context.Context, pi *domain.ProjectInfrastructure) error
}

type NodeStore interface {
	ListNodes(ctx context.Context, projectID string) ([]domain.GraphNode, error)
	CreateNode(ctx context.Context, n *domain.GraphNode) error
	UpdateNode(ctx context.Context, n *domain.GraphNode) error
	DeleteNode(ctx context.Context, projectID, id string) error
}

// EdgeStore replaces the edge set of a project in bulk. There is no
// incremental add or remove.
type EdgeStore interface {
	ListEdges(ctx context.Context, projectID string) ([]domain.GraphEdge, error)
	ReplaceEdges(ctx context.Context, projectID string, edges []domain.GraphEdge) error
}

type NoteStore interface {
	ListNotes(ctx context.Context, projectID string) ([]domain.GraphNote, error)
	CreateNote(ctx context.Context, n *domain.GraphNote) error
	UpdateNote(ctx context.Context, n *domain.GraphNote) error
	DeleteNote(ctx context.Context, projectID, id string) error
}

// VersionStore is append-only. ListVersions returns headers without
// snapshots, most recent first.
type VersionStore interface {
	CreateVersion(ctx context.Context, v *domain.VersionRecord) error
	ListVersions(ctx context.Context, projectID string) ([]domain.VersionRecord, error)
	GetVersion(ctx context.Context, projectID, id string) (*domain.VersionRecord, error)
}

type SummaryReader interface {
	Summary(ctx context.Context, projectID string) (domain.Summary, error)
}

// GraphStore is what a graph replacement needs.
type GraphStore interface {
	NodeStore
	EdgeStore
	NoteStore
}

// Backend is the persistence collaborator behind a Workspace.
type Backend interface {
	ProjectStore
	ModuleCatalog
	ProjectModuleStore
	ConnectionStore
	AssignmentStore
	RateStore
	CoefficientStore
	InfrastructureStore
	GraphStore
	VersionStore
	SummaryReader
}

// AtomicRunner is implemented by backends that can run fn against a
// transactional view of themselves. When fn returns an error nothing it
// wrote is kept.
type AtomicRunner interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context, b Backend) error) error
}

// VersionApplier is implemented by backends that apply a stored version
// server-side.
type VersionApplier interface {
	ApplyVersion(ctx context.Context, projectID, versionID string) error
}
