package repository

import (
	"context"

	"github.com/alexanderramin/estima/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type ModuleRepo interface {
	Create(ctx context.Context, m *domain.Module) error
	GetByID(ctx context.Context, id string) (*domain.Module, error)
	GetByCode(ctx context.Context, code string) (*domain.Module, error)
	List(ctx context.Context) ([]domain.Module, error)
	Update(ctx context.Context, m *domain.Module) error
	Delete(ctx context.Context, id string) error
}

type ProjectModuleRepo interface {
	Create(ctx context.Context, pm *domain.ProjectModule) error
	GetByID(ctx context.Context, projectID, id string) (*domain.ProjectModule, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.ProjectModule, error)
	Update(ctx context.Context, pm *domain.ProjectModule) error
	Delete(ctx context.Context, projectID, id string) error
}

type ProjectConnectionRepo interface {
	ListByProject(ctx context.Context, projectID string) ([]domain.ProjectConnection, error)
	ReplaceAll(ctx context.Context, projectID string, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error)
}

type AssignmentRepo interface {
	Upsert(ctx context.Context, a *domain.Assignment) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Assignment, error)
	Delete(ctx context.Context, projectID, id string) error
}

type RateRepo interface {
	Upsert(ctx context.Context, r *domain.Rate) error
	List(ctx context.Context) ([]domain.Rate, error)
}

type CoefficientRepo interface {
	Upsert(ctx context.Context, c *domain.Coefficient) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Coefficient, error)
}

type InfrastructureItemRepo interface {
	Create(ctx context.Context, i *domain.InfrastructureItem) error
	List(ctx context.Context) ([]domain.InfrastructureItem, error)
	Update(ctx context.Context, i *domain.InfrastructureItem) error
	Delete(ctx context.Context, id string) error
}

type ProjectInfrastructureRepo interface {
	Upsert(ctx context.Context, pi *domain.ProjectInfrastructure) error
	ListByProject(ctx context.Context, projectID string) ([]domain.ProjectInfrastructure, error)
}

type GraphNodeRepo interface {
	Create(ctx context.Context, n *domain.GraphNode) error
	GetByID(ctx context.Context, projectID, id string) (*domain.GraphNode, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.GraphNode, error)
	Update(ctx context.Context, n *domain.GraphNode) error
	Delete(ctx context.Context, projectID, id string) error
}

type GraphEdgeRepo interface {
	ListByProject(ctx context.Context, projectID string) ([]domain.GraphEdge, error)
	ReplaceAll(ctx context.Context, projectID string, edges []domain.GraphEdge) error
}

type GraphNoteRepo interface {
	Create(ctx context.Context, n *domain.GraphNote) error
	ListByProject(ctx context.Context, projectID string) ([]domain.GraphNote, error)
	Update(ctx context.Context, n *domain.GraphNote) error
	Delete(ctx context.Context, projectID, id string) error
}

type VersionRepo interface {
	Create(ctx context.Context, v *domain.VersionRecord) error
	GetByID(ctx context.Context, projectID, id string) (*domain.VersionRecord, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.VersionRecord, error)
}
