package backend

import (
	"context"
	"io"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/graph"
)

// Service is a graph.Backend plus the catalog and project CRUD that sits
// outside any single workspace. Local and Client both implement it.
type Service interface {
	graph.Backend

	CreateProject(ctx context.Context, p *domain.Project) error
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateModule(ctx context.Context, m *domain.Module) error
	UpdateModule(ctx context.Context, m *domain.Module) error
	DeleteModule(ctx context.Context, id string) error

	CreateInfrastructureItem(ctx context.Context, it *domain.InfrastructureItem) error
	UpdateInfrastructureItem(ctx context.Context, it *domain.InfrastructureItem) error
	DeleteInfrastructureItem(ctx context.Context, id string) error

	// Export writes the project estimate in format (csv) to w.
	Export(ctx context.Context, projectID, format string, w io.Writer) error
}
