package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteInfrastructureItemRepo implements InfrastructureItemRepo.
type SQLiteInfrastructureItemRepo struct {
	db db.DBTX
}

func NewSQLiteInfrastructureItemRepo(db db.DBTX) *SQLiteInfrastructureItemRepo {
	return &SQLiteInfrastructureItemRepo{db: db}
}

func (r *SQLiteInfrastructureItemRepo) Create(ctx context.Context, i *domain.InfrastructureItem) error {
	ensureID(&i.ID)
	_, err := r.db.ExecContext(ctx, `INSERT INTO infrastructure_items (id, code, name, description, unit_cost) VALUES (?, ?, ?, ?, ?)`,
		i.ID, i.Code, i.Name, i.Description, i.UnitCost)
	if err != nil {
		return writeErr("inserting infrastructure item", err)
	}
	return nil
}

func (r *SQLiteInfrastructureItemRepo) List(ctx context.Context) ([]domain.InfrastructureItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, code, name, description, unit_cost FROM infrastructure_items ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing infrastructure items: %w", err)
	}
	defer rows.Close()

	var out []domain.InfrastructureItem
	for rows.Next() {
		var i domain.InfrastructureItem
		if err := rows.Scan(&i.ID, &i.Code, &i.Name, &i.Description, &i.UnitCost); err != nil {
			return nil, fmt.Errorf("scanning infrastructure item: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating infrastructure items: %w", err)
	}
	return out, nil
}

func (r *SQLiteInfrastructureItemRepo) Update(ctx context.Context, i *domain.InfrastructureItem) error {
	res, err := r.db.ExecContext(ctx, `UPDATE infrastructure_items SET code = ?, name = ?, description = ?, unit_cost = ? WHERE id = ?`,
		i.Code, i.Name, i.Description, i.UnitCost, i.ID)
	if err != nil {
		return writeErr("updating infrastructure item", err)
	}
	return requireAffected(res, "infrastructure item", i.ID)
}

func (r *SQLiteInfrastructureItemRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM infrastructure_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting infrastructure item: %w", err)
	}
	return requireAffected(res, "infrastructure item", id)
}

// SQLiteProjectInfrastructureRepo implements ProjectInfrastructureRepo.
type SQLiteProjectInfrastructureRepo struct {
	db db.DBTX
}

func NewSQLiteProjectInfrastructureRepo(db db.DBTX) *SQLiteProjectInfrastructureRepo {
	return &SQLiteProjectInfrastructureRepo{db: db}
}

// Upsert sets the quantity of an item for a project, creating the allocation
// on first use.
func (r *SQLiteProjectInfrastructureRepo) Upsert(ctx context.Context, pi *domain.ProjectInfrastructure) error {
	ensureID(&pi.ID)
	query := `INSERT INTO project_infrastructure (id, project_id, infrastructure_item_id, quantity) VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, infrastructure_item_id) DO UPDATE SET quantity = excluded.quantity
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, pi.ID, pi.ProjectID, pi.InfrastructureItemID, pi.Quantity).Scan(&pi.ID); err != nil {
		return writeErr("upserting project infrastructure", err)
	}
	return nil
}

func (r *SQLiteProjectInfrastructureRepo) ListByProject(ctx context.Context, projectID string) ([]domain.ProjectInfrastructure, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, infrastructure_item_id, quantity
		FROM project_infrastructure WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project infrastructure: %w", err)
	}
	defer rows.Close()

	var out []domain.ProjectInfrastructure
	for rows.Next() {
		var pi domain.ProjectInfrastructure
		if err := rows.Scan(&pi.ID, &pi.ProjectID, &pi.InfrastructureItemID, &pi.Quantity); err != nil {
			return nil, fmt.Errorf("scanning project infrastructure: %w", err)
		}
		out = append(out, pi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project infrastructure: %w", err)
	}
	return out, nil
}
