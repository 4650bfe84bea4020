package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteProjectConnectionRepo implements ProjectConnectionRepo.
type SQLiteProjectConnectionRepo struct {
	db db.DBTX
}

func NewSQLiteProjectConnectionRepo(db db.DBTX) *SQLiteProjectConnectionRepo {
	return &SQLiteProjectConnectionRepo{db: db}
}

func (r *SQLiteProjectConnectionRepo) ListByProject(ctx context.Context, projectID string) ([]domain.ProjectConnection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, from_project_module_id, to_project_module_id
		FROM project_connections WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project connections: %w", err)
	}
	defer rows.Close()

	out := []domain.ProjectConnection{}
	for rows.Next() {
		var c domain.ProjectConnection
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.FromProjectModuleID, &c.ToProjectModuleID); err != nil {
			return nil, fmt.Errorf("scanning project connection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project connections: %w", err)
	}
	return out, nil
}

// ReplaceAll sets the complete connection set of a project and returns the
// stored rows. Both endpoints must be project modules of the same project;
// otherwise nothing is written. Duplicate pairs collapse.
func (r *SQLiteProjectConnectionRepo) ReplaceAll(ctx context.Context, projectID string, conns []domain.ProjectConnection) ([]domain.ProjectConnection, error) {
	ids, err := r.projectModuleIDs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, c := range conns {
		if !ids[c.FromProjectModuleID] || !ids[c.ToProjectModuleID] {
			return nil, domain.ValidationError("connection %s -> %s references a project module outside project %s",
				c.FromProjectModuleID, c.ToProjectModuleID, projectID)
		}
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM project_connections WHERE project_id = ?`, projectID); err != nil {
		return nil, fmt.Errorf("clearing project connections: %w", err)
	}
	for _, c := range conns {
		id := ""
		ensureID(&id)
		_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO project_connections
			(id, project_id, from_project_module_id, to_project_module_id) VALUES (?, ?, ?, ?)`,
			id, projectID, c.FromProjectModuleID, c.ToProjectModuleID)
		if err != nil {
			return nil, writeErr("inserting project connection", err)
		}
	}
	return r.ListByProject(ctx, projectID)
}

func (r *SQLiteProjectConnectionRepo) projectModuleIDs(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM project_modules WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project module ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning project module id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project module ids: %w", err)
	}
	return ids, nil
}
