package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteAssignmentRepo implements AssignmentRepo. Assignments are unique per
// (project module, role).
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

func NewSQLiteAssignmentRepo(db db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: db}
}

// Upsert inserts the assignment or updates the level of the existing one for
// the same project module and role. a.ID is set to the stored row's id.
func (r *SQLiteAssignmentRepo) Upsert(ctx context.Context, a *domain.Assignment) error {
	ensureID(&a.ID)
	query := `INSERT INTO assignments (id, project_id, project_module_id, role, level) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (project_module_id, role) DO UPDATE SET level = excluded.level
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.ProjectID, a.ProjectModuleID, a.Role, a.Level).Scan(&a.ID)
	if err != nil {
		return writeErr("upserting assignment", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, project_module_id, role, level
		FROM assignments WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.ProjectModuleID, &a.Role, &a.Level); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return out, nil
}

func (r *SQLiteAssignmentRepo) Delete(ctx context.Context, projectID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return requireAffected(res, "assignment", id)
}
