package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteCoefficientRepo implements CoefficientRepo. Coefficients are unique
// per (project, name).
type SQLiteCoefficientRepo struct {
	db db.DBTX
}

func NewSQLiteCoefficientRepo(db db.DBTX) *SQLiteCoefficientRepo {
	return &SQLiteCoefficientRepo{db: db}
}

func (r *SQLiteCoefficientRepo) Upsert(ctx context.Context, c *domain.Coefficient) error {
	ensureID(&c.ID)
	query := `INSERT INTO project_coefficients (id, project_id, name, multiplier) VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, name) DO UPDATE SET multiplier = excluded.multiplier
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, c.ID, c.ProjectID, c.Name, c.Multiplier).Scan(&c.ID); err != nil {
		return writeErr("upserting coefficient", err)
	}
	return nil
}

func (r *SQLiteCoefficientRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Coefficient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, name, multiplier
		FROM project_coefficients WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing coefficients: %w", err)
	}
	defer rows.Close()

	var out []domain.Coefficient
	for rows.Next() {
		var c domain.Coefficient
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Multiplier); err != nil {
			return nil, fmt.Errorf("scanning coefficient: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating coefficients: %w", err)
	}
	return out, nil
}
