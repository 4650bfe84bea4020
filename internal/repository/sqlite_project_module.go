package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteProjectModuleRepo implements ProjectModuleRepo.
type SQLiteProjectModuleRepo struct {
	db db.DBTX
}

func NewSQLiteProjectModuleRepo(db db.DBTX) *SQLiteProjectModuleRepo {
	return &SQLiteProjectModuleRepo{db: db}
}

const projectModuleColumns = `id, project_id, module_id, custom_name, override_frontend, override_backend, override_qa,
	uncertainty_level, uiux_level, legacy_code`

func (r *SQLiteProjectModuleRepo) Create(ctx context.Context, pm *domain.ProjectModule) error {
	ensureID(&pm.ID)
	query := `INSERT INTO project_modules (` + projectModuleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		pm.ID, pm.ProjectID, pm.ModuleID, pm.CustomName,
		nullableFloat(pm.OverrideFrontend), nullableFloat(pm.OverrideBackend), nullableFloat(pm.OverrideQA),
		nullableString(pm.UncertaintyLevel), nullableString(pm.UIUXLevel), nullableBool(pm.LegacyCode),
	)
	if err != nil {
		return writeErr("inserting project module", err)
	}
	return nil
}

func (r *SQLiteProjectModuleRepo) GetByID(ctx context.Context, projectID, id string) (*domain.ProjectModule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectModuleColumns+` FROM project_modules WHERE project_id = ? AND id = ?`, projectID, id)
	pm, err := scanProjectModule(row)
	if err != nil {
		return nil, readErr("project module", id, err)
	}
	return pm, nil
}

func (r *SQLiteProjectModuleRepo) ListByProject(ctx context.Context, projectID string) ([]domain.ProjectModule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectModuleColumns+` FROM project_modules WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project modules: %w", err)
	}
	defer rows.Close()

	var out []domain.ProjectModule
	for rows.Next() {
		pm, err := scanProjectModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project module: %w", err)
		}
		out = append(out, *pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project modules: %w", err)
	}
	return out, nil
}

// Update writes every override column; nil clears the override.
func (r *SQLiteProjectModuleRepo) Update(ctx context.Context, pm *domain.ProjectModule) error {
	query := `UPDATE project_modules SET custom_name = ?, override_frontend = ?, override_backend = ?, override_qa = ?,
		uncertainty_level = ?, uiux_level = ?, legacy_code = ?
		WHERE project_id = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, query,
		pm.CustomName,
		nullableFloat(pm.OverrideFrontend), nullableFloat(pm.OverrideBackend), nullableFloat(pm.OverrideQA),
		nullableString(pm.UncertaintyLevel), nullableString(pm.UIUXLevel), nullableBool(pm.LegacyCode),
		pm.ProjectID, pm.ID,
	)
	if err != nil {
		return writeErr("updating project module", err)
	}
	return requireAffected(res, "project module", pm.ID)
}

func (r *SQLiteProjectModuleRepo) Delete(ctx context.Context, projectID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM project_modules WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("deleting project module: %w", err)
	}
	return requireAffected(res, "project module", id)
}

func scanProjectModule(s scanner) (*domain.ProjectModule, error) {
	var pm domain.ProjectModule
	var fe, be, qa sql.NullFloat64
	var unc, uiux sql.NullString
	var legacy sql.NullInt64
	if err := s.Scan(&pm.ID, &pm.ProjectID, &pm.ModuleID, &pm.CustomName, &fe, &be, &qa, &unc, &uiux, &legacy); err != nil {
		return nil, err
	}
	pm.OverrideFrontend = floatPtr(fe)
	pm.OverrideBackend = floatPtr(be)
	pm.OverrideQA = floatPtr(qa)
	pm.UncertaintyLevel = stringPtr(unc)
	pm.UIUXLevel = stringPtr(uiux)
	pm.LegacyCode = boolPtr(legacy)
	return &pm, nil
}
