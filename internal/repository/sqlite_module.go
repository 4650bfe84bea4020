package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteModuleRepo implements ModuleRepo. Role hours live in module_role_hours
// and are replaced wholesale on every write.
type SQLiteModuleRepo struct {
	db db.DBTX
}

func NewSQLiteModuleRepo(db db.DBTX) *SQLiteModuleRepo {
	return &SQLiteModuleRepo{db: db}
}

const moduleColumns = `id, code, name, description, hours_frontend, hours_backend, hours_qa`

func (r *SQLiteModuleRepo) Create(ctx context.Context, m *domain.Module) error {
	ensureID(&m.ID)
	query := `INSERT INTO modules (` + moduleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Code, m.Name, m.Description, m.HoursFrontend, m.HoursBackend, m.HoursQA)
	if err != nil {
		return writeErr("inserting module", err)
	}
	return r.replaceRoleHours(ctx, m)
}

func (r *SQLiteModuleRepo) GetByID(ctx context.Context, id string) (*domain.Module, error) {
	return r.getOne(ctx, "id", id)
}

func (r *SQLiteModuleRepo) GetByCode(ctx context.Context, code string) (*domain.Module, error) {
	return r.getOne(ctx, "code", code)
}

func (r *SQLiteModuleRepo) getOne(ctx context.Context, column, value string) (*domain.Module, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM modules WHERE `+column+` = ?`, value)
	var m domain.Module
	if err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Description, &m.HoursFrontend, &m.HoursBackend, &m.HoursQA); err != nil {
		return nil, readErr("module", value, err)
	}
	byModule, err := r.loadRoleHours(ctx, `WHERE module_id = ?`, m.ID)
	if err != nil {
		return nil, err
	}
	m.RoleHours = roleHoursOrEmpty(byModule[m.ID])
	return &m, nil
}

func (r *SQLiteModuleRepo) List(ctx context.Context) ([]domain.Module, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+moduleColumns+` FROM modules ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	var modules []domain.Module
	for rows.Next() {
		var m domain.Module
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Description, &m.HoursFrontend, &m.HoursBackend, &m.HoursQA); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning module: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating modules: %w", err)
	}
	rows.Close()

	byModule, err := r.loadRoleHours(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range modules {
		modules[i].RoleHours = roleHoursOrEmpty(byModule[modules[i].ID])
	}
	return modules, nil
}

func (r *SQLiteModuleRepo) Update(ctx context.Context, m *domain.Module) error {
	query := `UPDATE modules SET code = ?, name = ?, description = ?, hours_frontend = ?, hours_backend = ?, hours_qa = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, m.Code, m.Name, m.Description, m.HoursFrontend, m.HoursBackend, m.HoursQA, m.ID)
	if err != nil {
		return writeErr("updating module", err)
	}
	if err := requireAffected(res, "module", m.ID); err != nil {
		return err
	}
	return r.replaceRoleHours(ctx, m)
}

func (r *SQLiteModuleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting module: %w", err)
	}
	return requireAffected(res, "module", id)
}

func (r *SQLiteModuleRepo) replaceRoleHours(ctx context.Context, m *domain.Module) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM module_role_hours WHERE module_id = ?`, m.ID); err != nil {
		return fmt.Errorf("clearing module role hours: %w", err)
	}
	m.RoleHours = domain.NormalizeRoleHours(m.RoleHours)
	for _, rh := range m.RoleHours {
		_, err := r.db.ExecContext(ctx, `INSERT INTO module_role_hours (module_id, role, hours) VALUES (?, ?, ?)`, m.ID, rh.Role, rh.Hours)
		if err != nil {
			return writeErr("inserting module role hours", err)
		}
	}
	return nil
}

func (r *SQLiteModuleRepo) loadRoleHours(ctx context.Context, where string, args ...any) (map[string][]domain.RoleHours, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT module_id, role, hours FROM module_role_hours `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing module role hours: %w", err)
	}
	defer rows.Close()
	return scanRoleHours(rows)
}

// scanRoleHours groups (owner_id, role, hours) rows by owner.
func scanRoleHours(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) (map[string][]domain.RoleHours, error) {
	out := make(map[string][]domain.RoleHours)
	for rows.Next() {
		var owner string
		var rh domain.RoleHours
		if err := rows.Scan(&owner, &rh.Role, &rh.Hours); err != nil {
			return nil, fmt.Errorf("scanning role hours: %w", err)
		}
		out[owner] = append(out[owner], rh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role hours: %w", err)
	}
	return out, nil
}

func roleHoursOrEmpty(in []domain.RoleHours) []domain.RoleHours {
	if in == nil {
		return []domain.RoleHours{}
	}
	return in
}
