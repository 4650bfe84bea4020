package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteVersionRepo implements VersionRepo. Records are append-only; the
// snapshot is stored as a JSON payload.
type SQLiteVersionRepo struct {
	db db.DBTX
}

func NewSQLiteVersionRepo(db db.DBTX) *SQLiteVersionRepo {
	return &SQLiteVersionRepo{db: db}
}

func (r *SQLiteVersionRepo) Create(ctx context.Context, v *domain.VersionRecord) error {
	if v.Snapshot == nil {
		return domain.ValidationError("version %q has no snapshot", v.Title)
	}
	payload, err := json.Marshal(v.Snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	ensureID(&v.ID)
	if v.CreatedAt.IsZero() {
		v.CreatedAt = nowUTC()
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO graph_versions (id, project_id, title, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.ProjectID, v.Title, string(payload), formatTime(v.CreatedAt))
	if err != nil {
		return writeErr("inserting version", err)
	}
	return nil
}

func (r *SQLiteVersionRepo) GetByID(ctx context.Context, projectID, id string) (*domain.VersionRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, project_id, title, created_at, payload
		FROM graph_versions WHERE project_id = ? AND id = ?`, projectID, id)

	var v domain.VersionRecord
	var createdAt, payload string
	if err := row.Scan(&v.ID, &v.ProjectID, &v.Title, &createdAt, &payload); err != nil {
		return nil, readErr("version", id, err)
	}
	var err error
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot of version %s: %w", id, err)
	}
	v.Snapshot = &snap
	return &v, nil
}

// ListByProject returns version headers, most recent first.
func (r *SQLiteVersionRepo) ListByProject(ctx context.Context, projectID string) ([]domain.VersionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, title, created_at
		FROM graph_versions WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var out []domain.VersionRecord
	for rows.Next() {
		var v domain.VersionRecord
		var createdAt string
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return out, nil
}
