package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteGraphNoteRepo implements GraphNoteRepo.
type SQLiteGraphNoteRepo struct {
	db db.DBTX
}

func NewSQLiteGraphNoteRepo(db db.DBTX) *SQLiteGraphNoteRepo {
	return &SQLiteGraphNoteRepo{db: db}
}

func (r *SQLiteGraphNoteRepo) Create(ctx context.Context, n *domain.GraphNote) error {
	ensureID(&n.ID)
	_, err := r.db.ExecContext(ctx, `INSERT INTO graph_notes (id, project_id, content, position_x, position_y, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ProjectID, n.Content, n.PositionX, n.PositionY, formatTime(nowUTC()))
	if err != nil {
		return writeErr("inserting graph note", err)
	}
	return nil
}

func (r *SQLiteGraphNoteRepo) ListByProject(ctx context.Context, projectID string) ([]domain.GraphNote, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, content, position_x, position_y
		FROM graph_notes WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing graph notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.GraphNote
	for rows.Next() {
		var n domain.GraphNote
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Content, &n.PositionX, &n.PositionY); err != nil {
			return nil, fmt.Errorf("scanning graph note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating graph notes: %w", err)
	}
	return notes, nil
}

func (r *SQLiteGraphNoteRepo) Update(ctx context.Context, n *domain.GraphNote) error {
	res, err := r.db.ExecContext(ctx, `UPDATE graph_notes SET content = ?, position_x = ?, position_y = ? WHERE project_id = ? AND id = ?`,
		n.Content, n.PositionX, n.PositionY, n.ProjectID, n.ID)
	if err != nil {
		return writeErr("updating graph note", err)
	}
	return requireAffected(res, "note", n.ID)
}

func (r *SQLiteGraphNoteRepo) Delete(ctx context.Context, projectID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM graph_notes WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("deleting graph note: %w", err)
	}
	return requireAffected(res, "note", id)
}
