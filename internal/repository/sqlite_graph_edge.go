package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteGraphEdgeRepo implements GraphEdgeRepo. Edges have no identity
// beyond their endpoint pair.
type SQLiteGraphEdgeRepo struct {
	db db.DBTX
}

func NewSQLiteGraphEdgeRepo(db db.DBTX) *SQLiteGraphEdgeRepo {
	return &SQLiteGraphEdgeRepo{db: db}
}

func (r *SQLiteGraphEdgeRepo) ListByProject(ctx context.Context, projectID string) ([]domain.GraphEdge, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT from_node_id, to_node_id FROM graph_edges WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing graph edges: %w", err)
	}
	defer rows.Close()

	edges := []domain.GraphEdge{}
	for rows.Next() {
		var e domain.GraphEdge
		if err := rows.Scan(&e.FromNodeID, &e.ToNodeID); err != nil {
			return nil, fmt.Errorf("scanning graph edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating graph edges: %w", err)
	}
	return edges, nil
}

// ReplaceAll sets the complete edge set of a project. Every endpoint must be
// a node of the same project; otherwise nothing is written and a validation
// error is returned. Duplicate pairs collapse.
func (r *SQLiteGraphEdgeRepo) ReplaceAll(ctx context.Context, projectID string, edges []domain.GraphEdge) error {
	ids, err := r.projectNodeIDs(ctx, projectID)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if !ids[e.FromNodeID] || !ids[e.ToNodeID] {
			return domain.ValidationError("edge %s -> %s references a node outside project %s", e.FromNodeID, e.ToNodeID, projectID)
		}
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM graph_edges WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clearing graph edges: %w", err)
	}
	for _, e := range edges {
		_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO graph_edges (project_id, from_node_id, to_node_id) VALUES (?, ?, ?)`,
			projectID, e.FromNodeID, e.ToNodeID)
		if err != nil {
			return writeErr("inserting graph edge", err)
		}
	}
	return nil
}

func (r *SQLiteGraphEdgeRepo) projectNodeIDs(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM graph_nodes WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing node ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning node id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating node ids: %w", err)
	}
	return ids, nil
}
