package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/estima/internal/db"
	"github.com/alexanderramin/estima/internal/domain"
)

// SQLiteGraphNodeRepo implements GraphNodeRepo.
type SQLiteGraphNodeRepo struct {
	db db.DBTX
}

func NewSQLiteGraphNodeRepo(db db.DBTX) *SQLiteGraphNodeRepo {
	return &SQLiteGraphNodeRepo{db: db}
}

const graphNodeColumns = `id, project_id, module_id, title, description, is_ai, hours_frontend, hours_backend, hours_qa,
	uncertainty_level, uiux_level, legacy_code, position_x, position_y`

func (r *SQLiteGraphNodeRepo) Create(ctx context.Context, n *domain.GraphNode) error {
	ensureID(&n.ID)
	query := `INSERT INTO graph_nodes (` + graphNodeColumns + `, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.ProjectID, nullableString(n.ModuleID), n.Title, n.Description, boolToInt(n.IsAI),
		n.HoursFrontend, n.HoursBackend, n.HoursQA,
		nullableString(n.UncertaintyLevel), nullableString(n.UIUXLevel), nullableBool(n.LegacyCode),
		n.PositionX, n.PositionY, formatTime(nowUTC()),
	)
	if err != nil {
		return writeErr("inserting graph node", err)
	}
	return r.replaceRoleHours(ctx, n)
}

func (r *SQLiteGraphNodeRepo) GetByID(ctx context.Context, projectID, id string) (*domain.GraphNode, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+graphNodeColumns+` FROM graph_nodes WHERE project_id = ? AND id = ?`, projectID, id)
	n, err := scanGraphNode(row)
	if err != nil {
		return nil, readErr("node", id, err)
	}
	byNode, err := r.loadRoleHours(ctx, `WHERE node_id = ?`, n.ID)
	if err != nil {
		return nil, err
	}
	n.RoleHours = roleHoursOrEmpty(byNode[n.ID])
	return n, nil
}

// ListByProject returns nodes in creation order.
func (r *SQLiteGraphNodeRepo) ListByProject(ctx context.Context, projectID string) ([]domain.GraphNode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+graphNodeColumns+` FROM graph_nodes WHERE project_id = ? ORDER BY rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing graph nodes: %w", err)
	}
	var nodes []domain.GraphNode
	for rows.Next() {
		n, err := scanGraphNode(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning graph node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating graph nodes: %w", err)
	}
	rows.Close()

	byNode, err := r.loadRoleHours(ctx,
		`WHERE node_id IN (SELECT id FROM graph_nodes WHERE project_id = ?)`, projectID)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		nodes[i].RoleHours = roleHoursOrEmpty(byNode[nodes[i].ID])
	}
	return nodes, nil
}

func (r *SQLiteGraphNodeRepo) Update(ctx context.Context, n *domain.GraphNode) error {
	query := `UPDATE graph_nodes SET module_id = ?, title = ?, description = ?, is_ai = ?,
		hours_frontend = ?, hours_backend = ?, hours_qa = ?,
		uncertainty_level = ?, uiux_level = ?, legacy_code = ?, position_x = ?, position_y = ?
		WHERE project_id = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(n.ModuleID), n.Title, n.Description, boolToInt(n.IsAI),
		n.HoursFrontend, n.HoursBackend, n.HoursQA,
		nullableString(n.UncertaintyLevel), nullableString(n.UIUXLevel), nullableBool(n.LegacyCode),
		n.PositionX, n.PositionY,
		n.ProjectID, n.ID,
	)
	if err != nil {
		return writeErr("updating graph node", err)
	}
	if err := requireAffected(res, "node", n.ID); err != nil {
		return err
	}
	return r.replaceRoleHours(ctx, n)
}

// Delete removes the node together with every edge touching it.
func (r *SQLiteGraphNodeRepo) Delete(ctx context.Context, projectID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM graph_edges WHERE project_id = ? AND (from_node_id = ? OR to_node_id = ?)`,
		projectID, id, id)
	if err != nil {
		return fmt.Errorf("deleting incident edges: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM graph_nodes WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("deleting graph node: %w", err)
	}
	return requireAffected(res, "node", id)
}

func (r *SQLiteGraphNodeRepo) replaceRoleHours(ctx context.Context, n *domain.GraphNode) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM graph_node_role_hours WHERE node_id = ?`, n.ID); err != nil {
		return fmt.Errorf("clearing node role hours: %w", err)
	}
	n.RoleHours = domain.NormalizeRoleHours(n.RoleHours)
	for _, rh := range n.RoleHours {
		_, err := r.db.ExecContext(ctx, `INSERT INTO graph_node_role_hours (node_id, role, hours) VALUES (?, ?, ?)`, n.ID, rh.Role, rh.Hours)
		if err != nil {
			return writeErr("inserting node role hours", err)
		}
	}
	return nil
}

func (r *SQLiteGraphNodeRepo) loadRoleHours(ctx context.Context, where string, args ...any) (map[string][]domain.RoleHours, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT node_id, role, hours FROM graph_node_role_hours `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing node role hours: %w", err)
	}
	defer rows.Close()
	return scanRoleHours(rows)
}

func scanGraphNode(s scanner) (*domain.GraphNode, error) {
	var n domain.GraphNode
	var moduleID, unc, uiux sql.NullString
	var legacy sql.NullInt64
	var isAI int
	err := s.Scan(&n.ID, &n.ProjectID, &moduleID, &n.Title, &n.Description, &isAI,
		&n.HoursFrontend, &n.HoursBackend, &n.HoursQA,
		&unc, &uiux, &legacy, &n.PositionX, &n.PositionY)
	if err != nil {
		return nil, err
	}
	n.ModuleID = stringPtr(moduleID)
	n.IsAI = intToBool(isAI)
	n.UncertaintyLevel = stringPtr(unc)
	n.UIUXLevel = stringPtr(uiux)
	n.LegacyCode = boolPtr(legacy)
	return &n, nil
}
