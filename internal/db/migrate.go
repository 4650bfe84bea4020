package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent so the full
// list is replayed on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is replayed too.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		uncertainty_level TEXT NOT NULL DEFAULT 'known',
		uiux_level        TEXT NOT NULL DEFAULT 'mvp',
		legacy_code       INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS modules (
		id             TEXT PRIMARY KEY,
		code           TEXT NOT NULL UNIQUE,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		hours_frontend REAL NOT NULL DEFAULT 0,
		hours_backend  REAL NOT NULL DEFAULT 0,
		hours_qa       REAL NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS module_role_hours (
		module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		role      TEXT NOT NULL,
		hours     REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_module_role_hours_module ON module_role_hours(module_id)`,

	`CREATE TABLE IF NOT EXISTS project_modules (
		id                TEXT PRIMARY KEY,
		project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		module_id         TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		custom_name       TEXT NOT NULL DEFAULT '',
		override_frontend REAL,
		override_backend  REAL,
		override_qa       REAL,
		uncertainty_level TEXT,
		uiux_level        TEXT,
		legacy_code       INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_project_modules_project ON project_modules(project_id)`,

	`CREATE TABLE IF NOT EXISTS project_connections (
		id                     TEXT PRIMARY KEY,
		project_id             TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		from_project_module_id TEXT NOT NULL REFERENCES project_modules(id) ON DELETE CASCADE,
		to_project_module_id   TEXT NOT NULL REFERENCES project_modules(id) ON DELETE CASCADE,
		UNIQUE (from_project_module_id, to_project_module_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_project_connections_project ON project_connections(project_id)`,

	`CREATE TABLE IF NOT EXISTS assignments (
		id                TEXT PRIMARY KEY,
		project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		project_module_id TEXT NOT NULL REFERENCES project_modules(id) ON DELETE CASCADE,
		role              TEXT NOT NULL,
		level             TEXT NOT NULL,
		UNIQUE (project_module_id, role)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_project ON assignments(project_id)`,

	`CREATE TABLE IF NOT EXISTS rates (
		id          TEXT PRIMARY KEY,
		role        TEXT NOT NULL,
		level       TEXT NOT NULL,
		hourly_rate REAL NOT NULL CHECK (hourly_rate >= 0),
		UNIQUE (role, level)
	)`,

	`CREATE TABLE IF NOT EXISTS project_coefficients (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		multiplier REAL NOT NULL DEFAULT 1.0,
		UNIQUE (project_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS infrastructure_items (
		id          TEXT PRIMARY KEY,
		code        TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		unit_cost   REAL NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS project_infrastructure (
		id                     TEXT PRIMARY KEY,
		project_id             TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		infrastructure_item_id TEXT NOT NULL REFERENCES infrastructure_items(id) ON DELETE CASCADE,
		quantity               INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		UNIQUE (project_id, infrastructure_item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS graph_nodes (
		id                TEXT PRIMARY KEY,
		project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		module_id         TEXT REFERENCES modules(id) ON DELETE SET NULL,
		title             TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		is_ai             INTEGER NOT NULL DEFAULT 0,
		hours_frontend    REAL NOT NULL DEFAULT 0,
		hours_backend     REAL NOT NULL DEFAULT 0,
		hours_qa          REAL NOT NULL DEFAULT 0,
		uncertainty_level TEXT,
		uiux_level        TEXT,
		legacy_code       INTEGER,
		position_x        REAL NOT NULL DEFAULT 0,
		position_y        REAL NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_nodes_project ON graph_nodes(project_id)`,

	`CREATE TABLE IF NOT EXISTS graph_node_role_hours (
		node_id TEXT NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
		role    TEXT NOT NULL,
		hours   REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_node_role_hours_node ON graph_node_role_hours(node_id)`,

	`CREATE TABLE IF NOT EXISTS graph_edges (
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		from_node_id TEXT NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
		to_node_id   TEXT NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
		PRIMARY KEY (from_node_id, to_node_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_edges_project ON graph_edges(project_id)`,

	`CREATE TABLE IF NOT EXISTS graph_notes (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		content    TEXT NOT NULL DEFAULT '',
		position_x REAL NOT NULL DEFAULT 0,
		position_y REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_notes_project ON graph_notes(project_id)`,

	`CREATE TABLE IF NOT EXISTS graph_versions (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_versions_project ON graph_versions(project_id, created_at)`,
}
