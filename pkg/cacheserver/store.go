// Package cacheserver implements the local persistence facade behind the
// console: a SQLite-backed store for raw item blobs and node positions,
// the HTTP handler exposing it, and a pass-through proxy to the GitHub API.
package cacheserver

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stonebell/issuegraph/pkg/model"
)

// Store persists per-project cache entries in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the cache database at the given path.
func OpenStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS project_items (
		project_id TEXT PRIMARY KEY,
		items      TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS node_positions (
		project_id TEXT NOT NULL,
		node_id    TEXT NOT NULL,
		x          REAL NOT NULL,
		y          REAL NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (project_id, node_id)
	);

	CREATE INDEX IF NOT EXISTS idx_positions_project ON node_positions(project_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Items returns the raw item blob for a project, or nil when none is
// cached.
func (s *Store) Items(projectID string) (json.RawMessage, error) {
	var items string
	err := s.db.QueryRow(
		`SELECT items FROM project_items WHERE project_id = ?`, projectID,
	).Scan(&items)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return json.RawMessage(items), nil
}

// SetItems replaces the raw item blob for a project.
func (s *Store) SetItems(projectID string, items json.RawMessage) error {
	_, err := s.db.Exec(`
		INSERT INTO project_items (project_id, items, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET items = excluded.items, updated_at = excluded.updated_at`,
		projectID, string(items), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store items: %w", err)
	}
	return nil
}

// DeleteItems drops the raw item blob for a project, keeping positions.
func (s *Store) DeleteItems(projectID string) error {
	if _, err := s.db.Exec(`DELETE FROM project_items WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

// Positions returns the saved node coordinates for a project. A project
// without saved positions yields an empty map.
func (s *Store) Positions(projectID string) (map[string]model.NodePosition, error) {
	rows, err := s.db.Query(
		`SELECT node_id, x, y FROM node_positions WHERE project_id = ?`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	positions := map[string]model.NodePosition{}
	for rows.Next() {
		var nodeID string
		var x, y float64
		if err := rows.Scan(&nodeID, &x, &y); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions[nodeID] = model.NodePosition{X: x, Y: y}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return positions, nil
}

// MergePositions upserts the given coordinates into the project's saved
// map. Existing nodes absent from the argument are left untouched.
func (s *Store) MergePositions(projectID string, positions map[string]model.NodePosition) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO node_positions (project_id, node_id, x, y, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, node_id) DO UPDATE SET x = excluded.x, y = excluded.y, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for nodeID, pos := range positions {
		if _, err := stmt.Exec(projectID, nodeID, pos.X, pos.Y, now); err != nil {
			return fmt.Errorf("upsert position %s: %w", nodeID, err)
		}
	}
	return tx.Commit()
}

// Cache assembles the wire-shaped entry for a project: items null on a
// miss, positions always a map.
func (s *Store) Cache(projectID string) (ProjectCache, error) {
	items, err := s.Items(projectID)
	if err != nil {
		return ProjectCache{}, err
	}
	positions, err := s.Positions(projectID)
	if err != nil {
		return ProjectCache{}, err
	}
	return ProjectCache{Items: items, NodePositions: positions}, nil
}

// ProjectCache is the wire shape of one project's cache entry.
type ProjectCache struct {
	Items         json.RawMessage               `json:"items"`
	NodePositions map[string]model.NodePosition `json:"nodePositions"`
}

// MarshalJSON emits items as JSON null on a cache miss so clients can
// distinguish "no cache" from "cached empty list".
func (c ProjectCache) MarshalJSON() ([]byte, error) {
	items := c.Items
	if len(items) == 0 {
		items = json.RawMessage("null")
	}
	positions := c.NodePositions
	if positions == nil {
		positions = map[string]model.NodePosition{}
	}
	return json.Marshal(struct {
		Items         json.RawMessage               `json:"items"`
		NodePositions map[string]model.NodePosition `json:"nodePositions"`
	}{Items: items, NodePositions: positions})
}
