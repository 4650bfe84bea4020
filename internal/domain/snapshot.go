package domain

import (
	"strings"
	"time"
)

// SnapshotNode is a node inside a Snapshot, identified only by an ephemeral key.
type SnapshotNode struct {
	Key       string `json:"key" yaml:"key"`
	NodeAttrs `yaml:",inline"`
}

// SnapshotEdge references its endpoints by snapshot key, never by persisted id.
type SnapshotEdge struct {
	FromKey string `json:"from_key" yaml:"from_key"`
	ToKey   string `json:"to_key" yaml:"to_key"`
}

// Snapshot is the portable, identifier-independent serialization of a graph.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" yaml:"nodes"`
	Edges []SnapshotEdge `json:"connections" yaml:"connections"`
	Notes []NoteAttrs    `json:"notes" yaml:"notes"`
}

// Validate rejects nodes without a key or title. Edges referencing unknown
// keys are not an error; they are dropped when the snapshot is applied.
func (s *Snapshot) Validate() error {
	for i, n := range s.Nodes {
		if strings.TrimSpace(n.Key) == "" {
			return ValidationError("snapshot node %d: key is required", i)
		}
		if err := n.NodeAttrs.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// VersionRecord is an immutable, titled snapshot of a project's graph.
// Snapshot is nil in list results.
type VersionRecord struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
}

// Header returns the record without its snapshot payload.
func (v VersionRecord) Header() VersionRecord {
	v.Snapshot = nil
	return v
}
