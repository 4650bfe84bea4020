package domain

import "strings"

// DefaultNodePosition is where nodes created from an AI proposal are placed.
const DefaultNodePosition = 40

// NodeAttrs are the identity-free attributes of a graph node. They are shared
// by live nodes and snapshot nodes.
type NodeAttrs struct {
	Title            string      `json:"title" yaml:"title"`
	Description      string      `json:"description" yaml:"description"`
	ModuleID         *string     `json:"module_id" yaml:"module_id"`
	IsAI             bool        `json:"is_ai" yaml:"is_ai"`
	HoursFrontend    float64     `json:"hours_frontend" yaml:"hours_frontend"`
	HoursBackend     float64     `json:"hours_backend" yaml:"hours_backend"`
	HoursQA          float64     `json:"hours_qa" yaml:"hours_qa"`
	UncertaintyLevel *string     `json:"uncertainty_level" yaml:"uncertainty_level"`
	UIUXLevel        *string     `json:"uiux_level" yaml:"uiux_level"`
	LegacyCode       *bool       `json:"legacy_code" yaml:"legacy_code"`
	PositionX        float64     `json:"position_x" yaml:"position_x"`
	PositionY        float64     `json:"position_y" yaml:"position_y"`
	RoleHours        []RoleHours `json:"role_hours" yaml:"role_hours"`
}

func (a *NodeAttrs) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ValidationError("node title is required")
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias pointer fields.
func (a NodeAttrs) Clone() NodeAttrs {
	out := a
	out.ModuleID = clonePtr(a.ModuleID)
	out.UncertaintyLevel = clonePtr(a.UncertaintyLevel)
	out.UIUXLevel = clonePtr(a.UIUXLevel)
	out.LegacyCode = clonePtr(a.LegacyCode)
	out.RoleHours = append([]RoleHours(nil), a.RoleHours...)
	if out.RoleHours == nil {
		out.RoleHours = []RoleHours{}
	}
	return out
}

// GraphNode is a persisted mind-map node.
type GraphNode struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	NodeAttrs
}

// GraphEdge is a directed relation between two nodes of the same project.
type GraphEdge struct {
	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
}

// NoteAttrs are the identity-free attributes of a graph note.
type NoteAttrs struct {
	Content   string  `json:"content" yaml:"content"`
	PositionX float64 `json:"position_x" yaml:"position_x"`
	PositionY float64 `json:"position_y" yaml:"position_y"`
}

// GraphNote is a free-text annotation on the mind-map.
type GraphNote struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	NoteAttrs
}

// FilterEdges keeps edges whose endpoints are both in nodeIDs, dropping
// duplicates. It returns the kept edges and the number dropped as dangling.
func FilterEdges(edges []GraphEdge, nodeIDs map[string]bool) ([]GraphEdge, int) {
	kept := make([]GraphEdge, 0, len(edges))
	seen := make(map[GraphEdge]bool, len(edges))
	dropped := 0
	for _, e := range edges {
		if !nodeIDs[e.FromNodeID] || !nodeIDs[e.ToNodeID] {
			dropped++
			continue
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		kept = append(kept, e)
	}
	return kept, dropped
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
