package graph

import (
	"strconv"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
)

// UntitledNode titles proposal nodes that arrive without a title or module.
const UntitledNode = "Untitled task"

// IncomingNode is a node to be created, correlated by an ephemeral key.
type IncomingNode struct {
	Key   string
	Attrs domain.NodeAttrs
}

// Incoming is a complete replacement graph.
type Incoming struct {
	Nodes []IncomingNode
	Edges []KeyEdge
	Notes []domain.NoteAttrs
}

// IncomingFromProposal converts an AI proposal. Module codes are matched
// against the catalog; zero hours fall back to the matched module's hours.
// Nodes are flagged as AI-generated, placed at the default position and
// carry no setting overrides.
func IncomingFromProposal(p domain.Proposal, modules []domain.Module) Incoming {
	byCode := domain.ModuleByCode(modules)
	in := Incoming{
		Nodes: make([]IncomingNode, 0, len(p.Nodes)),
		Edges: make([]KeyEdge, 0, len(p.Edges)),
	}
	for i, pn := range p.Nodes {
		key := pn.Key
		if key == "" {
			key = "proposal-" + strconv.Itoa(i)
		}
		attrs := domain.NodeAttrs{
			Title:       strings.TrimSpace(pn.Title),
			Description: pn.Details,
			IsAI:        true,
			PositionX:   domain.DefaultNodePosition,
			PositionY:   domain.DefaultNodePosition,
			RoleHours:   domain.NormalizeRoleHours(pn.RoleHours),
		}
		var catalog domain.Hours
		if m, ok := byCode[pn.ModuleCode]; ok && pn.ModuleCode != "" {
			id := m.ID
			attrs.ModuleID = &id
			catalog = m.Hours()
			attrs.Title = domain.CoalesceStr(attrs.Title, m.Name)
		}
		attrs.Title = domain.CoalesceStr(attrs.Title, UntitledNode)
		attrs.HoursFrontend = domain.NonZeroOr(pn.HoursFrontend, catalog.Frontend)
		attrs.HoursBackend = domain.NonZeroOr(pn.HoursBackend, catalog.Backend)
		attrs.HoursQA = domain.NonZeroOr(pn.HoursQA, catalog.QA)
		in.Nodes = append(in.Nodes, IncomingNode{Key: key, Attrs: attrs})
	}
	for _, e := range p.Edges {
		in.Edges = append(in.Edges, KeyEdge{FromKey: e.FromKey, ToKey: e.ToKey})
	}
	return in
}

// IncomingFromSnapshot carries every snapshot attribute verbatim.
func IncomingFromSnapshot(s domain.Snapshot) Incoming {
	in := Incoming{
		Nodes: make([]IncomingNode, 0, len(s.Nodes)),
		Edges: make([]KeyEdge, 0, len(s.Edges)),
		Notes: make([]domain.NoteAttrs, 0, len(s.Notes)),
	}
	for _, n := range s.Nodes {
		in.Nodes = append(in.Nodes, IncomingNode{Key: n.Key, Attrs: n.NodeAttrs.Clone()})
	}
	for _, e := range s.Edges {
		in.Edges = append(in.Edges, KeyEdge{FromKey: e.FromKey, ToKey: e.ToKey})
	}
	in.Notes = append(in.Notes, s.Notes...)
	return in
}

// DetachUnknownModules clears module references that are not in the
// catalog, so a snapshot taken before a module was deleted still applies.
func (in *Incoming) DetachUnknownModules(modules []domain.Module) int {
	known := make(map[string]bool, len(modules))
	for _, m := range modules {
		known[m.ID] = true
	}
	detached := 0
	for i := range in.Nodes {
		id := in.Nodes[i].Attrs.ModuleID
		if id != nil && !known[*id] {
			in.Nodes[i].Attrs.ModuleID = nil
			detached++
		}
	}
	return detached
}

// SnapshotOf serializes a live graph. Each node is keyed by its persisted
// id and edges reference those keys.
func SnapshotOf(nodes []domain.GraphNode, edges []domain.GraphEdge, notes []domain.GraphNote) domain.Snapshot {
	s := domain.Snapshot{
		Nodes: make([]domain.SnapshotNode, 0, len(nodes)),
		Edges: make([]domain.SnapshotEdge, 0, len(edges)),
		Notes: make([]domain.NoteAttrs, 0, len(notes)),
	}
	for _, n := range nodes {
		s.Nodes = append(s.Nodes, domain.SnapshotNode{Key: n.ID, NodeAttrs: n.NodeAttrs.Clone()})
	}
	for _, e := range edges {
		s.Edges = append(s.Edges, domain.SnapshotEdge{FromKey: e.FromNodeID, ToKey: e.ToNodeID})
	}
	for _, n := range notes {
		s.Notes = append(s.Notes, n.NoteAttrs)
	}
	return s
}
