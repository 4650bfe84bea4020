package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// GraphView is the live graph of a project as rendered by graph show.
type GraphView struct {
	Nodes   []domain.GraphNode
	Edges   []domain.GraphEdge
	Notes   []domain.GraphNote
	Modules []domain.Module
}

// FormatGraph renders the node table followed by the edges as a tree rooted
// at nodes without incoming edges, then the notes.
func FormatGraph(g GraphView) string {
	if len(g.Nodes) == 0 && len(g.Notes) == 0 {
		return Dim("Graph is empty.")
	}
	codes := make(map[string]string, len(g.Modules))
	for _, m := range g.Modules {
		codes[m.ID] = m.Code
	}

	headers := []string{"ID", "TITLE", "MODULE", "FRONTEND", "BACKEND", "QA", "SOURCE"}
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		module := Dim("--")
		if n.ModuleID != nil {
			module = StyleBlue.Render(domain.CoalesceStr(codes[*n.ModuleID], TruncID(*n.ModuleID)))
		}
		rows = append(rows, []string{
			Dim(TruncID(n.ID)),
			Bold(n.Title),
			module,
			FormatHours(n.HoursFrontend),
			FormatHours(n.HoursBackend),
			FormatHours(n.HoursQA),
			AIBadge(n.IsAI),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	if len(g.Edges) > 0 {
		b.WriteString("\n" + Header("Connections") + "\n")
		b.WriteString(renderEdgeTree(g.Nodes, g.Edges))
	}
	if len(g.Notes) > 0 {
		b.WriteString("\n" + Header("Notes") + "\n")
		for _, n := range g.Notes {
			fmt.Fprintf(&b, "%s %s\n", Dim(TruncID(n.ID)), n.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderEdgeTree(nodes []domain.GraphNode, edges []domain.GraphEdge) string {
	titles := make(map[string]string, len(nodes))
	for _, n := range nodes {
		titles[n.ID] = n.Title
	}
	children := make(map[string][]string)
	incoming := make(map[string]bool)
	for _, e := range edges {
		children[e.FromNodeID] = append(children[e.FromNodeID], e.ToNodeID)
		incoming[e.ToNodeID] = true
	}

	var b strings.Builder
	visited := make(map[string]bool)
	var walk func(id, prefix string, last bool, depth int)
	walk = func(id, prefix string, last bool, depth int) {
		line, next := prefix, prefix
		if depth > 0 {
			if last {
				line += treeCorner
				next += treeBlank
			} else {
				line += treeBranch
				next += treePipe
			}
		}
		if visited[id] {
			b.WriteString(line + Dim(titles[id]+" (seen)") + "\n")
			return
		}
		visited[id] = true
		b.WriteString(line + titles[id] + "\n")
		kids := children[id]
		for i, k := range kids {
			walk(k, next, i == len(kids)-1, depth+1)
		}
	}
	for _, n := range nodes {
		if !incoming[n.ID] && len(children[n.ID]) > 0 {
			walk(n.ID, "", true, 0)
		}
	}
	// Nodes only reachable through a cycle.
	for _, n := range nodes {
		if !visited[n.ID] && len(children[n.ID]) > 0 {
			walk(n.ID, "", true, 0)
		}
	}
	return b.String()
}

// FormatProposal renders an unmerged mind-map proposal.
func FormatProposal(p domain.Proposal) string {
	headers := []string{"KEY", "TITLE", "MODULE", "FRONTEND", "BACKEND", "QA"}
	rows := make([][]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		rows = append(rows, []string{
			Dim(n.Key),
			Bold(n.Title),
			StyleBlue.Render(OrDash(n.ModuleCode)),
			FormatHours(n.HoursFrontend),
			FormatHours(n.HoursBackend),
			FormatHours(n.HoursQA),
		})
	}
	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	for _, e := range p.Edges {
		fmt.Fprintf(&b, "%s → %s\n", e.FromKey, e.ToKey)
	}
	if p.Rationale != "" {
		b.WriteString("\n" + Dim(p.Rationale) + "\n")
	}
	return RenderBox("Proposal", strings.TrimRight(b.String(), "\n"))
}

// FormatReplaceCounts summarizes a merge or version apply.
func FormatReplaceCounts(nodes, edges, dropped, notes int) string {
	msg := fmt.Sprintf("%s nodes, %s edges, %s notes",
		StyleGreen.Render(fmt.Sprint(nodes)),
		StyleGreen.Render(fmt.Sprint(edges)),
		StyleGreen.Render(fmt.Sprint(notes)))
	if dropped > 0 {
		msg += StyleYellow.Render(fmt.Sprintf(" (%d dangling edges dropped)", dropped))
	}
	return msg
}
