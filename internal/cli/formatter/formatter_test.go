package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/estima/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestFormatProjectList(t *testing.T) {
	p := domain.NewProject("4f1c2d3e-aaaa-bbbb-cccc-000000000001", "Shop", "")
	out := stripANSI(FormatProjectList([]domain.Project{*p}))

	assert.Contains(t, out, "PROJECTS")
	assert.Contains(t, out, "4f1c2d3e")
	assert.Contains(t, out, "Shop")
	assert.Contains(t, out, domain.UncertaintyKnown)
}

func TestFormatProjectModules_ShowsOverrides(t *testing.T) {
	override := 42.0
	modules := []domain.Module{{ID: "m1", Code: "AUTH", Name: "Auth", HoursFrontend: 10, HoursBackend: 20, HoursQA: 5}}
	pms := []domain.ProjectModule{{ID: "pm1", ModuleID: "m1", OverrideBackend: &override}}

	out := stripANSI(FormatProjectModules(pms, modules))
	assert.Contains(t, out, "Auth")
	assert.Contains(t, out, "10.0h")
	assert.Contains(t, out, "42.0h")
	assert.NotContains(t, out, "20.0h")

	assert.Contains(t, stripANSI(FormatProjectModules(nil, modules)), "No modules attached.")
}

func TestFormatGraph_RendersTreeAndNotes(t *testing.T) {
	g := GraphView{
		Nodes: []domain.GraphNode{
			{ID: "a", NodeAttrs: domain.NodeAttrs{Title: "Login", ModuleID: strPtr("m1"), IsAI: true}},
			{ID: "b", NodeAttrs: domain.NodeAttrs{Title: "Signup"}},
			{ID: "c", NodeAttrs: domain.NodeAttrs{Title: "Reset"}},
		},
		Edges: []domain.GraphEdge{
			{FromNodeID: "a", ToNodeID: "b"},
			{FromNodeID: "a", ToNodeID: "c"},
		},
		Notes:   []domain.GraphNote{{ID: "n1", NoteAttrs: domain.NoteAttrs{Content: "check SSO"}}},
		Modules: []domain.Module{{ID: "m1", Code: "AUTH"}},
	}
	out := stripANSI(FormatGraph(g))

	assert.Contains(t, out, "AUTH")
	assert.Contains(t, out, "AI")
	assert.Contains(t, out, "CONNECTIONS")
	assert.Contains(t, out, "├─ Signup")
	assert.Contains(t, out, "└─ Reset")
	assert.Contains(t, out, "check SSO")
}

func TestFormatGraph_CycleTerminates(t *testing.T) {
	g := GraphView{
		Nodes: []domain.GraphNode{
			{ID: "a", NodeAttrs: domain.NodeAttrs{Title: "A"}},
			{ID: "b", NodeAttrs: domain.NodeAttrs{Title: "B"}},
		},
		Edges: []domain.GraphEdge{{FromNodeID: "a", ToNodeID: "b"}, {FromNodeID: "b", ToNodeID: "a"}},
	}
	out := stripANSI(FormatGraph(g))
	assert.Contains(t, out, "A (seen)")
}

func TestFormatGraph_Empty(t *testing.T) {
	assert.Equal(t, "Graph is empty.", stripANSI(FormatGraph(GraphView{})))
}

func TestFormatSummary(t *testing.T) {
	s := domain.Summary{
		Totals: domain.SummaryTotals{HoursFrontend: 10, HoursBackend: 20, HoursQA: 5, HoursTotal: 35, CostTotal: 2650},
		Scenarios: []domain.Scenario{
			{Label: "Optimistic", TotalHours: 28, TotalCost: 2120},
		},
	}
	out := stripANSI(FormatSummary(s))
	assert.Contains(t, out, "35.0h")
	assert.Contains(t, out, "2,650.00")
	assert.Contains(t, out, "Optimistic")
	assert.Contains(t, out, "2,120.00")
}

func TestFormatProposal(t *testing.T) {
	p := domain.Proposal{
		Nodes:     []domain.ProposalNode{{Key: "n1", Title: "Login", ModuleCode: "auth"}, {Key: "n2", Title: "Cart"}},
		Edges:     []domain.ProposalEdge{{FromKey: "n1", ToKey: "n2"}},
		Rationale: "AI analysis",
	}
	out := stripANSI(FormatProposal(p))
	assert.Contains(t, out, "PROPOSAL")
	assert.Contains(t, out, "n1 → n2")
	assert.Contains(t, out, "AI analysis")
}

func TestFormatVersionList(t *testing.T) {
	assert.Equal(t, "No versions saved.", stripANSI(FormatVersionList(nil)))

	out := stripANSI(FormatVersionList([]domain.VersionRecord{
		{ID: "v1", Title: "baseline", CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}))
	assert.Contains(t, out, "baseline")
	assert.True(t, strings.Contains(out, "2026-03-0"))
}

func TestFormatInfrastructure(t *testing.T) {
	items := []domain.InfrastructureItem{{ID: "i1", Code: "DB", Name: "Postgres", UnitCost: 1500}}
	usage := []domain.ProjectInfrastructure{{InfrastructureItemID: "i1", Quantity: 2}}
	out := stripANSI(FormatInfrastructure(items, usage))
	assert.Contains(t, out, "3,000.00")
}

func TestFormatReplaceCounts(t *testing.T) {
	out := stripANSI(FormatReplaceCounts(2, 1, 1, 0))
	assert.Equal(t, "2 nodes, 1 edges, 0 notes (1 dangling edges dropped)", out)
}
