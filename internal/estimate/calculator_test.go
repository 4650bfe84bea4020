package estimate

import (
	"testing"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func baseInput() Input {
	project := domain.NewProject("p1", "Shop", "")
	return Input{
		Project: *project,
		Modules: []domain.Module{
			{ID: "m1", Code: "AUTH", Name: "Auth", HoursFrontend: 10, HoursBackend: 20, HoursQA: 5},
		},
		ProjectModules: []domain.ProjectModule{
			{ID: "pm1", ProjectID: "p1", ModuleID: "m1"},
		},
		Rates: []domain.Rate{
			{Role: "frontend", Level: "middle", HourlyRate: 100},
			{Role: "backend", Level: "senior", HourlyRate: 150},
			{Role: "backend", Level: "junior", HourlyRate: 80},
			{Role: "qa", Level: "middle", HourlyRate: 50},
		},
		Coefficients: []domain.Coefficient{
			{Name: "Uncertainty", Multiplier: 1},
			{Name: "UI/UX", Multiplier: 1},
		},
		InfraItems: []domain.InfrastructureItem{
			{ID: "i1", Code: "VM", Name: "Virtual machine", UnitCost: 12.5},
		},
		Infrastructure: []domain.ProjectInfrastructure{
			{ProjectID: "p1", InfrastructureItemID: "i1", Quantity: 4},
		},
	}
}

func TestSummarize_DefaultLevelsAndInfra(t *testing.T) {
	calc := NewCalculator(DefaultParams())

	s := calc.Summarize(baseInput())

	assert.InDelta(t, 10, s.Totals.HoursFrontend, 1e-9)
	assert.InDelta(t, 20, s.Totals.HoursBackend, 1e-9)
	assert.InDelta(t, 5, s.Totals.HoursQA, 1e-9)
	assert.InDelta(t, 35, s.Totals.HoursTotal, 1e-9)
	assert.InDelta(t, 50, s.Totals.InfraCost, 1e-9)
	assert.InDelta(t, 4300, s.Totals.CostTotal, 1e-9)

	require.Len(t, s.Scenarios, 3)
	assert.Equal(t, ScenarioOptimistic, s.Scenarios[0].Label)
	assert.InDelta(t, 35*0.85, s.Scenarios[0].TotalHours, 1e-9)
	assert.Equal(t, ScenarioRealistic, s.Scenarios[1].Label)
	assert.InDelta(t, 4300, s.Scenarios[1].TotalCost, 1e-9)
	assert.Equal(t, ScenarioPessimistic, s.Scenarios[2].Label)
	assert.InDelta(t, 4300*1.25, s.Scenarios[2].TotalCost, 1e-9)
}

func TestSummarize_AssignmentSelectsRate(t *testing.T) {
	in := baseInput()
	in.Assignments = []domain.Assignment{{ProjectModuleID: "pm1", Role: "backend", Level: "junior"}}

	s := NewCalculator(DefaultParams()).Summarize(in)

	// 10*100 + 20*80 + 5*50 + 50 infra
	assert.InDelta(t, 2900, s.Totals.CostTotal, 1e-9)
}

func TestSummarize_MissingRateCostsNothing(t *testing.T) {
	in := baseInput()
	in.Rates = nil
	in.Infrastructure = nil

	s := NewCalculator(DefaultParams()).Summarize(in)

	assert.InDelta(t, 35, s.Totals.HoursTotal, 1e-9)
	assert.Zero(t, s.Totals.CostTotal)
}

func TestSummarize_ProjectSettingsMultipliers(t *testing.T) {
	in := baseInput()
	in.Project.ApplySettings(domain.ProjectSettings{
		UncertaintyLevel: domain.UncertaintyNewTech,
		UIUXLevel:        domain.UIUXAward,
		LegacyCode:       true,
	})

	s := NewCalculator(DefaultParams()).Summarize(in)

	assert.InDelta(t, 10*1.5*2.5*1.3, s.Totals.HoursFrontend, 1e-9)
	assert.InDelta(t, 20*1.5*1.3, s.Totals.HoursBackend, 1e-9)
	assert.InDelta(t, 5*1.5*1.3, s.Totals.HoursQA, 1e-9)
}

func TestSummarize_ModuleOverridesBeatProject(t *testing.T) {
	in := baseInput()
	in.Project.ApplySettings(domain.ProjectSettings{
		UncertaintyLevel: domain.UncertaintyNewTech,
		UIUXLevel:        domain.UIUXMVP,
		LegacyCode:       true,
	})
	in.ProjectModules[0].UncertaintyLevel = ptr(domain.UncertaintyKnown)
	in.ProjectModules[0].LegacyCode = ptr(false)
	in.ProjectModules[0].OverrideFrontend = ptr(5.0)

	s := NewCalculator(DefaultParams()).Summarize(in)

	assert.InDelta(t, 5, s.Totals.HoursFrontend, 1e-9)
	assert.InDelta(t, 20, s.Totals.HoursBackend, 1e-9)
}

func TestSummarize_CoefficientsMultiply(t *testing.T) {
	in := baseInput()
	in.Coefficients = []domain.Coefficient{
		{Name: "Uncertainty", Multiplier: 2},
		{Name: "Legacy code", Multiplier: 1.5},
	}

	s := NewCalculator(DefaultParams()).Summarize(in)

	assert.InDelta(t, 35*3, s.Totals.HoursTotal, 1e-9)
}

func TestReport_SkipsUnknownReferences(t *testing.T) {
	in := baseInput()
	in.ProjectModules = append(in.ProjectModules, domain.ProjectModule{ID: "pm2", ModuleID: "gone"})
	in.Infrastructure = append(in.Infrastructure, domain.ProjectInfrastructure{InfrastructureItemID: "gone", Quantity: 1})

	r := NewCalculator(DefaultParams()).Report(in)

	assert.Len(t, r.Work, 3)
	assert.Len(t, r.Infra, 1)
	assert.Equal(t, "Auth", r.Work[0].Module)
	assert.Equal(t, "senior", r.Work[1].Level)
}

func TestReport_CustomNameUsed(t *testing.T) {
	in := baseInput()
	in.ProjectModules[0].CustomName = "Login"

	r := NewCalculator(DefaultParams()).Report(in)

	require.NotEmpty(t, r.Work)
	assert.Equal(t, "Login", r.Work[0].Module)
}

func TestCoefficientProduct(t *testing.T) {
	assert.Equal(t, 1.0, CoefficientProduct(nil))
	assert.InDelta(t, 0.5, CoefficientProduct([]domain.Coefficient{{Multiplier: 2}, {Multiplier: 0.25}}), 1e-9)
}
