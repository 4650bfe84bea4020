package estimate

import (
	"github.com/alexanderramin/estima/internal/domain"
)

const (
	ScenarioOptimistic  = "Optimistic"
	ScenarioRealistic   = "Realistic"
	ScenarioPessimistic = "Pessimistic"
)

// Params are the multipliers used to turn catalog hours into an estimate.
type Params struct {
	OptimisticMultiplier    float64            `mapstructure:"optimistic_multiplier"`
	PessimisticMultiplier   float64            `mapstructure:"pessimistic_multiplier"`
	UncertaintyCoefficients map[string]float64 `mapstructure:"uncertainty_coefficients"`
	UIUXCoefficients        map[string]float64 `mapstructure:"uiux_coefficients"`
	LegacyMultiplier        float64            `mapstructure:"legacy_multiplier"`
	DefaultLevels           map[string]string  `mapstructure:"default_levels"`
}

func DefaultParams() Params {
	return Params{
		OptimisticMultiplier:  0.85,
		PessimisticMultiplier: 1.25,
		UncertaintyCoefficients: map[string]float64{
			domain.UncertaintyKnown:   1.0,
			domain.UncertaintyNewTech: 1.5,
		},
		UIUXCoefficients: map[string]float64{
			domain.UIUXMVP:   1.0,
			domain.UIUXAward: 2.5,
		},
		LegacyMultiplier: 1.3,
		DefaultLevels: map[string]string{
			string(domain.RoleFrontend): domain.LevelMiddle,
			string(domain.RoleBackend):  domain.LevelSenior,
			string(domain.RoleQA):       domain.LevelMiddle,
		},
	}
}

// Input is everything a project estimate depends on.
type Input struct {
	Project        domain.Project
	Modules        []domain.Module
	ProjectModules []domain.ProjectModule
	Assignments    []domain.Assignment
	Rates          []domain.Rate
	Coefficients   []domain.Coefficient
	InfraItems     []domain.InfrastructureItem
	Infrastructure []domain.ProjectInfrastructure
}

// WorkLine is the cost of one role on one project module.
type WorkLine struct {
	Module string
	Role   string
	Level  string
	Hours  float64
	Rate   float64
	Cost   float64
}

type InfraLine struct {
	Name     string
	Quantity int
	UnitCost float64
	Total    float64
}

// Report is the line-level breakdown a Summary is aggregated from.
type Report struct {
	Project string
	Work    []WorkLine
	Infra   []InfraLine
}

// Calculator computes estimates. It holds no state besides its Params and is
// safe for concurrent use.
type Calculator struct {
	params Params
}

func NewCalculator(p Params) *Calculator {
	return &Calculator{params: p}
}

func (c *Calculator) Params() Params {
	return c.params
}

// Adjust applies the settings multipliers and the extra coefficient product
// to merged module hours. UI/UX complexity only affects frontend work.
func (c *Calculator) Adjust(h domain.Hours, s domain.ProjectSettings, extra float64) domain.Hours {
	uncertainty := lookup(c.params.UncertaintyCoefficients, s.UncertaintyLevel, 1.0)
	uiux := lookup(c.params.UIUXCoefficients, s.UIUXLevel, 1.0)
	legacy := 1.0
	if s.LegacyCode {
		legacy = c.params.LegacyMultiplier
	}
	adjusted := domain.Hours{
		Frontend: h.Frontend * uncertainty * uiux * legacy,
		Backend:  h.Backend * uncertainty * legacy,
		QA:       h.QA * uncertainty * legacy,
	}
	if extra == 1.0 {
		return adjusted
	}
	return adjusted.Scale(extra)
}

// Report builds the work and infrastructure lines for in. Project modules
// whose catalog module is missing are skipped.
func (c *Calculator) Report(in Input) Report {
	modules := make(map[string]domain.Module, len(in.Modules))
	for _, m := range in.Modules {
		modules[m.ID] = m
	}
	levels := make(map[assignmentKey]string, len(in.Assignments))
	for _, a := range in.Assignments {
		levels[assignmentKey{a.ProjectModuleID, a.Role}] = a.Level
	}
	rates := make(map[rateKey]float64, len(in.Rates))
	for _, r := range in.Rates {
		rates[rateKey{r.Role, r.Level}] = r.HourlyRate
	}
	extra := CoefficientProduct(in.Coefficients)
	settings := in.Project.Settings()

	report := Report{
		Project: in.Project.Name,
		Work:    make([]WorkLine, 0, len(in.ProjectModules)*len(domain.Roles)),
		Infra:   make([]InfraLine, 0, len(in.Infrastructure)),
	}
	for _, pm := range in.ProjectModules {
		m, ok := modules[pm.ModuleID]
		if !ok {
			continue
		}
		hours := c.Adjust(pm.EffectiveHours(m), pm.EffectiveSettings(settings), extra)
		for _, role := range domain.Roles {
			level, ok := levels[assignmentKey{pm.ID, string(role)}]
			if !ok {
				level = c.defaultLevel(role)
			}
			rate := rates[rateKey{string(role), level}]
			h := hours.ForRole(role)
			report.Work = append(report.Work, WorkLine{
				Module: pm.DisplayName(m),
				Role:   string(role),
				Level:  level,
				Hours:  h,
				Rate:   rate,
				Cost:   h * rate,
			})
		}
	}

	items := make(map[string]domain.InfrastructureItem, len(in.InfraItems))
	for _, it := range in.InfraItems {
		items[it.ID] = it
	}
	for _, pi := range in.Infrastructure {
		it, ok := items[pi.InfrastructureItemID]
		if !ok {
			continue
		}
		report.Infra = append(report.Infra, InfraLine{
			Name:     it.Name,
			Quantity: pi.Quantity,
			UnitCost: it.UnitCost,
			Total:    it.UnitCost * float64(pi.Quantity),
		})
	}
	return report
}

// Summarize aggregates the report of in into totals and scenarios.
func (c *Calculator) Summarize(in Input) domain.Summary {
	return c.SummaryOf(c.Report(in))
}

func (c *Calculator) SummaryOf(r Report) domain.Summary {
	var totals domain.SummaryTotals
	work := 0.0
	for _, w := range r.Work {
		switch domain.Role(w.Role) {
		case domain.RoleFrontend:
			totals.HoursFrontend += w.Hours
		case domain.RoleBackend:
			totals.HoursBackend += w.Hours
		case domain.RoleQA:
			totals.HoursQA += w.Hours
		}
		work += w.Cost
	}
	for _, i := range r.Infra {
		totals.InfraCost += i.Total
	}
	totals.HoursTotal = totals.HoursFrontend + totals.HoursBackend + totals.HoursQA
	totals.CostTotal = work + totals.InfraCost

	return domain.Summary{
		Totals: totals,
		Scenarios: []domain.Scenario{
			{
				Label:      ScenarioOptimistic,
				TotalHours: totals.HoursTotal * c.params.OptimisticMultiplier,
				TotalCost:  totals.CostTotal * c.params.OptimisticMultiplier,
			},
			{
				Label:      ScenarioRealistic,
				TotalHours: totals.HoursTotal,
				TotalCost:  totals.CostTotal,
			},
			{
				Label:      ScenarioPessimistic,
				TotalHours: totals.HoursTotal * c.params.PessimisticMultiplier,
				TotalCost:  totals.CostTotal * c.params.PessimisticMultiplier,
			},
		},
	}
}

// CoefficientProduct multiplies all project coefficients together.
func CoefficientProduct(coefs []domain.Coefficient) float64 {
	product := 1.0
	for _, c := range coefs {
		product *= c.Multiplier
	}
	return product
}

func (c *Calculator) defaultLevel(role domain.Role) string {
	if lvl, ok := c.params.DefaultLevels[string(role)]; ok && lvl != "" {
		return lvl
	}
	return domain.LevelMiddle
}

type assignmentKey struct {
	projectModuleID string
	role            string
}

type rateKey struct {
	role  string
	level string
}

func lookup(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
