package domain

// SummaryTotals are the realistic-case totals of a project estimate.
type SummaryTotals struct {
	HoursFrontend float64 `json:"hours_frontend"`
	HoursBackend  float64 `json:"hours_backend"`
	HoursQA       float64 `json:"hours_qa"`
	HoursTotal    float64 `json:"hours_total"`
	InfraCost     float64 `json:"infra_cost"`
	CostTotal     float64 `json:"cost_total"`
}

type Scenario struct {
	Label      string  `json:"label"`
	TotalHours float64 `json:"total_hours"`
	TotalCost  float64 `json:"total_cost"`
}

// Summary is derived from the project's inputs and never mutated directly.
type Summary struct {
	Totals    SummaryTotals `json:"totals"`
	Scenarios []Scenario    `json:"scenarios"`
}
