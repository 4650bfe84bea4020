package domain

// ProposalNode is a node suggested by the AI service. Zero hours mean "not
// supplied" and fall back to the matched module's catalog hours.
type ProposalNode struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Details       string      `json:"details"`
	ModuleCode    string      `json:"module_code"`
	HoursFrontend float64     `json:"hours_frontend"`
	HoursBackend  float64     `json:"hours_backend"`
	HoursQA       float64     `json:"hours_qa"`
	RoleHours     []RoleHours `json:"role_hours"`
}

type ProposalEdge struct {
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
}

// Proposal is an AI-generated graph keyed by ephemeral node keys.
type Proposal struct {
	Nodes     []ProposalNode `json:"nodes"`
	Edges     []ProposalEdge `json:"connections"`
	Rationale string         `json:"rationale"`
}

type ModuleSuggestion struct {
	ModuleCode string  `json:"module_code"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes"`
}

type WbsTask struct {
	Title      string  `json:"title"`
	Details    string  `json:"details"`
	ModuleCode string  `json:"module_code"`
	Confidence float64 `json:"confidence"`
}

// ParseResult is the non-graph AI variant: a task list plus module suggestions.
type ParseResult struct {
	Suggestions []ModuleSuggestion `json:"suggestions"`
	Tasks       []WbsTask          `json:"tasks"`
	Rationale   string             `json:"rationale"`
}
