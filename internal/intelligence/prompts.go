package intelligence

const mindmapSystemPrompt = `You decompose a product request into an estimation mind-map.
Return only JSON with this structure:
{
  "nodes": [{"key": "n1", "title": "...", "details": "...", "module_code": "...",
             "hours_frontend": 0, "hours_backend": 0, "hours_qa": 0,
             "role_hours": [{"role": "...", "hours": 0}]}],
  "connections": [{"from_key": "n1", "to_key": "n2"}],
  "rationale": "..."
}
Rules:
- 6 to 12 nodes, each with a unique key.
- connections reference node keys only; the first node is the root.
- module_code must come from the catalog; leave hours at 0 to use catalog hours.

Catalog:
`

const parseSystemPrompt = `You decompose a product request into technical modules.
Produce a work breakdown of 6 to 12 tasks, each tied to a module.
Return only JSON with this structure:
{
  "tasks": [{"title": "...", "details": "...", "module_code": "...", "confidence": 0.0}],
  "suggestions": [{"module_code": "...", "confidence": 0.0, "notes": "..."}],
  "rationale": "..."
}
module_code must come from the catalog.

Catalog:
`

const (
	heuristicRationale = "Heuristics fallback (LLM disabled)."
	wbsSuggestionNote  = "Derived from the work breakdown"
	untitledTask       = "Task"
)

// fallbackTasks is the minimal breakdown used when no module matches.
var fallbackTasks = []struct{ title, details string }{
	{"Requirements and scenarios", "Interviews, user flows, KPIs"},
	{"Architecture and integrations", "Services, security boundaries, integrations"},
	{"UI/UX concept", "Prototypes, visual style, key screens"},
}
