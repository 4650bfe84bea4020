package intelligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/llm"
)

// ParseService turns a free-text request into a task breakdown with module
// suggestions.
type ParseService interface {
	Parse(ctx context.Context, prompt string, catalog []domain.Module) (domain.ParseResult, error)
}

// assistant backs both ParseService and ProposalService. A nil client
// means the LLM is disabled and only heuristics are used.
type assistant struct {
	client llm.LLMClient
}

func NewParseService(client llm.LLMClient) ParseService {
	return &assistant{client: client}
}

func (a *assistant) Parse(ctx context.Context, prompt string, catalog []domain.Module) (domain.ParseResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ParseResult{}, domain.ValidationError("prompt is required")
	}
	idx := newCatalogIndex(catalog)
	if a.client == nil {
		return parseHeuristics(prompt, catalog, idx), nil
	}

	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskParse,
		SystemPrompt: parseSystemPrompt + idx.describe(),
		UserPrompt:   prompt,
		JSONMode:     true,
	})
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("llm parse failed: %w", err)
	}

	raw, err := llm.ExtractJSON[domain.ParseResult](resp.Text, nil)
	if err != nil {
		return domain.ParseResult{Tasks: []domain.WbsTask{}, Suggestions: []domain.ModuleSuggestion{}, Rationale: "Failed to parse AI response"}, nil
	}

	out := domain.ParseResult{
		Tasks:       normalizeTasks(raw.Tasks, idx),
		Suggestions: normalizeSuggestions(raw.Suggestions, idx),
		Rationale:   domain.CoalesceStr(strings.TrimSpace(raw.Rationale), "AI analysis"),
	}
	if len(out.Suggestions) == 0 {
		out.Suggestions = suggestFromTasks(out.Tasks)
	}
	return out, nil
}

// parseHeuristics creates one task per module the prompt mentions, or the
// generic fallback breakdown when none does.
func parseHeuristics(prompt string, catalog []domain.Module, idx *catalogIndex) domain.ParseResult {
	tasks := heuristicTasks(prompt, catalog, idx)
	return domain.ParseResult{
		Tasks:       tasks,
		Suggestions: suggestFromTasks(tasks),
		Rationale:   heuristicRationale,
	}
}

func heuristicTasks(prompt string, catalog []domain.Module, idx *catalogIndex) []domain.WbsTask {
	lowered := strings.ToLower(prompt)
	var tasks []domain.WbsTask
	for _, m := range catalog {
		if matches(lowered, m) {
			tasks = append(tasks, domain.WbsTask{Title: m.Name, Details: m.Description, ModuleCode: m.Code, Confidence: 0.55})
		}
	}
	if len(tasks) > 0 {
		return tasks
	}
	code := idx.defaultCode()
	for _, f := range fallbackTasks {
		tasks = append(tasks, domain.WbsTask{Title: f.title, Details: f.details, ModuleCode: code, Confidence: 0.4})
	}
	return tasks
}

func normalizeTasks(raw []domain.WbsTask, idx *catalogIndex) []domain.WbsTask {
	tasks := make([]domain.WbsTask, 0, len(raw))
	for _, t := range raw {
		t.Title = domain.CoalesceStr(strings.TrimSpace(t.Title), untitledTask)
		t.Details = strings.TrimSpace(t.Details)
		t.ModuleCode = idx.normalize(t.ModuleCode)
		if t.ModuleCode == "" {
			t.ModuleCode, t.Confidence = idx.bestMatch(t.Title, t.Details, t.Confidence)
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func normalizeSuggestions(raw []domain.ModuleSuggestion, idx *catalogIndex) []domain.ModuleSuggestion {
	var out []domain.ModuleSuggestion
	for _, s := range raw {
		if s.ModuleCode = idx.normalize(s.ModuleCode); s.ModuleCode != "" {
			out = append(out, s)
		}
	}
	return out
}

// suggestFromTasks keeps one suggestion per module code, with the highest
// task confidence, in first-seen order.
func suggestFromTasks(tasks []domain.WbsTask) []domain.ModuleSuggestion {
	pos := make(map[string]int)
	var out []domain.ModuleSuggestion
	for _, t := range tasks {
		if t.ModuleCode == "" {
			continue
		}
		i, ok := pos[t.ModuleCode]
		if !ok {
			pos[t.ModuleCode] = len(out)
			out = append(out, domain.ModuleSuggestion{ModuleCode: t.ModuleCode, Confidence: t.Confidence, Notes: wbsSuggestionNote})
			continue
		}
		if t.Confidence > out[i].Confidence {
			out[i].Confidence = t.Confidence
		}
	}
	return out
}
