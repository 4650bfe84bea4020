package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/alexanderramin/estima/internal/llm"
)

// ProposalService builds an AI mind-map proposal for a free-text request.
// The proposal is keyed by ephemeral node keys; merging it into a project
// is the workspace's job.
type ProposalService interface {
	Mindmap(ctx context.Context, prompt string, catalog []domain.Module) (domain.Proposal, error)
}

func NewProposalService(client llm.LLMClient) ProposalService {
	return &assistant{client: client}
}

func (a *assistant) Mindmap(ctx context.Context, prompt string, catalog []domain.Module) (domain.Proposal, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.Proposal{}, domain.ValidationError("prompt is required")
	}
	idx := newCatalogIndex(catalog)
	if a.client == nil {
		return mindmapHeuristics(prompt, catalog, idx), nil
	}

	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskMindmap,
		SystemPrompt: mindmapSystemPrompt + idx.describe(),
		UserPrompt:   prompt,
		JSONMode:     true,
	})
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("llm mindmap failed: %w", err)
	}

	raw, err := llm.ExtractJSON[domain.Proposal](resp.Text, validateProposal)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("failed to extract mindmap: %w", err)
	}
	return normalizeProposal(raw, idx), nil
}

func validateProposal(p domain.Proposal) error {
	if len(p.Nodes) == 0 {
		return errors.New("proposal has no nodes")
	}
	return nil
}

// normalizeProposal fills missing keys, maps unknown module codes to the
// best matching catalog module and drops non-positive role hours.
func normalizeProposal(p domain.Proposal, idx *catalogIndex) domain.Proposal {
	out := domain.Proposal{
		Nodes:     make([]domain.ProposalNode, 0, len(p.Nodes)),
		Edges:     make([]domain.ProposalEdge, 0, len(p.Edges)),
		Rationale: domain.CoalesceStr(strings.TrimSpace(p.Rationale), "AI analysis"),
	}
	for i, n := range p.Nodes {
		n.Key = domain.CoalesceStr(strings.TrimSpace(n.Key), fmt.Sprintf("n%d", i+1))
		n.Title = strings.TrimSpace(n.Title)
		n.Details = strings.TrimSpace(n.Details)
		n.ModuleCode = idx.normalize(n.ModuleCode)
		if n.ModuleCode == "" {
			n.ModuleCode, _ = idx.bestMatch(n.Title, n.Details, 0)
		}
		n.RoleHours = domain.NormalizeRoleHours(n.RoleHours)
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range p.Edges {
		e.FromKey, e.ToKey = strings.TrimSpace(e.FromKey), strings.TrimSpace(e.ToKey)
		if e.FromKey != "" && e.ToKey != "" {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// mindmapHeuristics chains the heuristic task breakdown into a path. Hours
// stay zero so the catalog hours of each matched module apply on merge.
func mindmapHeuristics(prompt string, catalog []domain.Module, idx *catalogIndex) domain.Proposal {
	tasks := heuristicTasks(prompt, catalog, idx)
	p := domain.Proposal{
		Nodes:     make([]domain.ProposalNode, 0, len(tasks)),
		Edges:     make([]domain.ProposalEdge, 0, len(tasks)),
		Rationale: heuristicRationale,
	}
	for i, t := range tasks {
		key := fmt.Sprintf("t%d", i+1)
		p.Nodes = append(p.Nodes, domain.ProposalNode{
			Key:        key,
			Title:      t.Title,
			Details:    t.Details,
			ModuleCode: t.ModuleCode,
			RoleHours:  []domain.RoleHours{},
		})
		if i > 0 {
			p.Edges = append(p.Edges, domain.ProposalEdge{FromKey: p.Nodes[i-1].Key, ToKey: key})
		}
	}
	return p
}
