package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/estima/internal/domain"
)

// matchID resolves input against ids by exact match, then unique prefix.
func matchID(kind, input string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == input {
			return id, nil
		}
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

// resolveModule finds a catalog module by code (case-insensitive) or id.
func resolveModule(modules []domain.Module, input string) (domain.Module, error) {
	for _, m := range modules {
		if strings.EqualFold(m.Code, input) {
			return m, nil
		}
	}
	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	id, err := matchID("module", input, ids)
	if err != nil {
		return domain.Module{}, err
	}
	for _, m := range modules {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Module{}, fmt.Errorf("module not found: %q", input)
}

// resolveProjectModule finds a project module by id, or by the code of the
// module it includes.
func resolveProjectModule(pms []domain.ProjectModule, modules []domain.Module, input string) (domain.ProjectModule, error) {
	if m, err := resolveModule(modules, input); err == nil {
		for _, pm := range pms {
			if pm.ModuleID == m.ID && strings.EqualFold(m.Code, input) {
				return pm, nil
			}
		}
	}
	ids := make([]string, len(pms))
	for i, pm := range pms {
		ids[i] = pm.ID
	}
	id, err := matchID("project module", input, ids)
	if err != nil {
		return domain.ProjectModule{}, err
	}
	for _, pm := range pms {
		if pm.ID == id {
			return pm, nil
		}
	}
	return domain.ProjectModule{}, fmt.Errorf("project module not found: %q", input)
}

func nodeIDs(nodes []domain.GraphNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// parseRoleHours parses "role=hours" pairs.
func parseRoleHours(pairs []string) ([]domain.RoleHours, error) {
	out := make([]domain.RoleHours, 0, len(pairs))
	for _, p := range pairs {
		role, hours, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(role) == "" {
			return nil, fmt.Errorf("invalid role hours %q (want role=hours)", p)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(hours), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hours in %q: %w", p, err)
		}
		out = append(out, domain.RoleHours{Role: strings.TrimSpace(role), Hours: h})
	}
	return out, nil
}
