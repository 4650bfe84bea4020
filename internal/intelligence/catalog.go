package intelligence

import (
	"strings"
	"unicode/utf8"

	"github.com/alexanderramin/estima/internal/domain"
)

// defaultModuleCode is preferred when nothing in the prompt matches.
const defaultModuleCode = "core"

// catalogIndex maps module codes to the keywords drawn from their code,
// name and description.
type catalogIndex struct {
	codes    []string
	keywords map[string][]string
	modules  map[string]domain.Module
}

func newCatalogIndex(modules []domain.Module) *catalogIndex {
	idx := &catalogIndex{
		keywords: make(map[string][]string, len(modules)),
		modules:  make(map[string]domain.Module, len(modules)),
	}
	for _, m := range modules {
		if _, dup := idx.modules[m.Code]; dup {
			continue
		}
		idx.codes = append(idx.codes, m.Code)
		idx.modules[m.Code] = m
		idx.keywords[m.Code] = extractKeywords(m.Code + " " + m.Name + " " + m.Description)
	}
	return idx
}

// extractKeywords lowercases text and keeps distinct tokens longer than two
// characters.
func extractKeywords(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "—", " ")
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.Fields(text) {
		if utf8.RuneCountInString(tok) <= 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// normalize returns code when it names a catalog module, else "".
func (c *catalogIndex) normalize(code string) string {
	code = strings.TrimSpace(code)
	if _, ok := c.modules[code]; ok {
		return code
	}
	return ""
}

// defaultCode is "core" when present, otherwise the first catalog module.
func (c *catalogIndex) defaultCode() string {
	if _, ok := c.modules[defaultModuleCode]; ok {
		return defaultModuleCode
	}
	if len(c.codes) > 0 {
		return c.codes[0]
	}
	return ""
}

// bestMatch picks the module whose keywords occur most often in the task
// text. Ties keep the earlier catalog entry.
func (c *catalogIndex) bestMatch(title, details string, confidence float64) (string, float64) {
	text := strings.ToLower(title + " " + details)
	best, bestScore := "", 0
	for _, code := range c.codes {
		score := 0
		for _, kw := range c.keywords[code] {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = code, score
		}
	}
	if best == "" {
		return c.defaultCode(), max(confidence, 0.35)
	}
	return best, max(confidence, 0.6)
}

// matches reports whether the lowercased prompt mentions the module's code,
// name or any description word.
func matches(prompt string, m domain.Module) bool {
	candidates := []string{strings.ToLower(m.Code), strings.ToLower(m.Name)}
	candidates = append(candidates, strings.Fields(strings.ToLower(m.Description))...)
	for _, kw := range candidates {
		if kw != "" && strings.Contains(prompt, kw) {
			return true
		}
	}
	return false
}

// describe renders the catalog for a system prompt, one module per line.
func (c *catalogIndex) describe() string {
	var b strings.Builder
	for _, code := range c.codes {
		m := c.modules[code]
		b.WriteString(code)
		b.WriteString(": ")
		b.WriteString(m.Name)
		if m.Description != "" {
			b.WriteString(" - ")
			b.WriteString(m.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
