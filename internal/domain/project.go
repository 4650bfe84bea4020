package domain

import (
	"strings"
	"time"
)

type Project struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	UncertaintyLevel string    `json:"uncertainty_level"`
	UIUXLevel        string    `json:"uiux_level"`
	LegacyCode       bool      `json:"legacy_code"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProjectSettings are the estimation knobs that can be set on a project and
// overridden per project module.
type ProjectSettings struct {
	UncertaintyLevel string `json:"uncertainty_level"`
	UIUXLevel        string `json:"uiux_level"`
	LegacyCode       bool   `json:"legacy_code"`
}

// NewProject returns a project with default settings.
func NewProject(id, name, description string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:               id,
		Name:             name,
		Description:      description,
		UncertaintyLevel: UncertaintyKnown,
		UIUXLevel:        UIUXMVP,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (p *Project) Settings() ProjectSettings {
	return ProjectSettings{
		UncertaintyLevel: p.UncertaintyLevel,
		UIUXLevel:        p.UIUXLevel,
		LegacyCode:       p.LegacyCode,
	}
}

// ApplySettings copies s onto the project and bumps UpdatedAt.
func (p *Project) ApplySettings(s ProjectSettings) {
	p.UncertaintyLevel = s.UncertaintyLevel
	p.UIUXLevel = s.UIUXLevel
	p.LegacyCode = s.LegacyCode
	p.UpdatedAt = time.Now().UTC()
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ValidationError("project name is required")
	}
	return p.Settings().Validate()
}

func (s ProjectSettings) Validate() error {
	if s.UncertaintyLevel == "" {
		return ValidationError("uncertainty level is required")
	}
	if s.UIUXLevel == "" {
		return ValidationError("ui/ux level is required")
	}
	return nil
}
