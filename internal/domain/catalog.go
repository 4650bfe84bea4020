package domain

import "strings"

// RoleHours is a free-form per-role hour breakdown entry.
type RoleHours struct {
	Role  string  `json:"role" yaml:"role"`
	Hours float64 `json:"hours" yaml:"hours"`
}

// NormalizeRoleHours drops entries with non-positive hours. The result is
// never nil so it encodes as an empty list.
func NormalizeRoleHours(in []RoleHours) []RoleHours {
	out := make([]RoleHours, 0, len(in))
	for _, rh := range in {
		if rh.Hours <= 0 {
			continue
		}
		out = append(out, rh)
	}
	return out
}

// Hours holds per-phase hours.
type Hours struct {
	Frontend float64 `json:"frontend"`
	Backend  float64 `json:"backend"`
	QA       float64 `json:"qa"`
}

func (h Hours) Total() float64 {
	return h.Frontend + h.Backend + h.QA
}

// ForRole returns the hours of a single role.
func (h Hours) ForRole(r Role) float64 {
	switch r {
	case RoleFrontend:
		return h.Frontend
	case RoleBackend:
		return h.Backend
	case RoleQA:
		return h.QA
	default:
		return 0
	}
}

// Scale multiplies every phase by m.
func (h Hours) Scale(m float64) Hours {
	return Hours{Frontend: h.Frontend * m, Backend: h.Backend * m, QA: h.QA * m}
}

// Module is a catalog entry shared across projects.
type Module struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	HoursFrontend float64     `json:"hours_frontend"`
	HoursBackend  float64     `json:"hours_backend"`
	HoursQA       float64     `json:"hours_qa"`
	RoleHours     []RoleHours `json:"role_hours"`
}

func (m Module) Hours() Hours {
	return Hours{Frontend: m.HoursFrontend, Backend: m.HoursBackend, QA: m.HoursQA}
}

func (m *Module) Validate() error {
	if strings.TrimSpace(m.Code) == "" {
		return ValidationError("module code is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return ValidationError("module name is required")
	}
	if m.HoursFrontend < 0 || m.HoursBackend < 0 || m.HoursQA < 0 {
		return ValidationError("module %s: hours must be non-negative", m.Code)
	}
	return nil
}

// ModuleByCode indexes modules by code.
func ModuleByCode(modules []Module) map[string]Module {
	idx := make(map[string]Module, len(modules))
	for _, m := range modules {
		idx[m.Code] = m
	}
	return idx
}

// ProjectConnection links two project modules of the same project.
type ProjectConnection struct {
	ID                  string `json:"id"`
	ProjectID           string `json:"project_id"`
	FromProjectModuleID string `json:"from_project_module_id"`
	ToProjectModuleID   string `json:"to_project_module_id"`
}

// ProjectModule is the inclusion of a Module in a project. Nil overrides fall
// back to the module catalog, then to project settings.
type ProjectModule struct {
	ID               string   `json:"id"`
	ProjectID        string   `json:"project_id"`
	ModuleID         string   `json:"module_id"`
	CustomName       string   `json:"custom_name"`
	OverrideFrontend *float64 `json:"override_frontend"`
	OverrideBackend  *float64 `json:"override_backend"`
	OverrideQA       *float64 `json:"override_qa"`
	UncertaintyLevel *string  `json:"uncertainty_level"`
	UIUXLevel        *string  `json:"uiux_level"`
	LegacyCode       *bool    `json:"legacy_code"`
}

// EffectiveHours merges overrides over the module's catalog hours.
func (pm ProjectModule) EffectiveHours(m Module) Hours {
	return Hours{
		Frontend: Float64FromPtrWithDefault(m.HoursFrontend, pm.OverrideFrontend),
		Backend:  Float64FromPtrWithDefault(m.HoursBackend, pm.OverrideBackend),
		QA:       Float64FromPtrWithDefault(m.HoursQA, pm.OverrideQA),
	}
}

// EffectiveSettings resolves the module-level settings overrides against
// the project defaults.
func (pm ProjectModule) EffectiveSettings(project ProjectSettings) ProjectSettings {
	return ProjectSettings{
		UncertaintyLevel: StrFromPtrWithDefault(project.UncertaintyLevel, pm.UncertaintyLevel),
		UIUXLevel:        StrFromPtrWithDefault(project.UIUXLevel, pm.UIUXLevel),
		LegacyCode:       BoolFromPtrWithDefault(project.LegacyCode, pm.LegacyCode),
	}
}

// DisplayName prefers the custom name over the module name.
func (pm ProjectModule) DisplayName(m Module) string {
	return CoalesceStr(pm.CustomName, m.Name, m.Code)
}

func (pm *ProjectModule) Validate() error {
	if pm.ModuleID == "" {
		return ValidationError("module id is required")
	}
	for _, v := range []*float64{pm.OverrideFrontend, pm.OverrideBackend, pm.OverrideQA} {
		if v != nil && *v < 0 {
			return ValidationError("hour overrides must be non-negative")
		}
	}
	return nil
}

type Assignment struct {
	ID              string `json:"id"`
	ProjectID       string `json:"project_id"`
	ProjectModuleID string `json:"project_module_id"`
	Role            string `json:"role"`
	Level           string `json:"level"`
}

func (a *Assignment) Validate() error {
	if a.ProjectModuleID == "" || a.Role == "" || a.Level == "" {
		return ValidationError("assignment requires project module, role and level")
	}
	return nil
}

// Rate is a global hourly rate for a (role, level) pair.
type Rate struct {
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	Level      string  `json:"level"`
	HourlyRate float64 `json:"hourly_rate"`
}

func (r *Rate) Validate() error {
	if r.Role == "" || r.Level == "" {
		return ValidationError("rate requires role and level")
	}
	if r.HourlyRate < 0 {
		return ValidationError("hourly rate must be non-negative")
	}
	return nil
}

// Coefficient is a named project-scoped multiplier.
type Coefficient struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

func (c *Coefficient) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError("coefficient name is required")
	}
	if c.Multiplier < 0 {
		return ValidationError("coefficient %q: multiplier must be non-negative", c.Name)
	}
	return nil
}

type InfrastructureItem struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unit_cost"`
}

func (i *InfrastructureItem) Validate() error {
	if strings.TrimSpace(i.Code) == "" || strings.TrimSpace(i.Name) == "" {
		return ValidationError("infrastructure item requires code and name")
	}
	if i.UnitCost < 0 {
		return ValidationError("unit cost must be non-negative")
	}
	return nil
}

// ProjectInfrastructure allocates a quantity of an infrastructure item to a project.
type ProjectInfrastructure struct {
	ID                   string `json:"id"`
	ProjectID            string `json:"project_id"`
	InfrastructureItemID string `json:"infrastructure_item_id"`
	Quantity             int    `json:"quantity"`
}

func (pi *ProjectInfrastructure) Validate() error {
	if pi.InfrastructureItemID == "" {
		return ValidationError("infrastructure item id is required")
	}
	if pi.Quantity < 0 {
		return ValidationError("quantity must be non-negative")
	}
	return nil
}
