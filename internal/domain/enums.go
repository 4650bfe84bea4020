package domain

type Role string

const (
	RoleFrontend Role = "frontend"
	RoleBackend  Role = "backend"
	RoleQA       Role = "qa"
)

// Roles lists the estimated roles in reporting order.
var Roles = []Role{RoleFrontend, RoleBackend, RoleQA}

const (
	UncertaintyKnown   = "known"
	UncertaintyNewTech = "new_tech"
)

const (
	UIUXMVP   = "mvp"
	UIUXAward = "award"
)

const (
	LevelJunior = "junior"
	LevelMiddle = "middle"
	LevelSenior = "senior"
	LevelLead   = "lead"
)

// DefaultCoefficientNames are created for every new project with multiplier 1.0.
var DefaultCoefficientNames = []string{"Uncertainty", "UI/UX", "Legacy code"}
