package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/google/uuid"
)

var testCodeCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithSettings(s domain.ProjectSettings) ProjectOption {
	return func(p *domain.Project) {
		p.ApplySettings(s)
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	p := domain.NewProject(uuid.New().String(), name, "test project")
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Module options
type ModuleOption func(*domain.Module)

func WithCode(code string) ModuleOption {
	return func(m *domain.Module) {
		m.Code = code
	}
}

func WithHours(frontend, backend, qa float64) ModuleOption {
	return func(m *domain.Module) {
		m.HoursFrontend = frontend
		m.HoursBackend = backend
		m.HoursQA = qa
	}
}

func WithModuleRoleHours(rh ...domain.RoleHours) ModuleOption {
	return func(m *domain.Module) {
		m.RoleHours = rh
	}
}

func NewTestModule(name string, opts ...ModuleOption) *domain.Module {
	m := &domain.Module{
		ID:        uuid.New().String(),
		Code:      fmt.Sprintf("MOD%02d", testCodeCounter.Add(1)),
		Name:      name,
		RoleHours: []domain.RoleHours{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Node options
type NodeOption func(*domain.GraphNode)

func WithModule(moduleID string) NodeOption {
	return func(n *domain.GraphNode) {
		n.ModuleID = &moduleID
	}
}

func WithNodeHours(frontend, backend, qa float64) NodeOption {
	return func(n *domain.GraphNode) {
		n.HoursFrontend = frontend
		n.HoursBackend = backend
		n.HoursQA = qa
	}
}

func WithPosition(x, y float64) NodeOption {
	return func(n *domain.GraphNode) {
		n.PositionX = x
		n.PositionY = y
	}
}

func WithNodeRoleHours(rh ...domain.RoleHours) NodeOption {
	return func(n *domain.GraphNode) {
		n.RoleHours = rh
	}
}

func NewTestNode(projectID, title string, opts ...NodeOption) *domain.GraphNode {
	n := &domain.GraphNode{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		NodeAttrs: domain.NodeAttrs{
			Title:     title,
			RoleHours: []domain.RoleHours{},
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func NewTestNote(projectID, content string) *domain.GraphNote {
	return &domain.GraphNote{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		NoteAttrs: domain.NoteAttrs{Content: content, PositionX: 10, PositionY: 20},
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
