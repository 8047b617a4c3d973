// Package module wires the results sink
package module

import (
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/services/results/domain"
	"moderato/internal/services/results/repo"
)

// Ports exposed by the results module
type Ports struct {
	Writer domain.WriterPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the results module. With clickhouse configured it writes
// there; otherwise results stay in process memory
func New(deps modkit.Deps) *Module {
	var w domain.WriterPort
	if deps.CH != nil {
		w = repo.NewCH(deps.CH)
	} else {
		w = repo.NewMemory()
	}
	return &Module{deps: deps, ports: Ports{Writer: w}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "results" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
