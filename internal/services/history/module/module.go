// Package module wires the history service
package module

import (
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/modkit/repokit"
	"moderato/internal/services/history/domain"
	"moderato/internal/services/history/repo"
	"moderato/internal/services/history/service"
)

// Ports exposed by the history module
type Ports struct {
	Reader domain.ReaderPort
	Writer domain.WriterPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the history module. With postgres configured it binds the
// pg repo; otherwise it falls back to in-process memory
func New(deps modkit.Deps) *Module {
	var r domain.Repo
	if deps.PG != nil {
		r = repokit.MustBind(repo.NewPG(), deps.PG)
	} else {
		r = repo.NewMemory()
	}
	svc := service.New(r)
	return &Module{deps: deps, ports: Ports{Reader: svc, Writer: svc}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "history" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
