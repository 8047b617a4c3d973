// Package module wires the selector service
package module

import (
	"moderato/internal/core/catalog"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/services/selector/domain"
	"moderato/internal/services/selector/service"
)

// Ports exposed by the selector module
type Ports struct {
	Selector domain.SelectorPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the selector module; panics on an invalid catalog because
// configuration errors are fatal at startup
func New(deps modkit.Deps, cat catalog.Catalog) *Module {
	if err := cat.Validate(); err != nil {
		panic(err)
	}
	return &Module{deps: deps, ports: Ports{Selector: service.New(cat)}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "selector" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
