// Package module wires the pipeline orchestrator and its dispatcher
package module

import (
	"moderato/internal/core/catalog"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/services/pipeline/domain"
	"moderato/internal/services/pipeline/service"

	historydom "moderato/internal/services/history/domain"
	resultsdom "moderato/internal/services/results/domain"
)

// Ports exposed by the pipeline module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the pipeline module: orchestrator wrapped in the
// per-thread dispatcher
func New(deps modkit.Deps, cat catalog.Catalog, stages service.Stages,
	hr historydom.ReaderPort, hw historydom.WriterPort,
	rw resultsdom.WriterPort, cfg service.Config,
) *Module {
	orch := service.New(stages, hr, hw, rw, cat, cfg)
	return &Module{deps: deps, ports: Ports{Runner: service.NewDispatcher(orch)}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "pipeline" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
