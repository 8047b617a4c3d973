// Package module wires the detector service
package module

import (
	"moderato/internal/capability"
	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/services/detector/domain"
	"moderato/internal/services/detector/service"
)

// Ports exposed by the detector module
type Ports struct {
	Detector domain.DetectorPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the detector module over the classifier capabilities
func New(deps modkit.Deps, cat catalog.Catalog, classifiers []capability.Classifier) *Module {
	budget := cat.BudgetFor(moderation.StageDetect)
	svc := service.New(classifiers, service.Config{
		Retries: budget.Retries,
		Backoff: budget.Backoff,
	})
	return &Module{deps: deps, ports: Ports{Detector: svc}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "detector" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
