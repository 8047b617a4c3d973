// Package module wires the normalizer service
package module

import (
	"moderato/internal/capability"
	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/services/normalizer/domain"
	"moderato/internal/services/normalizer/service"
)

// Ports exposed by the normalizer module
type Ports struct {
	Normalizer domain.NormalizerPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the normalizer module over the translation capability
func New(deps modkit.Deps, cat catalog.Catalog, tr capability.Translator) *Module {
	if tr == nil {
		panic("normalizer module: nil translator capability")
	}
	budget := cat.BudgetFor(moderation.StageNormalize)
	svc := service.New(tr, service.Config{
		CanonicalLang: cat.CanonicalLang,
		Retries:       budget.Retries,
		Backoff:       budget.Backoff,
	})
	return &Module{deps: deps, ports: Ports{Normalizer: svc}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "normalizer" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
