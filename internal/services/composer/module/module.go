// Package module wires the composer service
package module

import (
	"moderato/internal/capability"
	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/services/composer/domain"
	"moderato/internal/services/composer/service"
)

// Ports exposed by the composer module
type Ports struct {
	Composer domain.ComposerPort
}

// Module implements module.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

var _ module.Module = (*Module)(nil)

// New constructs the composer module. tr may be nil when source-language
// replies are disabled
func New(deps modkit.Deps, cat catalog.Catalog, gen capability.Generator, tr capability.Translator) *Module {
	b := cat.BudgetFor(moderation.StageCompose)
	return &Module{deps: deps, ports: Ports{Composer: service.New(gen, tr, service.Config{
		CanonicalLang:     cat.CanonicalLang,
		MaxResponseLen:    cat.MaxResponseLen,
		ReplyInSourceLang: cat.ReplyInSourceLang,
		Retries:           b.Retries,
		Backoff:           b.Backoff,
	})}}
}

// Name satisfies module.Module
func (m *Module) Name() string { return "composer" }

// Ports satisfies module.Module
func (m *Module) Ports() any { return m.ports }
