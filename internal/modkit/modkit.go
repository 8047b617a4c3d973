// Package modkit provides module wiring and core deps
package modkit

import (
	"moderato/internal/platform/config"
	"moderato/internal/platform/logger"
	"moderato/internal/platform/store"
)

// Deps holds core dependencies passed to modules.
// This is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}
