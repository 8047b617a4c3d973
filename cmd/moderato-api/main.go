// moderato-api serves the moderation pipeline over HTTP: submit an
// utterance, get back the full run record
package main

import (
	"context"

	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/platform/config"
	"moderato/internal/platform/httpx"
	"moderato/internal/platform/logger"
	"moderato/internal/platform/store"

	"moderato/internal/capability"
	"moderato/internal/capability/classify"
	"moderato/internal/capability/generate"
	"moderato/internal/capability/translate"

	"moderato/internal/services/api"
	composermod "moderato/internal/services/composer/module"
	detectormod "moderato/internal/services/detector/module"
	historymod "moderato/internal/services/history/module"
	normalizermod "moderato/internal/services/normalizer/module"
	pipelinemod "moderato/internal/services/pipeline/module"
	pipelinesvc "moderato/internal/services/pipeline/service"
	resultsmod "moderato/internal/services/results/module"
	selectormod "moderato/internal/services/selector/module"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	capCfg := root.Prefix("CAPABILITY_")

	l := logger.Get()

	stCfg := store.Config{}
	if pgCfg.MayBool("ENABLED", false) {
		stCfg.PG = store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("DBURL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
		}
	}
	if chCfg.MayBool("ENABLED", false) {
		stCfg.CH = store.CHConfig{
			Enabled: true,
			Addr:    chCfg.MustString("ADDR"),
			DB:      chCfg.MayString("DB", "moderato"),
			User:    chCfg.MayString("USER", "default"),
			Pass:    chCfg.MayString("PASS", ""),
		}
	}

	st, err := store.Open(context.Background(), stCfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	cat := catalog.FromConfig(root)
	if err := cat.Validate(); err != nil {
		l.Panic().Err(err).Msg("invalid pipeline configuration")
	}

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}

	translator := translate.New(translate.Config{
		BaseURL: capCfg.MustString("TRANSLATE_URL"),
		Timeout: cat.BudgetFor(moderation.StageNormalize).Timeout,
	})
	classifier := classify.New(classify.Config{
		BaseURL: capCfg.MustString("CLASSIFY_URL"),
		APIKey:  capCfg.MayString("CLASSIFY_API_KEY", ""),
		Timeout: cat.BudgetFor(moderation.StageDetect).Timeout,
	})
	generator := generate.New(generate.Config{
		BaseURL: capCfg.MustString("GENERATE_URL"),
		APIKey:  capCfg.MayString("GENERATE_API_KEY", ""),
		Model:   capCfg.MayString("GENERATE_MODEL", "gpt-4o-mini"),
		Timeout: cat.BudgetFor(moderation.StageCompose).Timeout,
	})

	normMod := normalizermod.New(deps, cat, translator)
	detMod := detectormod.New(deps, cat, []capability.Classifier{classifier})
	selMod := selectormod.New(deps, cat)
	compMod := composermod.New(deps, cat, generator, translator)
	histMod := historymod.New(deps)
	resMod := resultsmod.New(deps)

	pipeMod := pipelinemod.New(deps, cat, pipelinesvc.Stages{
		Normalizer: module.MustPortsOf[normalizermod.Ports](normMod).Normalizer,
		Detector:   module.MustPortsOf[detectormod.Ports](detMod).Detector,
		Selector:   module.MustPortsOf[selectormod.Ports](selMod).Selector,
		Composer:   module.MustPortsOf[composermod.Ports](compMod).Composer,
	},
		module.MustPortsOf[historymod.Ports](histMod).Reader,
		module.MustPortsOf[historymod.Ports](histMod).Writer,
		module.MustPortsOf[resultsmod.Ports](resMod).Writer,
		pipelinesvc.Config{DryRun: apiCfg.MayBool("DRYRUN", false)},
	)

	srv := httpx.NewServer(apiCfg)
	api.Mount(srv.Mux(), api.Options{
		Runner:  module.MustPortsOf[pipelinemod.Ports](pipeMod).Runner,
		History: module.MustPortsOf[historymod.Ports](histMod).Writer,
	})

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
