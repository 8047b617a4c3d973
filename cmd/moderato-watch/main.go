// moderato-watch polls the platform feed and runs the moderation pipeline
// over every new utterance, handing finalized results to the action sink
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moderato/internal/core/catalog"
	"moderato/internal/core/moderation"
	"moderato/internal/modkit"
	"moderato/internal/modkit/module"
	"moderato/internal/platform/config"
	"moderato/internal/platform/logger"
	"moderato/internal/platform/store"

	"moderato/internal/adapters/platform"
	"moderato/internal/capability"
	"moderato/internal/capability/classify"
	"moderato/internal/capability/generate"
	"moderato/internal/capability/translate"

	composermod "moderato/internal/services/composer/module"
	detectormod "moderato/internal/services/detector/module"
	historymod "moderato/internal/services/history/module"
	normalizermod "moderato/internal/services/normalizer/module"
	pipelinedom "moderato/internal/services/pipeline/domain"
	pipelinemod "moderato/internal/services/pipeline/module"
	pipelinesvc "moderato/internal/services/pipeline/service"
	resultsmod "moderato/internal/services/results/module"
	selectormod "moderato/internal/services/selector/module"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	capCfg := root.Prefix("CAPABILITY_")
	watchCfg := root.Prefix("WATCH_")

	l := logger.Get()

	var (
		fInterval = flag.Duration("interval", watchCfg.MayDuration("INTERVAL", 30*time.Second), "feed poll interval")
		fDryRun   = flag.Bool("dryrun", watchCfg.MayBool("DRYRUN", false), "decide but do not record or post")
	)
	flag.Parse()

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
		pipelinesvc.Config{DryRun: *fDryRun},
	)

	feed := platform.NewHTTPFeed(platform.HTTPFeedConfig{
		BaseURL: watchCfg.MustString("FEED_URL"),
	})
	action := platform.NewLogAction(*fDryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watch(ctx, feed, action, module.MustPortsOf[pipelinemod.Ports](pipeMod).Runner, *fInterval)
	l.Info().Msg("watcher stopped")
}

// watch is the poll loop: fetch a batch, run each utterance in arrival
// order, hand every terminal result to the action sink. Feed failures back
// off to the next tick
func watch(ctx context.Context, feed platform.Feed, action platform.Action,
	runner pipelinedom.RunnerPort, interval time.Duration,
) {
	l := logger.Named("watch")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var cursor string
	for {
		utts, next, err := feed.Poll(ctx, cursor)
		if err != nil {
			l.Warn().Err(err).Msg("feed poll failed")
		} else {
			cursor = next
			for _, u := range utts {
				res := runner.Run(ctx, u)
				if err := action.Act(ctx, res); err != nil {
					l.Error().Err(err).Str("run", res.RunID).Msg("action failed")
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
