package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"zoterharvest/internal/config"
	"zoterharvest/internal/delivery"
	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
	"zoterharvest/internal/harvest"
	"zoterharvest/internal/langdetect"
	"zoterharvest/internal/logger"
	"zoterharvest/internal/metrics"
	"zoterharvest/internal/pipeline"
	"zoterharvest/internal/translate"
	"zoterharvest/internal/writer"
)

// §5 concurrency budgets: max simultaneous operations per pool, separate
// from the per-journal conversion concurrency pipeline.Driver applies
// internally.
const (
	directPoolSize     = 16
	crawlPoolSize      = 8
	feedPoolSize       = 8
	conversionPoolSize = 8
	journalConcurrency = 4
	responseCacheTTL   = 10 * time.Minute
)

// runtime bundles everything built once per invocation: the loaded
// config tree, the pipeline driver, and a close function releasing the
// delivery store's connection pool.
type runtime struct {
	loaded *config.Loaded
	driver *pipeline.Driver
	sink   *metrics.Sink
	close  func()
}

func buildRuntime(ctx context.Context, configPath string, flags globalFlags) (*runtime, error) {
	loaded, err := config.LoadFile(configPath, flags.configOverrides)
	if err != nil {
		return nil, fmt.Errorf("harvester: loading config: %w", err)
	}

	if loaded.Global.EnhancementMapsDir != "" {
		maps, err := config.LoadEnhancementMaps(loaded.Global.EnhancementMapsDir)
		if err != nil {
			return nil, fmt.Errorf("harvester: loading enhancement maps: %w", err)
		}
		loaded.Global.Enhancement = maps
	}

	pool, err := delivery.InitPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvester: connecting to delivery database: %w", err)
	}
	store := delivery.New(pool, int64(directPoolSize))
	if err := store.Bootstrap(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("harvester: bootstrapping delivery schema: %w", err)
	}

	translator := translate.NewClient(&http.Client{Timeout: loaded.Global.TimeoutDownload}, loaded.Global.TranslationServerURL)

	pools := download.NewPools(directPoolSize, crawlPoolSize, feedPoolSize, conversionPoolSize)
	cacheTTL := responseCacheTTL
	if flags.forceDownloads {
		cacheTTL = 0
	}
	mgr := download.NewManager(translator, download.Config{
		Delay:          loaded.Global.Delay,
		RequestTimeout: loaded.Global.TimeoutDownload,
		IgnoreRobots:   flags.ignoreRobots,
		CacheTTL:       cacheTTL,
		Pools:          pools,
	})

	userAgent := func(j *domain.JournalParams) string {
		if group, ok := loaded.Groups[j.Group]; ok {
			return group.UserAgent
		}
		return "zoterharvest"
	}

	direct := harvest.NewDirectOperator(mgr, userAgent)
	feed := harvest.NewFeedOperator(mgr, userAgent, store, store)
	paged := harvest.NewPagedFeedOperator(feed)
	crawl := harvest.NewCrawlOperator(mgr, userAgent)
	apiQuery := harvest.NewAPIQueryOperator(mgr, userAgent)
	email := harvest.NewEmailOperator(loaded.Global.MailboxPaths)
	registry := harvest.NewRegistry(direct, feed, paged, crawl, apiQuery, email)

	outputDir := flags.outputDirectory
	if outputDir == "" {
		outputDir = "/tmp/zotero_harvester/"
	}
	outputFilename := flags.outputFilename
	if outputFilename == "" {
		outputFilename = fmt.Sprintf("zotero_harvester_%s.xml", time.Now().Format("2006-01-02 15:04:05"))
	}
	cache := writer.NewCache(writer.Config{OutputDir: outputDir, OutputFilename: outputFilename})

	sink := metrics.NewSink()
	driver := pipeline.NewDriver(pipeline.Deps{
		Registry:           registry,
		Downloads:          mgr,
		Delivery:           store,
		Writer:             cache,
		Metrics:            sink,
		LangResolver:       langdetect.NewResolver(nil),
		JournalConcurrency: journalConcurrency,
		ForceDownloads:     flags.forceDownloads,
	}, loaded, logger.Logger)

	closeFn := func() {
		cache.CloseAll()
		store.Close()
	}
	return &runtime{loaded: loaded, driver: driver, sink: sink, close: closeFn}, nil
}
