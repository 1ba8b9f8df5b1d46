package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"zoterharvest/internal/config"
	"zoterharvest/internal/convert"
	"zoterharvest/internal/delivery"
	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
	"zoterharvest/internal/harvest"
	"zoterharvest/internal/langdetect"
	"zoterharvest/internal/logger"
	"zoterharvest/internal/metrics"
	"zoterharvest/internal/translate"
	"zoterharvest/internal/writer"
)

// Deps bundles every collaborator a Driver needs to run journals end to
// end. Constructed once at startup by cmd/harvester and shared across
// every concurrent RunJournal call.
type Deps struct {
	Registry           *harvest.Registry
	Downloads          *download.Manager
	Delivery           *delivery.Store
	Writer             *writer.Cache
	Metrics            *metrics.Sink
	LangResolver       *langdetect.Resolver
	JournalConcurrency int64 // max journals processed concurrently
	ForceDownloads     bool  // --force-downloads: skip URL-based dedup short-circuit, still archive
}

// noopDeliveryChecker implements convert.DeliveryChecker by reporting
// nothing as already delivered, for --force-downloads mode (spec §6:
// "disable cache and delivery-dedup checks for URL-based short-circuit;
// still archive results").
type noopDeliveryChecker struct{}

func (noopDeliveryChecker) URLAlreadyDelivered(ctx context.Context, url string, ignored []domain.DeliveryState) (*domain.DeliveredRecordEntry, error) {
	return nil, nil
}

func (noopDeliveryChecker) HashAlreadyDelivered(ctx context.Context, hash string, ignored []domain.DeliveryState) ([]domain.DeliveredRecordEntry, error) {
	return nil, nil
}

// Driver runs every journal in a Loaded configuration tree, funneling
// each journal's converted records through an emission-ordered writer so
// output files stay append-in-id-order even though harvesting, download,
// and conversion all run concurrently. Generalizes job/scheduler.go's
// JobScheduler from a fixed-interval periodic runner to a one-shot
// per-journal fan-out.
type Driver struct {
	deps   Deps
	global *domain.GlobalParams
	groups map[string]*domain.GroupParams
	log    *slog.Logger
}

func NewDriver(deps Deps, loaded *config.Loaded, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{deps: deps, global: loaded.Global, groups: loaded.Groups, log: log}
}

// Run processes every journal in loaded, bounded to
// deps.JournalConcurrency simultaneous journals, and returns the first
// error encountered (processing of other journals continues — a single
// journal's failure never aborts the run, per spec §7's "failures are
// recorded and skipped, not fatal").
func (d *Driver) Run(ctx context.Context, journals []*domain.JournalParams) error {
	concurrency := d.deps.JournalConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var firstErr error

	for _, journal := range journals {
		journal := journal
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			if err := d.RunJournal(gctx, journal); err != nil {
				d.log.Error("journal run failed", "journal", journal.Name, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil // a single journal error never cancels the group
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return firstErr
}

// RunJournal drives one journal through harvest -> download children ->
// translate -> convert -> write -> archive, emitting records in
// HarvestableItem id order.
func (d *Driver) RunJournal(ctx context.Context, journal *domain.JournalParams) error {
	group, ok := d.groups[journal.Group]
	if !ok {
		return fmt.Errorf("pipeline: journal %q references unknown group %q", journal.Name, journal.Group)
	}

	op, err := d.deps.Registry.Select(journal)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	journalInternalID, err := d.deps.Delivery.UpsertJournal(ctx, journal)
	if err != nil {
		return fmt.Errorf("pipeline: registering journal %q: %w", journal.Name, err)
	}

	counter := &domain.ItemCounter{}
	entry := domain.NewItem(counter, journal.EntryURL, journal)

	outcome, err := op.Harvest(ctx, entry, group, counter)
	if err != nil {
		d.deps.Metrics.IncDownloadFailure()
		return fmt.Errorf("pipeline: harvest failed for %q: %w", journal.Name, err)
	}

	var results []download.Result
	if outcome.EntryResult.Item.URL != "" {
		results = append(results, outcome.EntryResult)
	}

	queue := newEmitQueue(entry.ID)
	var emitMu sync.Mutex
	emit := func(c completion) {
		for _, rec := range c.records {
			if err := d.deps.Writer.WriteRecord(group, rec); err != nil {
				d.log.Error("write record failed", "journal", journal.Name, "error", err)
				continue
			}
			if err := d.deps.Delivery.Archive(ctx, journalInternalID, rec, domain.StateAutomatic, ""); err != nil {
				d.log.Error("archive record failed", "journal", journal.Name, "error", err)
			}
			d.deps.Metrics.IncDelivered(group.Name)
		}
	}

	var wg sync.WaitGroup
	const perJournalConversionConcurrency = 4
	childSem := make(chan struct{}, perJournalConversionConcurrency)

	processResult := func(res download.Result) {
		defer wg.Done()
		defer func() { <-childSem }()

		taskCtx, done := logger.GlobalRegistry.Register(ctx, res.Item)
		defer done()

		records := d.convertResult(taskCtx, res, journal, group)

		emitMu.Lock()
		queue.Submit(completion{id: res.Item.ID, records: records}, emit)
		emitMu.Unlock()
	}

	// The entry result (if any) is already downloaded; dispatch it first.
	for _, res := range results {
		queue.Dispatch()
		wg.Add(1)
		childSem <- struct{}{}
		go processResult(res)
	}

	userAgent := group.UserAgent
	for _, child := range outcome.Children {
		child := child
		queue.Dispatch()
		wg.Add(1)
		childSem <- struct{}{}
		go func() {
			res := d.deps.Downloads.DirectDownload(ctx, child, userAgent, download.ModeTranslated)
			processResult(res)
		}()
	}

	wg.Wait()
	return nil
}

// convertResult runs the §4.3/§4.4 translate+convert pipeline over one
// downloaded result, returning the (possibly zero) catalog records it
// yielded. Skips and failures are counted but never returned as errors,
// since a single item's failure must not abort its sibling items.
func (d *Driver) convertResult(ctx context.Context, res download.Result, journal *domain.JournalParams, group *domain.GroupParams) []domain.CatalogRecord {
	if !res.Success() {
		d.deps.Metrics.IncDownloadFailure()
		return nil
	}

	zoteroFilters := domain.MergeMetadataParams(d.global.Metadata, group.Metadata, journal.ZoteroMetadata)
	items, err := translate.PostProcess(res.Body, zoteroFilters)
	if err != nil {
		d.deps.Metrics.IncConversionFailure()
		return nil
	}

	var checker convert.DeliveryChecker = d.deps.Delivery
	if d.deps.ForceDownloads {
		checker = noopDeliveryChecker{}
	}

	cctx := convert.Context{Global: d.global, Group: group, Journal: journal, Item: res.Item}
	deps := convert.Deps{
		Metrics:      d.deps.Metrics,
		Delivery:     checker,
		AuthorLookup: convert.NewGNDLookup(d.deps.Downloads.HTTPClient(), group.AuthorLookupURL),
	}

	var out []domain.CatalogRecord
	for i := range items {
		catalog, err := convert.ConvertItem(ctx, &items[i], cctx, d.deps.LangResolver, deps)
		if err != nil {
			if _, isSkip := err.(*convert.SkipError); !isSkip {
				d.deps.Metrics.IncConversionFailure()
			}
			continue
		}
		out = append(out, *catalog)
	}
	return out
}
