package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/harvesterrors"
	"zoterharvest/internal/ratelimit"
	"zoterharvest/internal/security"
)

// Pools bounds the four concurrency budgets named in spec §5: direct
// downloads, crawls, feeds, and conversions.
type Pools struct {
	Direct     *semaphore.Weighted
	Crawl      *semaphore.Weighted
	Feed       *semaphore.Weighted
	Conversion *semaphore.Weighted
}

func NewPools(direct, crawl, feed, conversion int64) *Pools {
	return &Pools{
		Direct:     semaphore.NewWeighted(direct),
		Crawl:      semaphore.NewWeighted(crawl),
		Feed:       semaphore.NewWeighted(feed),
		Conversion: semaphore.NewWeighted(conversion),
	}
}

// Manager is the §4.1 download manager: it issues HTTP fetches at a rate
// that respects both per-domain delay settings and robots.txt, caches
// recent responses, and reports results rather than raising them.
type Manager struct {
	client       *http.Client
	guard        *security.Guard
	limiter      *ratelimit.HostLimiter
	robots       *RobotsPolicy
	cache        *ResponseCache
	pools        *Pools
	translator   TranslationPoster
	ignoreRobots bool
	requestTimeout time.Duration
}

type Config struct {
	Delay          domain.DownloadDelayParams
	RequestTimeout time.Duration
	IgnoreRobots   bool
	CacheTTL       time.Duration
	Pools          *Pools
}

func NewManager(translator TranslationPoster, cfg Config) *Manager {
	guard := security.NewGuard()
	client := guard.NewSecureClient(cfg.RequestTimeout)
	return &Manager{
		client:         client,
		guard:          guard,
		limiter:        ratelimit.NewHostLimiter(cfg.Delay.DefaultDelay),
		robots:         NewRobotsPolicy(client, cfg.IgnoreRobots),
		cache:          NewResponseCache(cfg.CacheTTL),
		pools:          cfg.Pools,
		translator:     translator,
		ignoreRobots:   cfg.IgnoreRobots,
		requestTimeout: cfg.RequestTimeout,
	}
}

// throttle waits out both the per-domain delay and any robots Crawl-delay
// floor before issuing a request, and ensures robots.txt has been fetched
// (and its Crawl-delay folded into the limiter) for this host.
func (m *Manager) throttle(ctx context.Context, target *url.URL, userAgent string) error {
	if delay := m.robots.CrawlDelay(ctx, target.Scheme, target.Host, userAgent); delay > 0 {
		m.limiter.RaiseFloor(target.Host, delay)
	}
	return m.limiter.WaitForHost(ctx, target.String())
}

// DirectDownload fetches item.URL; in ModeTranslated it instead POSTs the
// URL to the translation service and returns its JSON response. Failures
// are reported on the returned Result, never as a Go error, per spec §4.1.
func (m *Manager) DirectDownload(ctx context.Context, item domain.HarvestableItem, userAgent string, mode Mode) Result {
	fetch := func() (Result, error) {
		return m.fetchOnce(ctx, item, userAgent, mode), nil
	}

	if err := m.pools.Direct.Acquire(ctx, 1); err != nil {
		return Result{Item: item, Err: harvesterrors.NewTimeout("download_manager", "directDownload", "pool acquire cancelled", err)}
	}
	defer m.pools.Direct.Release(1)

	result, _ := m.cache.GetOrFetch(item.URL, mode, fetch)
	result.Item = item
	return result
}

func (m *Manager) fetchOnce(ctx context.Context, item domain.HarvestableItem, userAgent string, mode Mode) Result {
	target, err := url.Parse(item.URL)
	if err != nil {
		return Result{Err: harvesterrors.NewNetwork("download_manager", "directDownload", "invalid url", err)}
	}
	if err := m.guard.ValidateURL(target); err != nil {
		return Result{Err: harvesterrors.NewNetwork("download_manager", "directDownload", "ssrf validation failed", err)}
	}
	if !m.robots.Allowed(ctx, target, userAgent) {
		return Result{Err: harvesterrors.New(harvesterrors.KindHTTP, "download", "download_manager", "directDownload", "disallowed by robots.txt", domain.ErrRobotsDisallowed)}
	}
	if err := m.throttle(ctx, target, userAgent); err != nil {
		return Result{Err: harvesterrors.NewTimeout("download_manager", "directDownload", "rate limit wait cancelled", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	if mode == ModeTranslated {
		body, status, err := m.translator.PostURL(reqCtx, item.URL)
		if err != nil {
			return Result{StatusCode: status, FetchedAt: time.Now(), Err: harvesterrors.NewTranslation("translation_client", "directDownload", "translation service call failed", err)}
		}
		if status < 200 || status >= 300 {
			return Result{StatusCode: status, FetchedAt: time.Now(), Err: harvesterrors.NewHTTP("translate", "translation_client", "directDownload", "translation service returned non-2xx", status, nil)}
		}
		return Result{Body: body, StatusCode: status, FetchedAt: time.Now()}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Result{Err: harvesterrors.NewNetwork("download_manager", "directDownload", "failed to build request", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || reqCtx.Err() != nil {
			return Result{Err: harvesterrors.NewTimeout("download_manager", "directDownload", "request timed out", err)}
		}
		return Result{Err: harvesterrors.NewNetwork("download_manager", "directDownload", "transport error", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Err: harvesterrors.NewNetwork("download_manager", "directDownload", "failed reading body", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		m.limiter.RecordRateLimitHit(target.Host, retryAfter)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Body: body, StatusCode: resp.StatusCode, FetchedAt: time.Now(), Err: harvesterrors.NewHTTP("download", "download_manager", "directDownload", "non-2xx response", resp.StatusCode, nil)}
	}

	return Result{Body: body, StatusCode: resp.StatusCode, FetchedAt: time.Now()}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := time.ParseDuration(header + "s"); err == nil {
		return secs
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}

// CacheStats exposes cumulative hit/miss counters for the final metrics
// summary.
func (m *Manager) CacheStats() (hits, misses int64) { return m.cache.Stats() }

// Robots exposes the robots policy so harvest operators can consult
// Allowed/CrawlDelay directly (e.g. the crawl operator checking each
// discovered link before enqueuing it).
func (m *Manager) Robots() *RobotsPolicy { return m.robots }

// Limiter exposes the rate limiter for operators issuing requests outside
// DirectDownload (e.g. the feed operator's paged-feed follow-up queries).
func (m *Manager) Limiter() *ratelimit.HostLimiter { return m.limiter }

// Guard exposes the SSRF guard for operators validating discovered links
// before turning them into HarvestableItems.
func (m *Manager) Guard() *security.Guard { return m.guard }

// HTTPClient exposes the underlying secure client for operators that need
// to make a request shape DirectDownload does not cover (feed/XML GETs,
// API-query GETs).
func (m *Manager) HTTPClient() *http.Client { return m.client }
