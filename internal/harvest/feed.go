package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
	"zoterharvest/internal/harvesterrors"
	"zoterharvest/internal/logger"
)

const (
	max403Retries          = 3
	maxConsecutiveFailures = 5
)

// FeedOperator services RSS/Atom journals (spec §4.2 "feed"): fetch and
// parse entry_url_ as a feed, then emit one harvestable item per entry
// link not already delivered. Grounded on job/feed_collector.go's
// CollectSingleFeed/fetchWithRetryOn403/handleFeedError shape.
type FeedOperator struct {
	mgr       *download.Manager
	userAgent func(*domain.JournalParams) string
	delivery  DeliveryChecker
	failures  FailureTracker
	parser    *gofeed.Parser
}

func NewFeedOperator(mgr *download.Manager, userAgent func(*domain.JournalParams) string, delivery DeliveryChecker, failures FailureTracker) *FeedOperator {
	return &FeedOperator{mgr: mgr, userAgent: userAgent, delivery: delivery, failures: failures, parser: gofeed.NewParser()}
}

func validateFeedURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed feed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported feed url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("feed url missing host")
	}
	return u, nil
}

func is403Error(err error) bool { return err != nil && strings.Contains(err.Error(), "403") }
func is429Error(err error) bool { return err != nil && strings.Contains(err.Error(), "429") }

func isPersistentError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"400", "403", "404", "Failed to detect feed type"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// fetchWithRetryOn403 retries a 403 response up to max403Retries times with
// 1s/2s/4s backoff, matching job/feed_collector.go's fetchWithRetryOn403.
func (o *FeedOperator) fetchWithRetryOn403(ctx context.Context, target *url.URL, userAgent string) ([]byte, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt <= max403Retries; attempt++ {
		body, err := o.fetchOnce(ctx, target, userAgent)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !is403Error(err) || attempt == max403Retries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (o *FeedOperator) fetchOnce(ctx context.Context, target *url.URL, userAgent string) ([]byte, error) {
	if err := o.mgr.Guard().ValidateURL(target); err != nil {
		return nil, fmt.Errorf("ssrf validation failed: %w", err)
	}
	if !o.mgr.Robots().Allowed(ctx, target, userAgent) {
		return nil, fmt.Errorf("disallowed by robots.txt")
	}
	if err := o.mgr.Limiter().WaitForHost(ctx, target.String()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := o.mgr.HTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		o.mgr.Limiter().RecordRateLimitHit(target.Host, 0)
		return nil, fmt.Errorf("feed request returned 429")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed request returned %d", resp.StatusCode)
	}
	return body, nil
}

// handleFeedError folds a feed-level fetch/parse failure into the
// rate-limiter (429) or the failure tracker (persistent errors), disabling
// the feed after maxConsecutiveFailures in a row.
func (o *FeedOperator) handleFeedError(ctx context.Context, feedURL string, err error) {
	if is429Error(err) {
		o.mgr.Limiter().RecordRateLimitHit(hostOf(feedURL), 0)
		return
	}
	if !isPersistentError(err) {
		return
	}
	consecutive, trackErr := o.failures.IncrementFailures(ctx, feedURL, err.Error())
	if trackErr != nil {
		logger.Logger.ErrorContext(ctx, "failed to record feed failure", "feed_url", feedURL, "error", trackErr)
		return
	}
	if o.failures.ShouldDisable(consecutive) {
		if err := o.failures.Disable(ctx, feedURL); err != nil {
			logger.Logger.ErrorContext(ctx, "failed to disable feed", "feed_url", feedURL, "error", err)
		}
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Host
}

// ConvertFeedToItems turns parsed feed entries into harvestable items,
// skipping empty-title entries and entries that look like soft-404s, and
// skipping links already delivered. Grounded on
// job/feed_collector.go's ConvertFeedToFeedItem filtering.
func (o *FeedOperator) ConvertFeedToItems(ctx context.Context, feed *gofeed.Feed, journal *domain.JournalParams, counter *domain.ItemCounter) []domain.HarvestableItem {
	var items []domain.HarvestableItem
	for _, entry := range feed.Items {
		if strings.TrimSpace(entry.Title) == "" {
			continue
		}
		if looksLikeSoftNotFound(entry.Title) || looksLikeSoftNotFound(entry.Description) {
			continue
		}
		if entry.Link == "" {
			continue
		}
		if o.delivery != nil {
			if delivered, err := o.delivery.URLAlreadyDelivered(ctx, entry.Link, nil); err == nil && delivered != nil {
				continue
			}
		}
		items = append(items, domain.NewItem(counter, entry.Link, journal))
	}
	return items
}

func looksLikeSoftNotFound(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "404") || strings.Contains(lower, "not found")
}

func (o *FeedOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error) {
	target, err := validateFeedURL(item.URL)
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("feed_operator", "harvest", "invalid feed url", err)
	}

	userAgent := o.userAgent(item.JournalRef)
	body, err := o.fetchWithRetryOn403(ctx, target, userAgent)
	if err != nil {
		o.handleFeedError(ctx, item.URL, err)
		return Outcome{}, harvesterrors.NewNetwork("feed_operator", "harvest", "feed fetch failed", err)
	}

	feed, err := o.parser.ParseString(string(body))
	if err != nil {
		o.handleFeedError(ctx, item.URL, fmt.Errorf("Failed to detect feed type: %w", err))
		return Outcome{}, harvesterrors.NewNetwork("feed_operator", "harvest", "feed parse failed", err)
	}

	if o.failures != nil {
		_ = o.failures.ResetFailures(ctx, item.URL)
	}

	children := o.ConvertFeedToItems(ctx, feed, item.JournalRef, counter)
	return Outcome{Children: children}, nil
}
