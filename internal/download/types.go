// Package download implements the §4.1 download manager: concurrent HTTP
// fetches gated by per-domain rate limiting and robots-policy compliance,
// with a response cache and bounded concurrency pools. Grounded on
// gateway/robots_txt_gateway/robots_txt_gateway.go (robots fetch+parse)
// and job/feed_collector.go (retry/backoff shape for 403/429 handling).
package download

import (
	"context"
	"time"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/harvesterrors"
)

// Mode selects whether directDownload returns the raw HTTP body or the
// translation service's JSON rendering of it.
type Mode string

const (
	ModeRaw        Mode = "RAW"
	ModeTranslated Mode = "TRANSLATED"
)

// Result is the outcome of one download-manager operation. Network and
// HTTP failures are reported here rather than raised, per spec §4.1.
type Result struct {
	Item       domain.HarvestableItem
	Body       []byte
	StatusCode int
	FromCache  bool
	FetchedAt  time.Time
	Err        *harvesterrors.Error
}

func (r Result) Success() bool { return r.Err == nil }

// CrawlResult is the outcome of a crawl operation: the items discovered
// for further direct download plus the Result of the entry-page fetch.
type CrawlResult struct {
	Entry    Result
	Children []domain.HarvestableItem
	Depth    int
}

// FeedResult is the outcome of a feed-poll operation.
type FeedResult struct {
	Entry    Result
	Children []domain.HarvestableItem
}

// TranslationPoster is the narrow interface the download manager needs
// from internal/translate.Client: hand it a URL, get back the translation
// service's raw JSON response. Defined here (rather than imported from
// internal/translate) so download does not depend on translate.
type TranslationPoster interface {
	PostURL(ctx context.Context, url string) (body []byte, statusCode int, err error)
}
