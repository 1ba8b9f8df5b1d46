package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
	"zoterharvest/internal/harvesterrors"
)

// CrawlOperator services journals whose harvester_operation_ is CRAWL
// (spec §4.2 "crawl"): starting at entry_url_, follow links matching
// crawl_.url_regex_ up to crawl_.max_depth_, and emit a harvestable item
// for every discovered link that matches crawl_.extraction_regex_.
// Grounded on the goquery link-extraction shape used by the pack's
// manuals crawler and utils/html_parser/cleaner.go's HTML traversal.
type CrawlOperator struct {
	mgr       *download.Manager
	userAgent func(*domain.JournalParams) string
}

func NewCrawlOperator(mgr *download.Manager, userAgent func(*domain.JournalParams) string) *CrawlOperator {
	return &CrawlOperator{mgr: mgr, userAgent: userAgent}
}

func (o *CrawlOperator) fetchHTML(ctx context.Context, target *url.URL, userAgent string) (*goquery.Document, error) {
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

	if resp.StatusCode == http.StatusTooManyRequests {
		o.mgr.Limiter().RecordRateLimitHit(target.Host, 0)
		return nil, fmt.Errorf("crawl request returned 429")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crawl request returned %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 16<<20))
}

// links extracts and resolves every href on doc against base.
func links(doc *goquery.Document, base *url.URL) []*url.URL {
	var out []*url.URL
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		out = append(out, base.ResolveReference(ref))
	})
	return out
}

// crawlState tracks visited pages across the whole operation so the same
// page is never fetched twice, even if reachable via multiple paths.
type crawlState struct {
	visited map[string]bool
}

func (o *CrawlOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error) {
	journal := item.JournalRef
	userAgent := o.userAgent(journal)

	urlPattern, err := regexp.Compile(journal.Crawl.URLRegex)
	if err != nil {
		return Outcome{}, harvesterrors.NewConfig("crawl_operator", "harvest", fmt.Sprintf("invalid crawl url_regex: %v", err), err)
	}
	extractPattern, err := regexp.Compile(journal.Crawl.ExtractionRegex)
	if err != nil {
		return Outcome{}, harvesterrors.NewConfig("crawl_operator", "harvest", fmt.Sprintf("invalid crawl extraction_regex: %v", err), err)
	}

	start, err := url.Parse(item.URL)
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("crawl_operator", "harvest", "invalid entry url", err)
	}

	state := &crawlState{visited: map[string]bool{start.String(): true}}
	maxDepth := journal.Crawl.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}

	type frontierEntry struct {
		u     *url.URL
		depth int
	}
	frontier := []frontierEntry{{u: start, depth: 0}}

	var children []domain.HarvestableItem
	seenExtraction := map[string]bool{}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		doc, err := o.fetchHTML(ctx, cur.u, userAgent)
		if err != nil {
			continue // one bad page does not fail the whole crawl
		}

		for _, link := range links(doc, cur.u) {
			linkStr := link.String()

			if extractPattern.MatchString(linkStr) && !seenExtraction[linkStr] {
				seenExtraction[linkStr] = true
				children = append(children, domain.NewItem(counter, linkStr, journal))
			}

			if cur.depth >= maxDepth {
				continue
			}
			if !urlPattern.MatchString(linkStr) {
				continue
			}
			if state.visited[linkStr] {
				continue
			}
			state.visited[linkStr] = true
			frontier = append(frontier, frontierEntry{u: link, depth: cur.depth + 1})
		}
	}

	return Outcome{Children: children}, nil
}
