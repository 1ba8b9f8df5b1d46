package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/harvesterrors"
)

// pagedTotalPagesResponse is the minimal shape expected from a journal's
// paged_feed_.total_pages_url_ endpoint, per
// original_source/cpp/lib/include/PagedJournalUtil.h.
type pagedTotalPagesResponse struct {
	TotalPages int `json:"total_pages"`
}

// PagedFeedOperator extends FeedOperator for journals whose feed is split
// across numbered pages: it first queries total_pages_url_ for the page
// count, then fetches and parses entry_url_ once per page with page_size_
// and page_num query parameters appended (spec §9 open-question decision:
// treated as a distinct operator rather than a feed-operator flag).
type PagedFeedOperator struct {
	feed *FeedOperator
}

func NewPagedFeedOperator(feed *FeedOperator) *PagedFeedOperator {
	return &PagedFeedOperator{feed: feed}
}

func (o *PagedFeedOperator) totalPages(ctx context.Context, journal *domain.JournalParams, userAgent string) (int, error) {
	target, err := validateFeedURL(journal.PagedFeed.TotalPagesURL)
	if err != nil {
		return 0, fmt.Errorf("invalid total_pages_url: %w", err)
	}
	if err := o.feed.mgr.Guard().ValidateURL(target); err != nil {
		return 0, fmt.Errorf("ssrf validation failed: %w", err)
	}
	if err := o.feed.mgr.Limiter().WaitForHost(ctx, target.String()); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := o.feed.mgr.HTTPClient().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("total_pages_url returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	var parsed pagedTotalPagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("malformed total_pages response: %w", err)
	}
	return parsed.TotalPages, nil
}

func pageURL(base string, pageSize, pageNum int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("page_size", fmt.Sprintf("%d", pageSize))
	q.Set("page_num", fmt.Sprintf("%d", pageNum))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (o *PagedFeedOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error) {
	journal := item.JournalRef
	userAgent := o.feed.userAgent(journal)

	total, err := o.totalPages(ctx, journal, userAgent)
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("paged_feed_operator", "harvest", "failed to resolve total pages", err)
	}
	if total <= 0 {
		total = 1
	}

	pageSize := journal.PagedFeed.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var allChildren []domain.HarvestableItem
	for page := 1; page <= total; page++ {
		pagedURL, err := pageURL(item.URL, pageSize, page)
		if err != nil {
			return Outcome{}, harvesterrors.NewNetwork("paged_feed_operator", "harvest", "failed to build page url", err)
		}
		target, err := validateFeedURL(pagedURL)
		if err != nil {
			return Outcome{}, harvesterrors.NewNetwork("paged_feed_operator", "harvest", "invalid page url", err)
		}

		body, err := o.feed.fetchWithRetryOn403(ctx, target, userAgent)
		if err != nil {
			o.feed.handleFeedError(ctx, pagedURL, err)
			continue
		}
		parsedFeed, err := o.feed.parser.ParseString(string(body))
		if err != nil {
			o.feed.handleFeedError(ctx, pagedURL, fmt.Errorf("Failed to detect feed type: %w", err))
			continue
		}
		allChildren = append(allChildren, o.feed.ConvertFeedToItems(ctx, parsedFeed, journal, counter)...)
	}

	return Outcome{Children: allChildren}, nil
}
