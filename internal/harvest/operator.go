// Package harvest implements the five harvest operators dispatched by
// harvester_operation_ (spec §4.1/§4.2): direct, feed (plus its paged-feed
// extension), crawl, API query, and mailbox scan. Each wraps
// internal/download.Manager for the actual HTTP work; this package supplies
// the operation-specific parsing and link discovery. Grounded on
// job/feed_collector.go (gofeed usage, 403/429 retry shape) and the crawl
// shape in other_examples' WessleyAI manuals crawler.
package harvest

import (
	"context"
	"fmt"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
)

// Outcome is what one harvest operation contributes to the dispatcher's
// direct-download FIFO (spec §4.2).
type Outcome struct {
	EntryResult download.Result
	Children    []domain.HarvestableItem
}

// Operator is implemented by each of the five harvest operations.
type Operator interface {
	Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error)
}

// DeliveryChecker is the narrow view of the delivery-history store the
// feed/paged-feed operators need to avoid re-enqueuing already-delivered
// links (spec §4.1 feed(): "emit one harvestable item per entry whose
// link has not already been delivered").
type DeliveryChecker interface {
	URLAlreadyDelivered(ctx context.Context, url string, ignoredStates []domain.DeliveryState) (*domain.DeliveredRecordEntry, error)
}

// FailureTracker records per-link consecutive failures and decides when a
// feed should be auto-disabled, grounded on
// port/feed_link_availability_port and job/feed_collector.go's
// handleFeedError/ShouldDisable usage.
type FailureTracker interface {
	IncrementFailures(ctx context.Context, url, message string) (consecutive int, err error)
	ResetFailures(ctx context.Context, url string) error
	ShouldDisable(consecutive int) bool
	Disable(ctx context.Context, url string) error
}

// Registry holds the Operator for each harvester_operation_; Select picks
// the one a journal uses.
type Registry struct {
	direct   Operator
	feed     Operator
	paged    Operator
	crawl    Operator
	apiQuery Operator
	email    Operator
}

func NewRegistry(direct, feed, paged, crawl, apiQuery, email Operator) *Registry {
	return &Registry{direct: direct, feed: feed, paged: paged, crawl: crawl, apiQuery: apiQuery, email: email}
}

// Select returns the operator for a journal, choosing the paged-feed
// extension when the journal's PagedFeed params are enabled (spec §9
// "treat this as a distinct operator").
func (r *Registry) Select(j *domain.JournalParams) (Operator, error) {
	switch j.HarvesterOperation {
	case domain.OpDirect:
		return r.direct, nil
	case domain.OpRSS:
		if j.PagedFeed.Enabled {
			return r.paged, nil
		}
		return r.feed, nil
	case domain.OpCrawl:
		return r.crawl, nil
	case domain.OpAPIQuery:
		return r.apiQuery, nil
	case domain.OpEmail:
		return r.email, nil
	default:
		return nil, fmt.Errorf("harvest: unknown operation %q", j.HarvesterOperation)
	}
}
