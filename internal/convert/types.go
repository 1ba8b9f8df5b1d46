// Package convert implements the §4.4 conversion engine: turning one
// translation-service item (already parsed, note-folded, and
// suppress/override-adjusted by internal/translate) into zero or one
// catalog records. Grounded on utils/html_parser/cleaner.go for HTML
// stripping and job/feed_collector.go's ConvertFeedToFeedItem for the
// item -> domain-struct mapping and skip-with-reason shape.
package convert

import (
	"context"
	"time"

	"zoterharvest/internal/domain"
)

// AuthorLookup resolves a creator's GND identifier (and, where the
// catalog holds one, PPN) by name via the owning group's
// author-lookup URL (spec §4.4 stage 5: "look up GND identifier by name
// via the group's author-lookup URL").
type AuthorLookup interface {
	LookupGND(ctx context.Context, lastName, firstName string) (ppn, gnd string, err error)
}

// DeliveryChecker is the subset of internal/delivery's store the
// conversion engine needs for stage 10 dedup.
type DeliveryChecker interface {
	URLAlreadyDelivered(ctx context.Context, url string, ignoredStates []domain.DeliveryState) (*domain.DeliveredRecordEntry, error)
	HashAlreadyDelivered(ctx context.Context, hash string, ignoredStates []domain.DeliveryState) ([]domain.DeliveredRecordEntry, error)
}

// MetricsSink receives the named per-run skip counters (spec §7/§8).
type MetricsSink interface {
	IncSkip(reason string)
}

// Deps bundles the conversion engine's collaborators.
type Deps struct {
	AuthorLookup AuthorLookup
	Delivery     DeliveryChecker
	Metrics      MetricsSink
	Now          func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) incSkip(reason string) {
	if d.Metrics != nil {
		d.Metrics.IncSkip(reason)
	}
}

// Context is the resolved configuration an item is converted under.
type Context struct {
	Global  *domain.GlobalParams
	Group   *domain.GroupParams
	Journal *domain.JournalParams
	Item    domain.HarvestableItem
}

// SkipError is a non-fatal stage short-circuit (spec's skipped_since_*
// counters); it is never a ConversionError.
type SkipError struct {
	Reason string // metrics counter name, e.g. "skipped_since_exclusion_filters_"
}

func (e *SkipError) Error() string { return "convert: skipped (" + e.Reason + ")" }

func skip(deps Deps, reason string) error {
	deps.incSkip(reason)
	return &SkipError{Reason: reason}
}
