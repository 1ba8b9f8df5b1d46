package harvest

import (
	"context"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
)

// DirectOperator services journals whose harvester_operation_ is DIRECT:
// the journal's entry_url_ is itself the only item to download (spec §4.2
// "direct: download the entry URL and nothing else").
type DirectOperator struct {
	mgr       *download.Manager
	userAgent func(*domain.JournalParams) string
}

func NewDirectOperator(mgr *download.Manager, userAgent func(*domain.JournalParams) string) *DirectOperator {
	return &DirectOperator{mgr: mgr, userAgent: userAgent}
}

func (o *DirectOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error) {
	result := o.mgr.DirectDownload(ctx, item, o.userAgent(item.JournalRef), download.ModeTranslated)
	return Outcome{EntryResult: result}, nil
}
